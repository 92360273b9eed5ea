// api/schemas/caserecord.go
package schemas

// CaseRecord is the immutable business input for one submission run. It is
// supplied once at run start and never mutated; every screen of the target
// portal is filled from the values captured here.
type CaseRecord struct {
	// External correlation identifiers.
	RecordID      string `json:"record_id"`
	OpportunityID string `json:"opportunity_id,omitempty"`

	// Entity classification.
	EntityType        string `json:"entity_type"`
	EntityDescription string `json:"entity_description,omitempty"`
	TrustType         string `json:"trust_type,omitempty"`
	NumberOfMembers   int    `json:"number_of_members,omitempty"`

	// Business identity.
	LegalName     string `json:"legal_name"`
	TradeName     string `json:"trade_name,omitempty"`
	EntityState   string `json:"entity_state"`
	County        string `json:"county,omitempty"`
	FormationDate string `json:"formation_date,omitempty"` // MM/YYYY
	ClosingMonth  string `json:"closing_month,omitempty"`

	// Responsible party.
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name,omitempty"`
	LastName   string `json:"last_name"`
	Suffix     string `json:"suffix,omitempty"`
	SSN        string `json:"ssn"`
	Title      string `json:"title,omitempty"`

	// Mailing address.
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
	Phone  string `json:"phone,omitempty"`

	// Business profile.
	ActivityCategory string `json:"activity_category,omitempty"`
	ActivityDetail   string `json:"activity_detail,omitempty"`
	StartDate        string `json:"start_date,omitempty"`
	HasEmployees     bool   `json:"has_employees,omitempty"`
	HighwayVehicle   bool   `json:"highway_vehicle,omitempty"`
	Gambling         bool   `json:"gambling,omitempty"`
	ATFExcise        bool   `json:"atf_excise,omitempty"`
}

// EntityCategory is the canonical classification the portal branches on.
type EntityCategory string

const (
	CategorySoleProprietor EntityCategory = "sole_proprietor"
	CategoryPartnership    EntityCategory = "partnership"
	CategoryCorporation    EntityCategory = "corporation"
	CategoryLLC            EntityCategory = "llc"
	CategoryTrust          EntityCategory = "trust"
	CategoryOther          EntityCategory = "other"
)

// RunResult is the structured outcome returned from a workflow run. A run
// that the portal rejected is still a successful function call; Success is
// false and FailureCode carries the extracted detail.
type RunResult struct {
	RunID            string               `json:"run_id"`
	RecordID         string               `json:"record_id"`
	Success          bool                 `json:"success"`
	CompletionNumber string               `json:"completion_number,omitempty"`
	Classification   FailureClass         `json:"classification"`
	FailureCode      string               `json:"failure_code,omitempty"`
	FailureMessage   string               `json:"failure_message,omitempty"`
	Artifacts        []ArtifactDescriptor `json:"artifacts,omitempty"`
	Log              []LogEntry           `json:"log,omitempty"`
}

// LogEntry is one ordered key/value pair from the per-run structured log.
type LogEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
