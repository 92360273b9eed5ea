// File: cmd/record.go
package cmd

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"

	"formpilot/api/schemas"
	"formpilot/internal/workflow"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// loadCaseRecord decodes one case record from a JSON file.
func loadCaseRecord(path string) (*schemas.CaseRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading case record %s: %w", path, err)
	}
	var record schemas.CaseRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decoding case record %s: %w", path, err)
	}
	return &record, nil
}

// checkRecord reports everything about a case record that would make a
// submission run fail before the browser ever launches. An empty slice
// means the record is runnable.
func checkRecord(record *schemas.CaseRecord) []string {
	var problems []string

	required := []struct {
		name  string
		value string
	}{
		{"record_id", record.RecordID},
		{"entity_type", record.EntityType},
		{"legal_name", record.LegalName},
		{"first_name", record.FirstName},
		{"last_name", record.LastName},
		{"ssn", record.SSN},
		{"street", record.Street},
		{"city", record.City},
		{"state", record.State},
		{"zip", record.Zip},
		{"entity_state", record.EntityState},
	}
	for _, f := range required {
		if f.value == "" {
			problems = append(problems, fmt.Sprintf("%s is required", f.name))
		}
	}

	if record.SSN != "" && len(workflow.DigitsOnly(record.SSN)) != 9 {
		problems = append(problems, "ssn must contain nine digits")
	}
	if record.State != "" && len(workflow.StateAbbrev(record.State)) != 2 {
		problems = append(problems, fmt.Sprintf("state %q is not a recognized state", record.State))
	}

	category, err := workflow.Categorize(record)
	if err != nil {
		problems = append(problems, err.Error())
	} else if category == schemas.CategoryLLC && record.NumberOfMembers < 1 {
		problems = append(problems, "llc records need number_of_members of at least 1")
	}

	if record.FormationDate != "" {
		if month, year := workflow.SplitFormationDate(record.FormationDate); month == "" || year == "" {
			problems = append(problems, fmt.Sprintf("formation_date %q is not MM/YYYY", record.FormationDate))
		}
	}

	return problems
}
