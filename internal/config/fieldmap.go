// File: internal/config/fieldmap.go
package config

// Screen names used as keys into PortalConfig.Screens. The orchestrator
// walks these in order; the bindings below are the defaults for the target
// portal and can be overridden wholesale from the config file.
const (
	ScreenCommon       = "common"
	ScreenEntityClass  = "entity_classification"
	ScreenSubType      = "sub_type"
	ScreenParty        = "responsible_party"
	ScreenAddress      = "address"
	ScreenBusiness     = "business_details"
	ScreenActivity     = "activity"
	ScreenReview       = "review"
	ScreenConfirmation = "confirmation"
)

// DefaultScreenBindings returns the built-in locator table for the target
// portal. Identifiers here are configuration data: when the portal renames
// a control only this table (or its YAML override) changes.
func DefaultScreenBindings() map[string]ScreenBindings {
	return map[string]ScreenBindings{
		ScreenCommon: {
			"continue":     {By: "id", Value: "ctl00_ctl00_topContinueButton"},
			"begin":        {By: "id", Value: "ctl00_ctl00_beginButton"},
			"error_panel":  {By: "css", Value: "div.errorPanel, div#errorList"},
			"download":     {By: "id", Value: "ctl00_ctl00_confirmationLetterLink"},
			"summary_grid": {By: "css", Value: "table.summaryTable"},
		},
		ScreenEntityClass: {
			"sole_proprietor": {By: "id", Value: "individualRadio"},
			"partnership":     {By: "id", Value: "partnershipRadio"},
			"corporation":     {By: "id", Value: "corporationsRadio"},
			"llc":             {By: "id", Value: "limitedRadio"},
			"trust":           {By: "id", Value: "trustsRadio"},
			"other":           {By: "id", Value: "viewAdditionalRadio"},
		},
		ScreenSubType: {
			"sub_type_prefix":  {By: "name", Value: "subTypeRadio"},
			"member_count":     {By: "id", Value: "numbermem"},
			"member_state":     {By: "id", Value: "state"},
			"multi_member":     {By: "id", Value: "radioMulti"},
			"filing_selection": {By: "name", Value: "corpFilingRadio"},
		},
		ScreenParty: {
			"first_name":  {By: "id", Value: "responsiblePartyFirstName"},
			"middle_name": {By: "id", Value: "responsiblePartyMiddleName"},
			"last_name":   {By: "id", Value: "responsiblePartyLastName"},
			"suffix":      {By: "id", Value: "responsiblePartySuffix"},
			"ssn":         {By: "id", Value: "responsiblePartySSN3"},
			"i_am_owner":  {By: "id", Value: "iamSole"},
		},
		ScreenAddress: {
			"street": {By: "id", Value: "physicalAddressStreet"},
			"city":   {By: "id", Value: "physicalAddressCity"},
			"state":  {By: "id", Value: "physicalAddressState"},
			"zip":    {By: "id", Value: "physicalAddressZipCode"},
			"phone":  {By: "id", Value: "physicalAddressPhone"},
		},
		ScreenBusiness: {
			"legal_name":    {By: "id", Value: "businessOperationalLegalName"},
			"trade_name":    {By: "id", Value: "businessOperationalTradeName"},
			"county":        {By: "id", Value: "businessOperationalCounty"},
			"state":         {By: "id", Value: "businessOperationalState"},
			"filing_state":  {By: "id", Value: "articleState"},
			"start_month":   {By: "id", Value: "BUSINESS_OPERATIONAL_MONTH_ID"},
			"start_year":    {By: "id", Value: "BUSINESS_OPERATIONAL_YEAR_ID"},
			"closing_month": {By: "id", Value: "fiscalMonth"},
		},
		ScreenActivity: {
			"highway_yes":   {By: "id", Value: "radioTrucking_y"},
			"highway_no":    {By: "id", Value: "radioTrucking_n"},
			"gambling_yes":  {By: "id", Value: "radioGambling_y"},
			"gambling_no":   {By: "id", Value: "radioGambling_n"},
			"atf_yes":       {By: "id", Value: "radioATF_y"},
			"atf_no":        {By: "id", Value: "radioATF_n"},
			"employees_yes": {By: "id", Value: "radioEmployees_y"},
			"employees_no":  {By: "id", Value: "radioEmployees_n"},
			"category":      {By: "name", Value: "principalActivityRadio"},
			"detail":        {By: "id", Value: "specifyOtherTextBox"},
		},
		ScreenReview: {
			"receive_online": {By: "id", Value: "receiveonline"},
			"submit":         {By: "id", Value: "ctl00_ctl00_submitButton"},
		},
		ScreenConfirmation: {
			"completion_label": {By: "xpath", Value: "//td[contains(normalize-space(.), 'has been assigned')]"},
		},
	}
}
