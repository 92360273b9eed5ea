// internal/workflow/normalize.go
package workflow

import (
	"strings"
	"unicode"
)

// stateAbbrevs maps full state names (lowercased) to their two-letter codes.
// The reverse direction is derived once at init.
var stateAbbrevs = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT",
	"delaware": "DE", "district of columbia": "DC", "florida": "FL",
	"georgia": "GA", "hawaii": "HI", "idaho": "ID", "illinois": "IL",
	"indiana": "IN", "iowa": "IA", "kansas": "KS", "kentucky": "KY",
	"louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN",
	"mississippi": "MS", "missouri": "MO", "montana": "MT",
	"nebraska": "NE", "nevada": "NV", "new hampshire": "NH",
	"new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH",
	"oklahoma": "OK", "oregon": "OR", "pennsylvania": "PA",
	"puerto rico": "PR", "rhode island": "RI", "south carolina": "SC",
	"south dakota": "SD", "tennessee": "TN", "texas": "TX", "utah": "UT",
	"vermont": "VT", "virginia": "VA", "washington": "WA",
	"west virginia": "WV", "wisconsin": "WI", "wyoming": "WY",
}

var stateNames = func() map[string]string {
	m := make(map[string]string, len(stateAbbrevs))
	for name, abbrev := range stateAbbrevs {
		m[abbrev] = titleCase(name)
	}
	return m
}()

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "of" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// communityPropertyStates drive the extra multi-member branch for two-member
// LLCs: in these states a married couple may elect joint treatment.
var communityPropertyStates = map[string]bool{
	"AZ": true, "CA": true, "ID": true, "LA": true, "NV": true,
	"NM": true, "TX": true, "WA": true, "WI": true,
}

// StateAbbrev normalizes a state given as either a full name or a code to
// the two-letter code. Unknown input is returned uppercased unchanged, so an
// already-valid code the table missed still works against the portal.
func StateAbbrev(s string) string {
	trimmed := strings.TrimSpace(s)
	if abbrev, ok := stateAbbrevs[strings.ToLower(trimmed)]; ok {
		return abbrev
	}
	return strings.ToUpper(trimmed)
}

// StateName is the reverse direction, for dropdowns listing full names.
func StateName(s string) string {
	if name, ok := stateNames[StateAbbrev(s)]; ok {
		return name
	}
	return strings.TrimSpace(s)
}

// IsCommunityPropertyState reports whether the state (name or code) uses
// community-property treatment.
func IsCommunityPropertyState(s string) bool {
	return communityPropertyStates[StateAbbrev(s)]
}

// ZipFirst5 reduces any ZIP+4 or noisy input to the five digits the portal
// accepts.
func ZipFirst5(zip string) string {
	var digits strings.Builder
	for _, r := range zip {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
			if digits.Len() == 5 {
				break
			}
		}
	}
	return digits.String()
}

// DigitsOnly strips everything but digits, for SSN and phone fields.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CleanText reduces free text to the character set the portal accepts:
// letters, digits, spaces and a small punctuation allow-list. Runs of
// whitespace collapse to one space. The function is idempotent, so values
// cleaned upstream pass through unchanged.
func CleanText(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case strings.ContainsRune("&'-,./# ", r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// SplitFormationDate splits the MM/YYYY formation date into its month and
// year components. Either may come back empty when the input is malformed.
func SplitFormationDate(date string) (month, year string) {
	parts := strings.SplitN(strings.TrimSpace(date), "/", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}
