// internal/workflow/entity.go
package workflow

import (
	"fmt"
	"strings"

	"formpilot/api/schemas"
)

// entityTypeTable maps the free-form entity type strings seen in upstream
// records to the canonical category the portal branches on. Keys are
// lowercased.
var entityTypeTable = map[string]schemas.EntityCategory{
	"sole proprietor":               schemas.CategorySoleProprietor,
	"sole proprietorship":           schemas.CategorySoleProprietor,
	"individual":                    schemas.CategorySoleProprietor,
	"partnership":                   schemas.CategoryPartnership,
	"general partnership":           schemas.CategoryPartnership,
	"limited partnership":           schemas.CategoryPartnership,
	"corporation":                   schemas.CategoryCorporation,
	"c corporation":                 schemas.CategoryCorporation,
	"c corp":                        schemas.CategoryCorporation,
	"s corporation":                 schemas.CategoryCorporation,
	"s corp":                        schemas.CategoryCorporation,
	"professional corporation":      schemas.CategoryCorporation,
	"personal service corporation":  schemas.CategoryCorporation,
	"llc":                           schemas.CategoryLLC,
	"limited liability company":     schemas.CategoryLLC,
	"limited liability company llc": schemas.CategoryLLC,
	"pllc":                          schemas.CategoryLLC,
	"trust":                         schemas.CategoryTrust,
	"trusteeship":                   schemas.CategoryTrust,
	"estate":                        schemas.CategoryOther,
	"non-profit":                    schemas.CategoryOther,
	"nonprofit":                     schemas.CategoryOther,
	"church":                        schemas.CategoryOther,
}

// nonProfitKeywords force the "other" branch regardless of what the type
// field claims: non-profits file under a different classification even when
// the record calls them a corporation.
var nonProfitKeywords = []string{"non-profit", "nonprofit", "non profit", "501(c)", "501c", "charity", "church"}

// Categorize resolves a case record to its portal entity category. The
// description can override the type field for non-profits.
func Categorize(record *schemas.CaseRecord) (schemas.EntityCategory, error) {
	combined := strings.ToLower(record.EntityType + " " + record.EntityDescription)
	for _, kw := range nonProfitKeywords {
		if strings.Contains(combined, kw) {
			return schemas.CategoryOther, nil
		}
	}

	key := strings.ToLower(strings.TrimSpace(record.EntityType))
	if cat, ok := entityTypeTable[key]; ok {
		return cat, nil
	}

	// Loose fallback: recognizable fragments inside longer descriptions.
	switch {
	case strings.Contains(key, "llc") || strings.Contains(key, "limited liability"):
		return schemas.CategoryLLC, nil
	case strings.Contains(key, "corp"):
		return schemas.CategoryCorporation, nil
	case strings.Contains(key, "partner"):
		return schemas.CategoryPartnership, nil
	case strings.Contains(key, "trust"):
		return schemas.CategoryTrust, nil
	case strings.Contains(key, "sole") || strings.Contains(key, "individual"):
		return schemas.CategorySoleProprietor, nil
	}
	return "", fmt.Errorf("unrecognized entity type %q", record.EntityType)
}

// trustSubTypes maps the record's trust type onto the portal's sub-type
// radio values. Keys are lowercased.
var trustSubTypes = map[string]string{
	"trusteeship":       "revocable",
	"revocable":         "revocable",
	"revocable trust":   "revocable",
	"living trust":      "revocable",
	"irrevocable":       "irrevocable",
	"irrevocable trust": "irrevocable",
}

// TrustSubType resolves the sub-type radio value for a trust record,
// defaulting to revocable when the record is silent.
func TrustSubType(trustType string) string {
	key := strings.ToLower(strings.TrimSpace(trustType))
	if key == "" {
		return "revocable"
	}
	if v, ok := trustSubTypes[key]; ok {
		return v
	}
	return "irrevocable"
}

// CorpSubType resolves the corporation sub-type radio value from the raw
// entity type.
func CorpSubType(entityType string) string {
	key := strings.ToLower(entityType)
	switch {
	case strings.Contains(key, "s corp"):
		return "scorp"
	case strings.Contains(key, "personal service"):
		return "personalservice"
	default:
		return "ccorp"
	}
}
