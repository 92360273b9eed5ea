// internal/interact/locator.go
package interact

import (
	"fmt"
	"strings"

	"formpilot/internal/config"
)

// By identifies a locator resolution strategy.
type By string

const (
	ByID    By = "id"
	ByCSS   By = "css"
	ByXPath By = "xpath"
	ByName  By = "name"
	ByLabel By = "label"
	ByValue By = "value"
)

// Locator is a re-resolvable descriptor for a page control: a strategy plus
// an identifier. It is intentionally not a live element reference; the
// portal reloads pages between steps, so every use resolves afresh.
type Locator struct {
	By    By
	Value string
}

// FromBinding converts a config-level field binding into a Locator.
func FromBinding(b config.FieldBinding) Locator {
	return Locator{By: By(b.By), Value: b.Value}
}

// Selector renders the locator as a selector string understood by the page
// driver. CSS and XPath pass through; the remaining strategies are
// translated into equivalent selectors.
func (l Locator) Selector() string {
	switch l.By {
	case ByID:
		// Attribute form tolerates the portal's generated ids, which may
		// contain characters a bare #id selector would reject.
		return fmt.Sprintf(`[id=%q]`, l.Value)
	case ByName:
		return fmt.Sprintf(`[name=%q]`, l.Value)
	case ByValue:
		return fmt.Sprintf(`[value=%q]`, l.Value)
	case ByLabel:
		return fmt.Sprintf(`//label[contains(normalize-space(.), %s)]`, xpathLiteral(l.Value))
	case ByXPath:
		return l.Value
	default:
		return l.Value
	}
}

func (l Locator) String() string {
	return string(l.By) + "=" + l.Value
}

// IsZero reports whether the locator is unset (missing binding).
func (l Locator) IsZero() bool {
	return l.Value == ""
}

// xpathLiteral quotes a string for embedding in an XPath expression. XPath
// 1.0 has no escape syntax, so values containing both quote kinds are
// stitched together with concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, `'`) {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, `'`)
	for i, p := range parts {
		parts[i] = "'" + p + "'"
	}
	return "concat(" + strings.Join(parts, `, "'", `) + ")"
}
