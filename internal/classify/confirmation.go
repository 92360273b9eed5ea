// internal/classify/confirmation.go
package classify

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"formpilot/api/schemas"
)

// completionPattern matches the assigned identifier format: two digits, a
// separator, seven digits.
var completionPattern = regexp.MustCompile(`\b(\d{2}-\d{7})\b`)

// assignmentMarker is the phrase the confirmation screen wraps around the
// assigned identifier.
const assignmentMarker = "has been assigned"

// CompletionExtractor pulls the assigned identifier off the confirmation
// screen. Absence is a legitimate outcome (the portal sometimes defers the
// identifier to the mailed letter), so a missing number is not an error.
type CompletionExtractor struct {
	page   schemas.PagePrimitives
	logger *zap.Logger
}

func NewCompletionExtractor(page schemas.PagePrimitives, logger *zap.Logger) *CompletionExtractor {
	return &CompletionExtractor{page: page, logger: logger.Named("completion")}
}

// Find returns the completion number, or "" when the page does not carry
// one. Strategies run cheapest first: the labelled table row, bold elements
// holding a separator, the full page text, then an offline re-parse.
func (c *CompletionExtractor) Find(ctx context.Context) (string, error) {
	type strategy struct {
		name string
		fn   func(ctx context.Context) (string, bool)
	}
	strategies := []strategy{
		{"label-row", c.labelRow},
		{"bold-separator", c.boldSeparator},
		{"page-text", c.pageText},
		{"offline-reparse", c.offlineReparse},
	}

	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if num, ok := s.fn(ctx); ok {
			c.logger.Info("Completion number located.",
				zap.String("strategy", s.name), zap.String("number", num))
			return num, nil
		}
	}

	c.logger.Info("No completion number on confirmation page.")
	return "", nil
}

// labelRow reads the table row that announces the assignment and matches
// within it.
func (c *CompletionExtractor) labelRow(ctx context.Context) (string, bool) {
	script := `(() => {
		const cells = Array.from(document.querySelectorAll('td, th'));
		const hit = cells.find(cell => (cell.textContent || '').includes(` + strconv.Quote(assignmentMarker) + `));
		if (!hit) { return ''; }
		const row = hit.closest('tr');
		return ((row || hit).textContent || '').trim();
	})()`
	var rowText string
	if err := c.page.Evaluate(ctx, script, &rowText); err != nil {
		return "", false
	}
	return matchCompletion(rowText)
}

// boldSeparator scans emphasized elements for the identifier shape. The
// portal renders the number in a <b> of its own.
func (c *CompletionExtractor) boldSeparator(ctx context.Context) (string, bool) {
	script := `(() => {
		const nodes = Array.from(document.querySelectorAll('b, strong'));
		const hit = nodes.map(n => (n.textContent || '').trim())
			.find(t => /\d{2}-\d{7}/.test(t));
		return hit || '';
	})()`
	var text string
	if err := c.page.Evaluate(ctx, script, &text); err != nil {
		return "", false
	}
	return matchCompletion(text)
}

func (c *CompletionExtractor) pageText(ctx context.Context) (string, bool) {
	text, err := c.page.PageText(ctx)
	if err != nil {
		return "", false
	}
	return matchCompletion(text)
}

func (c *CompletionExtractor) offlineReparse(ctx context.Context) (string, bool) {
	html, err := c.page.HTML(ctx)
	if err != nil {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}
	if num, ok := matchCompletion(doc.Find("b, strong").Text()); ok {
		return num, true
	}
	return matchCompletion(doc.Text())
}

func matchCompletion(text string) (string, bool) {
	m := completionPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}
