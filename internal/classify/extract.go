// internal/classify/extract.go
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

// markerPhrase is the cheap presence probe. Extraction strategies are only
// worth their round-trips when the page mentions a reference number at all.
const markerPhrase = "reference number"

// refPattern pulls the numeric code out of the portal's phrasing, e.g.
// "Reference number: 101" or "reference number 109".
var refPattern = regexp.MustCompile(`(?i)reference\s+numbers?\s*[:#]?\s*(\d+)`)

// fragmentDelim joins list fragments harvested from an error panel so the
// code regex can run over a single string.
const fragmentDelim = " | "

// refStrategy is one technique for locating the reference code. snap carries
// the page text already fetched for this call; strategies needing live DOM
// access go back through the page themselves.
type refStrategy struct {
	name string
	fn   func(ctx context.Context, snap *snapshot) (string, bool)
}

type snapshot struct {
	text string
}

// Extractor locates portal reference codes and free-text failure details.
// The page text is read once per call; the five strategies run in order from
// cheapest to most thorough, first hit wins.
type Extractor struct {
	page          schemas.PagePrimitives
	logger        *zap.Logger
	panelSelector string
	strategies    []refStrategy
}

// NewExtractor builds an extraction engine scoped to the given error-panel
// selector (a CSS group such as "div.errorPanel, div#errorList").
func NewExtractor(page schemas.PagePrimitives, logger *zap.Logger, panelSelector string) *Extractor {
	e := &Extractor{
		page:          page,
		logger:        logger.Named("extract"),
		panelSelector: panelSelector,
	}
	e.strategies = []refStrategy{
		{"panel-fragments", e.panelFragments},
		{"unscoped-fragments", e.unscopedFragments},
		{"text-pattern", e.textPattern},
		{"scripted-query", e.scriptedQuery},
		{"offline-reparse", e.offlineReparse},
	}
	return e
}

// Extract returns the reference code on the current page, or "" when the
// page carries none. Pages that never mention a reference number return
// immediately without running any strategy. Only context cancellation is an
// error.
func (e *Extractor) Extract(ctx context.Context) (string, error) {
	text, err := e.page.PageText(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		e.logger.Warn("Could not read page text for extraction.", zap.Error(err))
		text = ""
	}

	if !strings.Contains(strings.ToLower(text), markerPhrase) {
		return "", nil
	}

	snap := &snapshot{text: text}
	for _, s := range e.strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if code, ok := s.fn(ctx, snap); ok {
			e.logger.Debug("Reference code extracted.",
				zap.String("strategy", s.name), zap.String("code", code))
			return code, nil
		}
	}

	e.logger.Warn("Marker phrase present but no strategy yielded a code.")
	return "", nil
}

// codeFrom applies the reference pattern to harvested text.
func codeFrom(text string) (string, bool) {
	m := refPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// panelFragments concatenates the list fragments inside the error panel and
// matches over the joined result. Portals split one message across several
// <li> and <a> nodes.
func (e *Extractor) panelFragments(ctx context.Context, _ *snapshot) (string, bool) {
	script := `(() => {
		const panel = document.querySelector(` + strconv.Quote(e.panelSelector) + `);
		if (!panel) { return ''; }
		const parts = Array.from(panel.querySelectorAll('li, a, p'))
			.map(n => (n.textContent || '').trim())
			.filter(Boolean);
		return parts.length ? parts.join(` + strconv.Quote(fragmentDelim) + `) : (panel.textContent || '').trim();
	})()`
	var joined string
	if err := e.page.Evaluate(ctx, script, &joined); err != nil {
		return "", false
	}
	return codeFrom(joined)
}

// unscopedFragments repeats the fragment harvest over the whole document for
// pages that render the message outside the usual panel.
func (e *Extractor) unscopedFragments(ctx context.Context, _ *snapshot) (string, bool) {
	script := `(() => {
		const nodes = Array.from(document.querySelectorAll('li, a, p, td, span'));
		const hits = nodes
			.map(n => (n.textContent || '').trim())
			.filter(t => /reference\s+number/i.test(t));
		return hits.join(` + strconv.Quote(fragmentDelim) + `);
	})()`
	var joined string
	if err := e.page.Evaluate(ctx, script, &joined); err != nil {
		return "", false
	}
	return codeFrom(joined)
}

// textPattern matches directly over the page text cached at the start of the
// call. No round-trip.
func (e *Extractor) textPattern(_ context.Context, snap *snapshot) (string, bool) {
	return codeFrom(snap.text)
}

// scriptedQuery re-reads the rendered text inside the page itself, covering
// content injected after the snapshot was taken.
func (e *Extractor) scriptedQuery(ctx context.Context, _ *snapshot) (string, bool) {
	script := `(() => {
		const m = (document.body.innerText || '').match(/reference\s+numbers?\s*[:#]?\s*(\d+)/i);
		return m ? m[1] : '';
	})()`
	var code string
	if err := e.page.Evaluate(ctx, script, &code); err != nil {
		return "", false
	}
	code = strings.TrimSpace(code)
	return code, code != ""
}

// offlineReparse pulls the raw HTML and re-parses it tolerantly. Malformed
// markup that confuses live DOM queries often still yields to goquery.
func (e *Extractor) offlineReparse(ctx context.Context, _ *snapshot) (string, bool) {
	html, err := e.page.HTML(ctx)
	if err != nil {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}
	if panel := doc.Find(e.panelSelector); panel.Length() > 0 {
		if code, ok := codeFrom(panel.Text()); ok {
			return code, true
		}
	}
	return codeFrom(doc.Text())
}

// messageFallback is reported when a failure is detected but nothing legible
// could be harvested from the page.
const messageFallback = "Unable to extract failure details from the page."

// Message harvests the free-text failure detail from the error panel, for
// classifications that carry no numeric code. Falls back to an offline
// re-parse, then to a fixed sentinel so downstream records never carry an
// empty reason.
func (e *Extractor) Message(ctx context.Context) (string, error) {
	text, err := e.page.Text(ctx, e.panelSelector)
	if err != nil && ctx.Err() != nil {
		return "", ctx.Err()
	}
	if msg := collapseWhitespace(text); msg != "" {
		return msg, nil
	}

	html, err := e.page.HTML(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return messageFallback, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return messageFallback, nil
	}
	if msg := collapseWhitespace(doc.Find(e.panelSelector).Text()); msg != "" {
		return msg, nil
	}
	return messageFallback, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
