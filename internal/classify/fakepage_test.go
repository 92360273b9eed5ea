// internal/classify/fakepage_test.go
package classify

import (
	"context"
	"fmt"
	"strings"

	"formpilot/api/schemas"
)

// htmlFake is a scripted page stand-in. Tests preload the text each probe
// should see; Evaluate dispatches on structural markers of the scripts the
// extractors emit.
type htmlFake struct {
	text      string // PageText
	html      string // HTML
	panelText string // live panel text via Text()

	panelFragments    string // panel fragment harvest result
	unscopedFragments string // document-wide fragment harvest result
	scriptedCode      string // in-page regex result
	rowText           string // labelled confirmation row
	boldText          string // emphasized confirmation text

	evalErr bool // every Evaluate call fails

	evalCalls     int
	pageTextCalls int
}

var _ schemas.PagePrimitives = (*htmlFake)(nil)

func (f *htmlFake) Navigate(ctx context.Context, url string) error       { return nil }
func (f *htmlFake) CurrentURL(ctx context.Context) (string, error)       { return "about:blank", nil }
func (f *htmlFake) WaitVisible(ctx context.Context, sel string) error    { return nil }
func (f *htmlFake) Exists(ctx context.Context, sel string) (bool, error) { return false, nil }
func (f *htmlFake) Click(ctx context.Context, sel string) error          { return nil }
func (f *htmlFake) ScrollIntoView(ctx context.Context, sel string) error { return nil }
func (f *htmlFake) Clear(ctx context.Context, sel string) error          { return nil }
func (f *htmlFake) SendKeys(ctx context.Context, sel, text string) error { return nil }
func (f *htmlFake) SetValue(ctx context.Context, sel, value string) error {
	return nil
}
func (f *htmlFake) Options(ctx context.Context, sel string) ([]schemas.SelectOption, error) {
	return nil, nil
}
func (f *htmlFake) SelectValue(ctx context.Context, sel, value string) error { return nil }
func (f *htmlFake) PrintToPDF(ctx context.Context) ([]byte, error)           { return nil, nil }
func (f *htmlFake) Close(ctx context.Context) error                          { return nil }

func (f *htmlFake) PageText(ctx context.Context) (string, error) {
	f.pageTextCalls++
	return f.text, nil
}

func (f *htmlFake) HTML(ctx context.Context) (string, error) { return f.html, nil }

func (f *htmlFake) Text(ctx context.Context, sel string) (string, error) {
	return f.panelText, nil
}

func (f *htmlFake) Evaluate(ctx context.Context, script string, res any) error {
	f.evalCalls++
	if f.evalErr {
		return fmt.Errorf("evaluate disabled")
	}
	out, ok := res.(*string)
	if !ok {
		return fmt.Errorf("unexpected result type")
	}
	switch {
	case strings.Contains(script, "panel.querySelectorAll"):
		*out = f.panelFragments
	case strings.Contains(script, "closest('tr')"):
		*out = f.rowText
	case strings.Contains(script, "'b, strong'"):
		*out = f.boldText
	case strings.Contains(script, "innerText"):
		*out = f.scriptedCode
	case strings.Contains(script, "test(t)"):
		*out = f.unscopedFragments
	default:
		return fmt.Errorf("unrecognized script: %s", script)
	}
	return nil
}
