// internal/workflow/fakeportal_test.go
package workflow

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"formpilot/api/schemas"
	"formpilot/internal/config"
	"formpilot/internal/interact"
)

// fakePortal simulates the multi-screen portal: navigation controls advance
// an index, every other interaction is recorded. Scripts the engine emits
// are interpreted by their structural markers.
type fakePortal struct {
	mu sync.Mutex

	idx         int
	advanceSels map[string]bool

	texts      map[int]string // visible text per screen index
	panelTexts map[int]string // error panel text per screen index
	rowText    string         // confirmation table row
	html       string

	options  map[string][]schemas.SelectOption
	selected map[string]string
	typed    map[string]string
	checked  map[string]bool
	clicks   []string
	pdf      []byte

	failScripted map[string]bool
	existing     map[string]bool
}

func newFakePortal() *fakePortal {
	bindings := config.DefaultScreenBindings()
	advance := map[string]bool{}
	for _, key := range []string{"continue", "begin"} {
		advance[interact.FromBinding(bindings[config.ScreenCommon][key]).Selector()] = true
	}
	advance[interact.FromBinding(bindings[config.ScreenReview]["submit"]).Selector()] = true

	return &fakePortal{
		advanceSels:  advance,
		texts:        map[int]string{},
		panelTexts:   map[int]string{},
		options:      map[string][]schemas.SelectOption{},
		selected:     map[string]string{},
		typed:        map[string]string{},
		checked:      map[string]bool{},
		failScripted: map[string]bool{},
		existing:     map[string]bool{},
		pdf:          []byte("%PDF-1.7 stub confirmation"),
	}
}

var _ schemas.PagePrimitives = (*fakePortal)(nil)

func (f *fakePortal) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.idx = 0
	return nil
}

func (f *fakePortal) CurrentURL(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fmt.Sprintf("https://portal.test/screen/%d", f.idx), nil
}

func (f *fakePortal) WaitVisible(ctx context.Context, sel string) error    { return nil }
func (f *fakePortal) ScrollIntoView(ctx context.Context, sel string) error { return nil }

func (f *fakePortal) Exists(ctx context.Context, sel string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.existing[sel], nil
}

func (f *fakePortal) Click(ctx context.Context, sel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks = append(f.clicks, sel)
	if f.advanceSels[sel] {
		f.idx++
		return nil
	}
	f.checked[sel] = true
	return nil
}

func (f *fakePortal) Clear(ctx context.Context, sel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.typed, sel)
	return nil
}

func (f *fakePortal) SendKeys(ctx context.Context, sel, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typed[sel] += text
	return nil
}

func (f *fakePortal) SetValue(ctx context.Context, sel, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typed[sel] = value
	return nil
}

func (f *fakePortal) Options(ctx context.Context, sel string) ([]schemas.SelectOption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	opts, ok := f.options[sel]
	if !ok {
		return nil, fmt.Errorf("no select at %s", sel)
	}
	return opts, nil
}

func (f *fakePortal) SelectValue(ctx context.Context, sel, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.options[sel] {
		if o.Value == value {
			f.selected[sel] = value
			return nil
		}
	}
	return fmt.Errorf("option %s not present in %s", value, sel)
}

func (f *fakePortal) Text(ctx context.Context, sel string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.panelTexts[f.idx], nil
}

func (f *fakePortal) PageText(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.texts[f.idx], nil
}

func (f *fakePortal) HTML(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.html, nil
}

func (f *fakePortal) PrintToPDF(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pdf, nil
}

func (f *fakePortal) Close(ctx context.Context) error { return nil }

var quotedLiteral = regexp.MustCompile(`"(?:[^"\\]|\\.)*"`)

// selectorIn pulls the first quoted literal out of an emitted script.
func selectorIn(script string) string {
	m := quotedLiteral.FindString(script)
	if m == "" {
		return ""
	}
	s, err := strconv.Unquote(m)
	if err != nil {
		return ""
	}
	return s
}

func (f *fakePortal) Evaluate(ctx context.Context, script string, res any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	sel := selectorIn(script)

	switch {
	case strings.Contains(script, "panel.querySelectorAll"):
		return setStr(res, f.panelTexts[f.idx])

	case strings.Contains(script, "closest('tr')"):
		return setStr(res, f.rowText)

	case strings.Contains(script, "'b, strong'"):
		return setStr(res, "")

	case strings.Contains(script, "innerText"):
		return setStr(res, "")

	case strings.Contains(script, "test(t)"):
		return setStr(res, "")

	case strings.Contains(script, "el.checked)"): // probe
		return setB(res, f.checked[sel])

	case strings.Contains(script, "MouseEvent"): // scripted set
		if f.failScripted[sel] {
			return fmt.Errorf("scripted set blocked for %s", sel)
		}
		f.checked[sel] = true
		return setB(res, true)

	case strings.Contains(script, "el.checked = true"): // forced check
		if !f.existing[sel] {
			return fmt.Errorf("not found")
		}
		f.checked[sel] = true
		return setB(res, true)

	case strings.Contains(script, "closest("): // container click
		return fmt.Errorf("no container")

	case strings.Contains(script, "el.click()"): // scripted click fallback
		if f.advanceSels[sel] {
			f.idx++
		} else {
			f.checked[sel] = true
		}
		return setB(res, true)
	}
	return fmt.Errorf("unrecognized script: %s", script)
}

func setB(res any, v bool) error {
	if b, ok := res.(*bool); ok && b != nil {
		*b = v
	}
	return nil
}

func setStr(res any, v string) error {
	if s, ok := res.(*string); ok && s != nil {
		*s = v
	}
	return nil
}
