// internal/interact/fakepage_test.go
package interact

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"formpilot/api/schemas"
)

// fakePage is a scripted stand-in for the browser driver. Tests configure
// which techniques work for which selectors; the fake interprets the small
// set of scripts the interactor emits by their structural markers.
type fakePage struct {
	mu sync.Mutex

	checked  map[string]bool
	typed    map[string]string
	options  map[string][]schemas.SelectOption
	selected map[string]string

	// Failure switches, keyed by selector.
	failScripted  map[string]bool // scripted property set throws
	failClick     map[string]bool // native Click errors
	containerOK   map[string]bool // container click works
	existing      map[string]bool // Exists() results for alternate lookups
	clearCalls    []string
	sendKeysCalls []string
	clickCalls    []string

	// clickSets maps a clicked selector to the selector whose checked
	// state that click flips (label/container/alternate associations).
	clickSets map[string]string
}

func newFakePage() *fakePage {
	return &fakePage{
		checked:      map[string]bool{},
		typed:        map[string]string{},
		options:      map[string][]schemas.SelectOption{},
		selected:     map[string]string{},
		failScripted: map[string]bool{},
		failClick:    map[string]bool{},
		containerOK:  map[string]bool{},
		existing:     map[string]bool{},
		clickSets:    map[string]string{},
	}
}

var _ schemas.PagePrimitives = (*fakePage)(nil)

func (f *fakePage) Navigate(ctx context.Context, url string) error       { return nil }
func (f *fakePage) CurrentURL(ctx context.Context) (string, error)       { return "about:blank", nil }
func (f *fakePage) WaitVisible(ctx context.Context, sel string) error    { return nil }
func (f *fakePage) ScrollIntoView(ctx context.Context, sel string) error { return nil }
func (f *fakePage) PageText(ctx context.Context) (string, error)         { return "", nil }
func (f *fakePage) HTML(ctx context.Context) (string, error)             { return "", nil }
func (f *fakePage) Text(ctx context.Context, sel string) (string, error) { return "", nil }
func (f *fakePage) PrintToPDF(ctx context.Context) ([]byte, error)       { return nil, nil }
func (f *fakePage) Close(ctx context.Context) error                      { return nil }

func (f *fakePage) Exists(ctx context.Context, sel string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.existing[sel], nil
}

func (f *fakePage) Click(ctx context.Context, sel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clickCalls = append(f.clickCalls, sel)
	if f.failClick[sel] {
		return fmt.Errorf("click failed for %s", sel)
	}
	if target, ok := f.clickSets[sel]; ok {
		f.checked[target] = true
	} else {
		f.checked[sel] = true
	}
	return nil
}

func (f *fakePage) Clear(ctx context.Context, sel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls = append(f.clearCalls, sel)
	delete(f.typed, sel)
	return nil
}

func (f *fakePage) SendKeys(ctx context.Context, sel, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendKeysCalls = append(f.sendKeysCalls, sel)
	f.typed[sel] += text
	return nil
}

func (f *fakePage) SetValue(ctx context.Context, sel, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typed[sel] = value
	return nil
}

func (f *fakePage) Options(ctx context.Context, sel string) ([]schemas.SelectOption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	opts, ok := f.options[sel]
	if !ok {
		return nil, fmt.Errorf("no select at %s", sel)
	}
	return opts, nil
}

func (f *fakePage) SelectValue(ctx context.Context, sel, value string) error {
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

// Evaluate interprets the interactor's scripts by their structural markers.
func (f *fakePage) Evaluate(ctx context.Context, script string, res any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	sel := f.selectorIn(script)

	switch {
	case strings.Contains(script, "el.checked)"): // isChecked probe
		setBool(res, f.checked[sel])
		return nil

	case strings.Contains(script, "MouseEvent"): // scripted property set
		if sel == "" || f.failScripted[sel] {
			return fmt.Errorf("scripted set failed")
		}
		f.checked[sel] = true
		setBool(res, true)
		return nil

	case strings.Contains(script, "closest("): // container click
		if sel == "" || !f.containerOK[sel] {
			return fmt.Errorf("no container")
		}
		f.checked[sel] = true
		setBool(res, true)
		return nil

	case strings.Contains(script, "el.click()"): // scripted click fallback
		if sel == "" {
			return fmt.Errorf("not found")
		}
		f.clickCalls = append(f.clickCalls, sel)
		setBool(res, true)
		return nil

	case strings.Contains(script, "el.checked = true"): // forced check
		if sel == "" || !f.existing[sel] {
			return fmt.Errorf("not found")
		}
		if target, ok := f.clickSets[sel]; ok {
			f.checked[target] = true
		} else {
			f.checked[sel] = true
		}
		setBool(res, true)
		return nil
	}
	return fmt.Errorf("unrecognized script: %s", script)
}

// Every script the interactor emits embeds its target selector as the
// first (and only) double-quoted literal; the single-quoted strings in the
// JS itself never match.
var quotedLiteral = regexp.MustCompile(`"(?:[^"\\]|\\.)*"`)

func (f *fakePage) selectorIn(script string) string {
	m := quotedLiteral.FindString(script)
	if m == "" {
		return ""
	}
	sel, err := strconv.Unquote(m)
	if err != nil {
		return ""
	}
	return sel
}

func setBool(res any, v bool) {
	if b, ok := res.(*bool); ok && b != nil {
		*b = v
	}
}
