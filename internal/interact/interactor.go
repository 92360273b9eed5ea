// internal/interact/interactor.go
package interact

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"formpilot/api/schemas"
)

// Interactor performs single UI actions through an ordered fallback chain
// of techniques. Each public method returns a bool: true means the action
// verifiably took effect, false means every technique was exhausted (or the
// request was intentionally skipped). Errors are reserved for context
// cancellation; a single technique failing is never an error.
type Interactor struct {
	page     schemas.PagePrimitives
	logger   *zap.Logger
	attempts int
	backoff  time.Duration
}

// New builds an Interactor. attempts bounds the retries of each individual
// technique; backoff is the pause between those retries.
func New(page schemas.PagePrimitives, logger *zap.Logger, attempts int, backoff time.Duration) *Interactor {
	if attempts < 1 {
		attempts = 1
	}
	return &Interactor{
		page:     page,
		logger:   logger.Named("interact"),
		attempts: attempts,
		backoff:  backoff,
	}
}

// hesitate sleeps for the backoff period unless the context ends first.
func (it *Interactor) hesitate(ctx context.Context) error {
	select {
	case <-time.After(it.backoff):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retry runs fn up to the configured attempt budget with backoff between
// attempts. Returns true on the first success.
func (it *Interactor) retry(ctx context.Context, fn func() error) (bool, error) {
	var lastErr error
	for i := 0; i < it.attempts; i++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if lastErr = fn(); lastErr == nil {
			return true, nil
		}
		if i < it.attempts-1 {
			if err := it.hesitate(ctx); err != nil {
				return false, err
			}
		}
	}
	return false, nil
}

// -- Free-text fields --

// SetText fills a text control. An empty or whitespace-only value is a
// skip, not a failure: the field was simply not required for this record.
// The caller can distinguish the two through the returned bool plus
// schemas.ErrSkipped if it cares.
func (it *Interactor) SetText(ctx context.Context, loc Locator, value string) (bool, error) {
	if strings.TrimSpace(value) == "" {
		it.logger.Debug("Skipping empty text fill.", zap.String("locator", loc.String()))
		return false, nil
	}

	sel := loc.Selector()
	ok, err := it.retry(ctx, func() error {
		if err := it.page.ScrollIntoView(ctx, sel); err != nil {
			return err
		}
		if err := it.page.Clear(ctx, sel); err != nil {
			return err
		}
		return it.page.SendKeys(ctx, sel, value)
	})
	if err != nil {
		return false, err
	}
	if !ok {
		it.logger.Warn("Text fill exhausted retries.", zap.String("locator", loc.String()))
	}
	return ok, nil
}

// -- Exclusive-choice controls (radio buttons, checkboxes) --

// checkStrategy is one technique for activating an exclusive-choice control.
type checkStrategy struct {
	name string
	fn   func(ctx context.Context, loc Locator) error
}

// CheckExclusive activates a radio button or checkbox via the ordered
// technique chain, verifying the control's checked state after each
// technique. Order matters: the scripted set covers JS-framework bindings
// that swallow native clicks, and the later techniques cover custom widgets
// that hide the real input.
func (it *Interactor) CheckExclusive(ctx context.Context, loc Locator) (bool, error) {
	strategies := []checkStrategy{
		{"scripted-set", it.scriptedCheck},
		{"direct-click", it.directClick},
		{"label-click", it.labelClick},
		{"container-click", it.containerClick},
		{"alternate-lookup", it.alternateCheck},
	}

	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		ok, err := it.retry(ctx, func() error { return s.fn(ctx, loc) })
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}

		checked, err := it.isChecked(ctx, loc)
		if err != nil {
			return false, err
		}
		if checked {
			it.logger.Debug("Exclusive choice set.",
				zap.String("locator", loc.String()), zap.String("strategy", s.name))
			return true, nil
		}
	}

	it.logger.Warn("Exclusive choice exhausted all strategies.", zap.String("locator", loc.String()))
	return false, nil
}

// isChecked inspects the live checked property, not the attribute, since
// script-driven pages update only the property.
func (it *Interactor) isChecked(ctx context.Context, loc Locator) (bool, error) {
	var checked bool
	script := fmt.Sprintf(`(() => {
		const el = %s;
		return !!(el && el.checked);
	})()`, jsResolveExpr(loc.Selector()))
	if err := it.page.Evaluate(ctx, script, &checked); err != nil {
		return false, err
	}
	return checked, nil
}

// scriptedCheck sets the checked property directly and dispatches the
// synthetic input/change/click events frameworks listen for.
func (it *Interactor) scriptedCheck(ctx context.Context, loc Locator) error {
	script := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) { throw new Error('not found'); }
		el.checked = true;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		el.dispatchEvent(new MouseEvent('click', {bubbles: true}));
		return true;
	})()`, jsResolveExpr(loc.Selector()))
	var ok bool
	return it.page.Evaluate(ctx, script, &ok)
}

func (it *Interactor) directClick(ctx context.Context, loc Locator) error {
	sel := loc.Selector()
	if err := it.page.ScrollIntoView(ctx, sel); err != nil {
		return err
	}
	return it.page.Click(ctx, sel)
}

// labelClick clicks the <label> associated with the control, either via its
// for-attribute or, for label locators, the label text itself.
func (it *Interactor) labelClick(ctx context.Context, loc Locator) error {
	var sel string
	switch loc.By {
	case ByID:
		sel = fmt.Sprintf(`label[for=%q]`, loc.Value)
	case ByLabel:
		sel = loc.Selector()
	default:
		return fmt.Errorf("no label association for locator %s", loc)
	}
	return it.page.Click(ctx, sel)
}

// containerClick clicks the nearest ancestor wrapper. Custom widget
// frameworks frequently intercept clicks on a styled container rather than
// the hidden native input.
func (it *Interactor) containerClick(ctx context.Context, loc Locator) error {
	script := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) { throw new Error('not found'); }
		const box = el.closest('div, span, li, td');
		if (!box) { throw new Error('no container'); }
		box.click();
		return true;
	})()`, jsResolveExpr(loc.Selector()))
	var ok bool
	return it.page.Evaluate(ctx, script, &ok)
}

// alternateCheck retries the lookup through name, value, and role
// attributes, then forces the checked state as a last resort.
func (it *Interactor) alternateCheck(ctx context.Context, loc Locator) error {
	alternates := []string{
		fmt.Sprintf(`input[name=%q]`, loc.Value),
		fmt.Sprintf(`input[value=%q]`, loc.Value),
		fmt.Sprintf(`[role="radio"][id=%q], [role="checkbox"][id=%q]`, loc.Value, loc.Value),
	}

	for _, sel := range alternates {
		found, err := it.page.Exists(ctx, sel)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		if err := it.page.Click(ctx, sel); err == nil {
			return nil
		}
		// Forced check: bypass event plumbing entirely.
		script := fmt.Sprintf(`(() => {
			const el = document.querySelector(%s);
			if (!el) { throw new Error('not found'); }
			el.checked = true;
			el.dispatchEvent(new Event('change', {bubbles: true}));
			return true;
		})()`, strconv.Quote(sel))
		var ok bool
		if err := it.page.Evaluate(ctx, script, &ok); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no alternate identifier matched for %s", loc)
}

// -- Buttons and plain clicks --

// Click presses a control, falling back from a native click to a scripted
// one.
func (it *Interactor) Click(ctx context.Context, loc Locator) (bool, error) {
	sel := loc.Selector()

	ok, err := it.retry(ctx, func() error {
		if err := it.page.ScrollIntoView(ctx, sel); err != nil {
			return err
		}
		return it.page.Click(ctx, sel)
	})
	if err != nil || ok {
		return ok, err
	}

	// Scripted fallback.
	script := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) { throw new Error('not found'); }
		el.click();
		return true;
	})()`, jsResolveExpr(sel))
	var res bool
	if err := it.page.Evaluate(ctx, script, &res); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		it.logger.Warn("Click exhausted all strategies.", zap.String("locator", loc.String()))
		return false, nil
	}
	return true, nil
}

// jsResolveExpr yields a JS expression resolving a selector (CSS or XPath)
// to an element.
func jsResolveExpr(selector string) string {
	quoted := strconv.Quote(selector)
	if strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, "(") {
		return fmt.Sprintf(
			`document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`,
			quoted)
	}
	return fmt.Sprintf(`document.querySelector(%s)`, quoted)
}
