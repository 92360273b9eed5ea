// internal/interact/select.go
package interact

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"formpilot/api/schemas"
)

// Select resolves a dropdown choice against the control's live option list.
// Matching priority, first hit wins:
//
//  1. exact value attribute
//  2. exact visible text
//  3. case-insensitive text
//  4. substring of text or value
//  5. month expansion, when the input parses as an integer 1..12
//
// Inputs that match nothing fail closed (false, nil).
func (it *Interactor) Select(ctx context.Context, loc Locator, value string) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		it.logger.Debug("Skipping empty select.", zap.String("locator", loc.String()))
		return false, nil
	}

	sel := loc.Selector()
	options, err := it.page.Options(ctx, sel)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		it.logger.Warn("Could not list dropdown options.", zap.String("locator", loc.String()), zap.Error(err))
		return false, nil
	}

	target, found := matchOption(options, value)
	if !found {
		it.logger.Warn("No dropdown option matched.",
			zap.String("locator", loc.String()), zap.String("requested", value))
		return false, nil
	}

	ok, err := it.retry(ctx, func() error {
		return it.page.SelectValue(ctx, sel, target.Value)
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

// matchOption applies the resolution priority to a concrete option list.
func matchOption(options []schemas.SelectOption, input string) (schemas.SelectOption, bool) {
	// 1. Exact value match.
	for _, o := range options {
		if o.Value == input {
			return o, true
		}
	}
	// 2. Exact visible text.
	for _, o := range options {
		if strings.TrimSpace(o.Text) == input {
			return o, true
		}
	}
	// 3. Case-insensitive text.
	for _, o := range options {
		if strings.EqualFold(strings.TrimSpace(o.Text), input) {
			return o, true
		}
	}
	// 4. Substring on text or value. Purely numeric inputs are excluded:
	// "0" must not select "10".
	if !isNumeric(input) {
		lower := strings.ToLower(input)
		for _, o := range options {
			if strings.Contains(strings.ToLower(o.Text), lower) ||
				strings.Contains(strings.ToLower(o.Value), lower) {
				return o, true
			}
		}
	}
	// 5. Month expansion.
	for _, candidate := range monthCandidates(input) {
		for _, o := range options {
			if strings.EqualFold(o.Value, candidate) ||
				strings.EqualFold(strings.TrimSpace(o.Text), candidate) {
				return o, true
			}
		}
	}
	return schemas.SelectOption{}, false
}

// monthCandidates expands an input into the month spellings portals use:
// full name, three-letter abbreviation, bare number, and zero-padded
// number. Inputs outside 1..12 (and non-month text) yield nothing, so month
// resolution fails closed.
func monthCandidates(input string) []string {
	m, ok := parseMonth(input)
	if !ok {
		return nil
	}
	name := time.Month(m).String()
	return []string{
		name,
		name[:3],
		strconv.Itoa(m),
		zeroPad(m),
	}
}

// parseMonth accepts "8", "08", "August", "AUG" and the like.
func parseMonth(input string) (int, bool) {
	if n, err := strconv.Atoi(strings.TrimSpace(input)); err == nil {
		if n >= 1 && n <= 12 {
			return n, true
		}
		return 0, false
	}
	trimmed := strings.TrimSpace(input)
	for m := time.January; m <= time.December; m++ {
		name := m.String()
		if strings.EqualFold(trimmed, name) || strings.EqualFold(trimmed, name[:3]) {
			return int(m), true
		}
	}
	return 0, false
}

func isNumeric(s string) bool {
	_, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil
}

func zeroPad(m int) string {
	if m < 10 {
		return "0" + strconv.Itoa(m)
	}
	return strconv.Itoa(m)
}
