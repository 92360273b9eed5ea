// internal/interact/interactor_test.go
package interact

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"formpilot/api/schemas"
)

func newTestInteractor(page schemas.PagePrimitives) *Interactor {
	return New(page, zap.NewNop(), 2, time.Millisecond)
}

func TestSetText(t *testing.T) {
	loc := Locator{By: ByID, Value: "city"}
	sel := loc.Selector()

	t.Run("fills after clear", func(t *testing.T) {
		page := newFakePage()
		it := newTestInteractor(page)

		ok, err := it.SetText(context.Background(), loc, "Sacramento")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "Sacramento", page.typed[sel])
		assert.Equal(t, []string{sel}, page.clearCalls)
	})

	t.Run("empty value is a skip, not an attempt", func(t *testing.T) {
		page := newFakePage()
		it := newTestInteractor(page)

		for _, v := range []string{"", "   ", "\t\n"} {
			ok, err := it.SetText(context.Background(), loc, v)
			require.NoError(t, err)
			assert.False(t, ok)
		}
		assert.Empty(t, page.clearCalls, "skip must not touch the page")
		assert.Empty(t, page.sendKeysCalls)
	})

	t.Run("cancellation surfaces as error", func(t *testing.T) {
		page := newFakePage()
		it := newTestInteractor(page)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := it.SetText(ctx, loc, "value")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCheckExclusiveFallbackChain(t *testing.T) {
	loc := Locator{By: ByID, Value: "limitedRadio"}
	sel := loc.Selector()
	labelSel := fmt.Sprintf(`label[for=%q]`, loc.Value)

	t.Run("scripted set wins first", func(t *testing.T) {
		page := newFakePage()
		it := newTestInteractor(page)

		ok, err := it.CheckExclusive(context.Background(), loc)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, page.checked[sel])
		assert.Empty(t, page.clickCalls, "no click strategy should run when scripting works")
	})

	t.Run("falls through to direct click", func(t *testing.T) {
		page := newFakePage()
		page.failScripted[sel] = true
		it := newTestInteractor(page)

		ok, err := it.CheckExclusive(context.Background(), loc)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Contains(t, page.clickCalls, sel)
	})

	t.Run("falls through to label click", func(t *testing.T) {
		page := newFakePage()
		page.failScripted[sel] = true
		page.failClick[sel] = true
		page.clickSets[labelSel] = sel
		it := newTestInteractor(page)

		ok, err := it.CheckExclusive(context.Background(), loc)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Contains(t, page.clickCalls, labelSel)
	})

	t.Run("falls through to container click", func(t *testing.T) {
		page := newFakePage()
		page.failScripted[sel] = true
		page.failClick[sel] = true
		page.failClick[labelSel] = true
		page.containerOK[sel] = true
		it := newTestInteractor(page)

		ok, err := it.CheckExclusive(context.Background(), loc)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("alternate lookup is the last resort", func(t *testing.T) {
		page := newFakePage()
		altSel := fmt.Sprintf(`input[name=%q]`, loc.Value)
		page.failScripted[sel] = true
		page.failClick[sel] = true
		page.failClick[labelSel] = true
		page.existing[altSel] = true
		page.clickSets[altSel] = sel
		it := newTestInteractor(page)

		ok, err := it.CheckExclusive(context.Background(), loc)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Contains(t, page.clickCalls, altSel)
	})

	t.Run("total exhaustion returns false without error", func(t *testing.T) {
		page := newFakePage()
		page.failScripted[sel] = true
		page.failClick[sel] = true
		page.failClick[labelSel] = true
		it := newTestInteractor(page)

		ok, err := it.CheckExclusive(context.Background(), loc)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestSelectResolution(t *testing.T) {
	loc := Locator{By: ByID, Value: "fiscalMonth"}
	sel := loc.Selector()

	monthOptions := []schemas.SelectOption{
		{Value: "0", Text: "-- select --"},
		{Value: "1", Text: "January"}, {Value: "2", Text: "February"},
		{Value: "3", Text: "March"}, {Value: "4", Text: "April"},
		{Value: "5", Text: "May"}, {Value: "6", Text: "June"},
		{Value: "7", Text: "July"}, {Value: "8", Text: "August"},
		{Value: "9", Text: "September"}, {Value: "10", Text: "October"},
		{Value: "11", Text: "November"}, {Value: "12", Text: "December"},
	}

	t.Run("all august spellings resolve to the same option", func(t *testing.T) {
		for _, input := range []string{"8", "08", "August", "AUG", "aug"} {
			page := newFakePage()
			page.options[sel] = monthOptions
			it := newTestInteractor(page)

			ok, err := it.Select(context.Background(), loc, input)
			require.NoError(t, err, "input %q", input)
			assert.True(t, ok, "input %q", input)
			assert.Equal(t, "8", page.selected[sel], "input %q", input)
		}
	})

	t.Run("out of range and non-month inputs fail closed", func(t *testing.T) {
		for _, input := range []string{"13", "-1", "Octember"} {
			page := newFakePage()
			page.options[sel] = monthOptions[1:] // no placeholder, avoids accidental matches
			it := newTestInteractor(page)

			ok, err := it.Select(context.Background(), loc, input)
			require.NoError(t, err, "input %q", input)
			assert.False(t, ok, "input %q must not select anything", input)
			assert.Empty(t, page.selected[sel])
		}
	})

	t.Run("numeric input never substring-matches", func(t *testing.T) {
		page := newFakePage()
		page.options[sel] = monthOptions[1:]
		it := newTestInteractor(page)

		// "0" is a substring of value "10"; it must still fail closed.
		ok, err := it.Select(context.Background(), loc, "0")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("priority order: exact value beats text substring", func(t *testing.T) {
		page := newFakePage()
		page.options[sel] = []schemas.SelectOption{
			{Value: "CA", Text: "California"},
			{Value: "CAL", Text: "CA Republic"},
		}
		it := newTestInteractor(page)

		ok, err := it.Select(context.Background(), loc, "CA")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "CA", page.selected[sel])
	})

	t.Run("case-insensitive text match", func(t *testing.T) {
		page := newFakePage()
		page.options[sel] = []schemas.SelectOption{{Value: "v1", Text: "Revocable Trust"}}
		it := newTestInteractor(page)

		ok, err := it.Select(context.Background(), loc, "revocable trust")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v1", page.selected[sel])
	})
}

func TestLocatorSelectors(t *testing.T) {
	tests := []struct {
		loc  Locator
		want string
	}{
		{Locator{By: ByID, Value: "physicalAddressCity"}, `[id="physicalAddressCity"]`},
		{Locator{By: ByName, Value: "subTypeRadio"}, `[name="subTypeRadio"]`},
		{Locator{By: ByCSS, Value: "div.errorPanel"}, `div.errorPanel`},
		{Locator{By: ByXPath, Value: "//td[1]"}, `//td[1]`},
		{Locator{By: ByLabel, Value: "Limited Liability Company"}, `//label[contains(normalize-space(.), 'Limited Liability Company')]`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.loc.Selector())
	}
}
