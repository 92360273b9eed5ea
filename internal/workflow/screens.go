// internal/workflow/screens.go
package workflow

import (
	"context"
	"strconv"
	"strings"

	"formpilot/api/schemas"
	"formpilot/internal/config"
)

func (e *Engine) fillEntityClassification(ctx context.Context, rc *runContext) error {
	cat, err := Categorize(rc.record)
	if err != nil {
		return err
	}
	rc.Log("entity_category", string(cat))

	loc := e.loc(config.ScreenEntityClass, string(cat))
	ok, err := e.it.CheckExclusive(ctx, loc)
	if err != nil {
		return err
	}
	if !ok {
		return &schemas.InteractionError{Field: string(cat), Locator: loc.String()}
	}
	return e.advance(ctx, rc, "continue")
}

// fillSubType handles the branch-specific screen that follows the
// classification. Sole proprietors, partnerships, and the "other" branch
// skip it entirely.
func (e *Engine) fillSubType(ctx context.Context, rc *runContext) error {
	cat, err := Categorize(rc.record)
	if err != nil {
		return err
	}

	switch cat {
	case schemas.CategoryLLC:
		return e.fillLLCSubType(ctx, rc)

	case schemas.CategoryCorporation:
		sub := CorpSubType(rc.record.EntityType)
		rc.Log("corp_sub_type", sub)
		loc := e.radioLoc(config.ScreenSubType, "sub_type_prefix", sub)
		ok, err := e.it.CheckExclusive(ctx, loc)
		if err != nil {
			return err
		}
		if !ok {
			return &schemas.InteractionError{Field: "sub_type", Locator: loc.String()}
		}
		if err := e.advance(ctx, rc, "continue"); err != nil {
			return err
		}
		return e.chooseFiling(ctx, rc, sub)

	case schemas.CategoryTrust:
		sub := TrustSubType(rc.record.TrustType)
		rc.Log("trust_sub_type", sub)
		loc := e.radioLoc(config.ScreenSubType, "sub_type_prefix", sub)
		ok, err := e.it.CheckExclusive(ctx, loc)
		if err != nil {
			return err
		}
		if !ok {
			return &schemas.InteractionError{Field: "trust_sub_type", Locator: loc.String()}
		}
		return e.advance(ctx, rc, "continue")

	default:
		return nil
	}
}

// fillLLCSubType fills member count and state. Two-member LLCs in
// community-property states get the extra joint-election screen.
func (e *Engine) fillLLCSubType(ctx context.Context, rc *runContext) error {
	count := rc.record.NumberOfMembers
	if count < 1 {
		count = 1
	}
	rc.Log("llc_members", strconv.Itoa(count))

	if err := e.mustSetText(ctx, config.ScreenSubType, "member_count", strconv.Itoa(count)); err != nil {
		return err
	}
	if err := e.mustSelect(ctx, config.ScreenSubType, "member_state", StateAbbrev(rc.record.EntityState)); err != nil {
		return err
	}
	if err := e.advance(ctx, rc, "continue"); err != nil {
		return err
	}

	if count == 2 && IsCommunityPropertyState(rc.record.EntityState) {
		rc.Log("llc_community_property", "true")
		loc := e.loc(config.ScreenSubType, "multi_member")
		ok, err := e.it.CheckExclusive(ctx, loc)
		if err != nil {
			return err
		}
		if !ok {
			rc.logger.Warn("Joint-election radio could not be set, leaving portal default.")
		}
		return e.advance(ctx, rc, "continue")
	}
	return nil
}

// chooseFiling answers the filing-election screen when the portal shows
// one. Absence of the control is normal for most branches.
func (e *Engine) chooseFiling(ctx context.Context, rc *runContext, sub string) error {
	loc := e.radioLoc(config.ScreenSubType, "filing_selection", sub)
	found, err := e.page.Exists(ctx, loc.Selector())
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}
	if !found {
		return nil
	}
	if ok, err := e.it.CheckExclusive(ctx, loc); err != nil {
		return err
	} else if ok {
		rc.Log("filing_selection", sub)
		return e.advance(ctx, rc, "continue")
	}
	return nil
}

func (e *Engine) fillResponsibleParty(ctx context.Context, rc *runContext) error {
	screen := config.ScreenParty
	if err := e.mustSetText(ctx, screen, "first_name", CleanText(rc.record.FirstName)); err != nil {
		return err
	}
	if err := e.setTextOptional(ctx, rc, screen, "middle_name", CleanText(rc.record.MiddleName)); err != nil {
		return err
	}
	if err := e.mustSetText(ctx, screen, "last_name", CleanText(rc.record.LastName)); err != nil {
		return err
	}
	if err := e.setTextOptional(ctx, rc, screen, "suffix", rc.record.Suffix); err != nil {
		return err
	}
	if err := e.mustSetText(ctx, screen, "ssn", DigitsOnly(rc.record.SSN)); err != nil {
		return err
	}

	// The ownership radio is present on most branches; best effort elsewhere.
	if ok, err := e.it.CheckExclusive(ctx, e.loc(screen, "i_am_owner")); err != nil {
		return err
	} else if !ok {
		rc.logger.Debug("Ownership radio not set on this branch.")
	}
	return e.advance(ctx, rc, "continue")
}

func (e *Engine) fillAddress(ctx context.Context, rc *runContext) error {
	screen := config.ScreenAddress
	if err := e.mustSetText(ctx, screen, "street", CleanText(rc.record.Street)); err != nil {
		return err
	}
	if err := e.mustSetText(ctx, screen, "city", CleanText(rc.record.City)); err != nil {
		return err
	}
	if err := e.mustSelect(ctx, screen, "state", StateAbbrev(rc.record.State)); err != nil {
		return err
	}
	if err := e.mustSetText(ctx, screen, "zip", ZipFirst5(rc.record.Zip)); err != nil {
		return err
	}
	if err := e.setTextOptional(ctx, rc, screen, "phone", DigitsOnly(rc.record.Phone)); err != nil {
		return err
	}
	return e.advance(ctx, rc, "continue")
}

func (e *Engine) fillBusinessDetails(ctx context.Context, rc *runContext) error {
	screen := config.ScreenBusiness
	legal := CleanText(rc.record.LegalName)
	if err := e.mustSetText(ctx, screen, "legal_name", legal); err != nil {
		return err
	}

	// A trade name identical to the legal name trips the portal's own
	// validation; drop it.
	trade := CleanText(rc.record.TradeName)
	if strings.EqualFold(trade, legal) {
		trade = ""
	}
	if err := e.setTextOptional(ctx, rc, screen, "trade_name", trade); err != nil {
		return err
	}

	if err := e.setTextOptional(ctx, rc, screen, "county", CleanText(rc.record.County)); err != nil {
		return err
	}
	if err := e.mustSelect(ctx, screen, "state", StateAbbrev(rc.record.EntityState)); err != nil {
		return err
	}
	if err := e.selectOptional(ctx, rc, screen, "filing_state", StateAbbrev(rc.record.EntityState)); err != nil {
		return err
	}

	month, year := SplitFormationDate(rc.record.FormationDate)
	if err := e.selectOptional(ctx, rc, screen, "start_month", month); err != nil {
		return err
	}
	if err := e.selectOptional(ctx, rc, screen, "start_year", year); err != nil {
		return err
	}
	if err := e.selectOptional(ctx, rc, screen, "closing_month", rc.record.ClosingMonth); err != nil {
		return err
	}
	return e.advance(ctx, rc, "continue")
}

func (e *Engine) fillActivity(ctx context.Context, rc *runContext) error {
	screen := config.ScreenActivity
	answers := []struct {
		base string
		val  bool
	}{
		{"employees", rc.record.HasEmployees},
		{"highway", rc.record.HighwayVehicle},
		{"gambling", rc.record.Gambling},
		{"atf", rc.record.ATFExcise},
	}
	for _, a := range answers {
		key := a.base + "_no"
		if a.val {
			key = a.base + "_yes"
		}
		loc := e.loc(screen, key)
		ok, err := e.it.CheckExclusive(ctx, loc)
		if err != nil {
			return err
		}
		if !ok {
			return &schemas.InteractionError{Field: key, Locator: loc.String()}
		}
	}

	category := strings.ToLower(CleanText(rc.record.ActivityCategory))
	if category == "" {
		category = "other"
	}
	loc := e.radioLoc(screen, "category", category)
	ok, err := e.it.CheckExclusive(ctx, loc)
	if err != nil {
		return err
	}
	if !ok && category != "other" {
		// Unrecognized category: fall back to the catch-all branch.
		rc.Log("activity_fallback", category)
		category = "other"
		loc = e.radioLoc(screen, "category", category)
		if ok, err = e.it.CheckExclusive(ctx, loc); err != nil {
			return err
		}
	}
	if !ok {
		return &schemas.InteractionError{Field: "activity_category", Locator: loc.String()}
	}
	rc.Log("activity_category", category)

	if category == "other" {
		detail := CleanText(rc.record.ActivityDetail)
		if detail == "" {
			detail = CleanText(rc.record.ActivityCategory)
		}
		if detail == "" {
			detail = CleanText(rc.record.EntityDescription)
		}
		if err := e.mustSetText(ctx, screen, "detail", detail); err != nil {
			return err
		}
	}
	return e.advance(ctx, rc, "continue")
}

// submitReview elects online delivery of the confirmation document and
// submits the application.
func (e *Engine) submitReview(ctx context.Context, rc *runContext) error {
	screen := config.ScreenReview
	if ok, err := e.it.CheckExclusive(ctx, e.loc(screen, "receive_online")); err != nil {
		return err
	} else if !ok {
		rc.logger.Warn("Online-delivery radio could not be set; confirmation may arrive by mail.")
		rc.Log("receive_online", "unset")
	}

	loc := e.loc(screen, "submit")
	ok, err := e.it.Click(ctx, loc)
	if err != nil {
		return err
	}
	if !ok {
		return &schemas.InteractionError{Field: "submit", Locator: loc.String()}
	}
	rc.Log("submitted", "true")
	return nil
}
