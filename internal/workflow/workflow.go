// internal/workflow/workflow.go
//
// Package workflow drives one case record through the portal's screen
// sequence. The walk is forward-only: every transition is followed by a
// checkpoint classification, and the first failed checkpoint ends the run
// through the failure protocol. There is no back-navigation and no retry of
// a submitted screen.
package workflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"formpilot/api/schemas"
	"formpilot/internal/capture"
	"formpilot/internal/classify"
	"formpilot/internal/config"
	"formpilot/internal/interact"
)

// CaptureFactory builds the artifact pipeline for one run. The returned
// cleanup tears down whatever staging the pipeline needed.
type CaptureFactory func(runID string) (*capture.Pipeline, func(), error)

// Engine owns the full run lifecycle for a single browser handle.
type Engine struct {
	page       schemas.PagePrimitives
	it         *interact.Interactor
	classifier *classify.Classifier
	completion *classify.CompletionExtractor
	captureFor CaptureFactory
	storage    schemas.StorageGateway
	notify     schemas.NotificationGateway
	store      schemas.RunStore
	cfg        *config.Config
	bindings   map[string]config.ScreenBindings
	logger     *zap.Logger
}

// NewEngine wires an engine from its collaborators. store may be nil when no
// run ledger is configured.
func NewEngine(page schemas.PagePrimitives, cfg *config.Config, storage schemas.StorageGateway, notify schemas.NotificationGateway, store schemas.RunStore, captureFor CaptureFactory, logger *zap.Logger) *Engine {
	bindings := cfg.Portal.Screens
	if len(bindings) == 0 {
		bindings = config.DefaultScreenBindings()
	}

	it := interact.New(page, logger, cfg.Portal.RetryAttempts, cfg.Portal.RetryBackoff)
	panelSel := interact.FromBinding(bindings[config.ScreenCommon]["error_panel"]).Selector()
	extractor := classify.NewExtractor(page, logger, panelSel)

	return &Engine{
		page:       page,
		it:         it,
		classifier: classify.NewClassifier(page, extractor, logger, cfg.Portal.SettleDelay),
		completion: classify.NewCompletionExtractor(page, logger),
		captureFor: captureFor,
		storage:    storage,
		notify:     notify,
		store:      store,
		cfg:        cfg,
		bindings:   bindings,
		logger:     logger.Named("workflow"),
	}
}

// Run executes the full submission for one record. A portal rejection is a
// successful call returning an unsuccessful result; the error return is
// reserved for context cancellation. Panics anywhere in the machinery are
// caught here, once, and converted into a structured failure.
func (e *Engine) Run(ctx context.Context, record *schemas.CaseRecord) (result *schemas.RunResult, err error) {
	rc := newRunContext(record, e.logger)
	defer rc.Cleanup()

	defer func() {
		if r := recover(); r != nil {
			infra := &schemas.InfrastructureError{Op: "workflow run", Err: fmt.Errorf("panic: %v", r)}
			rc.logger.Error("Run panicked; converting to structured failure.", zap.Any("panic", r))
			result = e.finishError(ctx, rc, "unknown", infra)
			err = nil
		}
	}()

	rc.logger.Info("Starting submission run.", zap.String("entity", record.LegalName))

	if navErr := e.page.Navigate(ctx, e.cfg.Portal.StartURL); navErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return e.finishError(ctx, rc, "start", &schemas.InfrastructureError{Op: "navigate", Err: navErr}), nil
	}
	rc.Log("navigate", e.cfg.Portal.StartURL)

	if clickErr := e.advance(ctx, rc, "begin"); clickErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return e.finishError(ctx, rc, "start", clickErr), nil
	}

	steps := []struct {
		screen string
		fn     func(context.Context, *runContext) error
	}{
		{config.ScreenEntityClass, e.fillEntityClassification},
		{config.ScreenSubType, e.fillSubType},
		{config.ScreenParty, e.fillResponsibleParty},
		{config.ScreenAddress, e.fillAddress},
		{config.ScreenBusiness, e.fillBusinessDetails},
		{config.ScreenActivity, e.fillActivity},
		{config.ScreenReview, e.submitReview},
	}

	for _, s := range steps {
		if stepErr := s.fn(ctx, rc); stepErr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return e.finishError(ctx, rc, s.screen, stepErr), nil
		}

		cls, checkErr := e.classifier.Check(ctx)
		if checkErr != nil {
			return nil, checkErr
		}
		if cls.Failed() {
			return e.finishFailure(ctx, rc, s.screen, cls), nil
		}
		rc.Log("screen:"+s.screen, "ok")
	}

	return e.finishSuccess(ctx, rc), nil
}

// advance presses one of the common navigation controls.
func (e *Engine) advance(ctx context.Context, rc *runContext, key string) error {
	loc := e.loc(config.ScreenCommon, key)
	ok, err := e.it.Click(ctx, loc)
	if err != nil {
		return err
	}
	if !ok {
		return &schemas.InteractionError{Field: key, Locator: loc.String()}
	}
	return nil
}

// loc resolves a screen/field pair from the binding table.
func (e *Engine) loc(screen, field string) interact.Locator {
	return interact.FromBinding(e.bindings[screen][field])
}

// radioLoc resolves a radio group binding to the member carrying the given
// value. Name-based bindings address the group; the value picks the member.
func (e *Engine) radioLoc(screen, field, value string) interact.Locator {
	b := e.bindings[screen][field]
	if b.By == "name" {
		return interact.Locator{
			By:    interact.ByCSS,
			Value: fmt.Sprintf(`input[name=%q][value=%q]`, b.Value, value),
		}
	}
	return interact.FromBinding(b)
}

// mustSetText fills a required text field; exhaustion (or missing required
// data) is fatal for the run.
func (e *Engine) mustSetText(ctx context.Context, screen, field, value string) error {
	loc := e.loc(screen, field)
	ok, err := e.it.SetText(ctx, loc, value)
	if err != nil {
		return err
	}
	if !ok {
		return &schemas.InteractionError{Field: field, Locator: loc.String()}
	}
	return nil
}

// setTextOptional fills a field that may legitimately be absent from the
// record or the page. Exhaustion is logged and the walk continues.
func (e *Engine) setTextOptional(ctx context.Context, rc *runContext, screen, field, value string) error {
	loc := e.loc(screen, field)
	ok, err := e.it.SetText(ctx, loc, value)
	if err != nil {
		return err
	}
	if !ok && value != "" {
		rc.logger.Warn("Optional field could not be filled.", zap.String("field", field))
		rc.Log("skip:"+field, "unfilled")
	}
	return nil
}

// mustSelect resolves a required dropdown.
func (e *Engine) mustSelect(ctx context.Context, screen, field, value string) error {
	loc := e.loc(screen, field)
	ok, err := e.it.Select(ctx, loc, value)
	if err != nil {
		return err
	}
	if !ok {
		return &schemas.InteractionError{Field: field, Locator: loc.String()}
	}
	return nil
}

// selectOptional resolves a dropdown the record may not populate.
func (e *Engine) selectOptional(ctx context.Context, rc *runContext, screen, field, value string) error {
	loc := e.loc(screen, field)
	ok, err := e.it.Select(ctx, loc, value)
	if err != nil {
		return err
	}
	if !ok && value != "" {
		rc.logger.Warn("Optional dropdown could not be resolved.",
			zap.String("field", field), zap.String("value", value))
		rc.Log("skip:"+field, value)
	}
	return nil
}

// saveRun persists the outcome to the run ledger when one is configured.
func (e *Engine) saveRun(ctx context.Context, rc *runContext, result *schemas.RunResult) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveRun(ctx, result, rc.startedAt, time.Now()); err != nil {
		rc.logger.Warn("Could not persist run outcome.", zap.Error(err))
	}
}
