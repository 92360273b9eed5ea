// internal/workflow/failure.go
package workflow

import (
	"context"

	"go.uber.org/zap"

	"formpilot/api/schemas"
	"formpilot/internal/capture"
	"formpilot/internal/config"
)

// finishSuccess closes out a run that walked every screen cleanly: pull the
// completion number, capture the confirmation artifact, persist, notify. A
// confirmation page without a completion number is not a success; it routes
// through the failure protocol so the evidence is captured and the failure
// notification goes out.
func (e *Engine) finishSuccess(ctx context.Context, rc *runContext) *schemas.RunResult {
	number, err := e.completion.Find(ctx)
	if err != nil {
		rc.logger.Warn("Completion number lookup interrupted.", zap.Error(err))
	}
	if number == "" {
		rc.logger.Warn("Confirmation page yielded no completion number; invoking failure protocol.")
		cls := schemas.Classification{
			Class:   schemas.ClassificationUnknown,
			Message: "confirmation page yielded no completion number",
		}
		return e.finishUnsuccessful(ctx, rc, config.ScreenConfirmation, cls, "fail")
	}
	rc.Log("completion_number", number)

	result := &schemas.RunResult{
		RunID:            rc.runID,
		RecordID:         rc.record.RecordID,
		Success:          true,
		CompletionNumber: number,
		Classification:   schemas.ClassificationNone,
	}

	if desc := e.captureAndPersist(ctx, rc, rc.record.RecordID+"-confirmation", true); desc != nil {
		result.Artifacts = append(result.Artifacts, *desc)
	}

	if e.notify != nil {
		e.notify.NotifySuccess(ctx, rc.record.RecordID, number)
	}

	e.uploadLog(ctx, rc, result)
	e.saveRun(ctx, rc, result)
	rc.logger.Info("Run complete.", zap.String("completion_number", number))
	return result
}

// finishFailure runs the failure protocol for a classified portal
// rejection: record the detail, capture the page as evidence, notify, and
// return the structured result.
func (e *Engine) finishFailure(ctx context.Context, rc *runContext, screen string, cls schemas.Classification) *schemas.RunResult {
	return e.finishUnsuccessful(ctx, rc, screen, cls, "fail")
}

// finishError converts a fatal machinery fault into the same structured
// shape, classified unknown.
func (e *Engine) finishError(ctx context.Context, rc *runContext, screen string, err error) *schemas.RunResult {
	rc.logger.Error("Run aborted by machinery fault.", zap.String("screen", screen), zap.Error(err))
	cls := schemas.Classification{
		Class:   schemas.ClassificationUnknown,
		Message: err.Error(),
	}
	return e.finishUnsuccessful(ctx, rc, screen, cls, "error")
}

func (e *Engine) finishUnsuccessful(ctx context.Context, rc *runContext, screen string, cls schemas.Classification, status string) *schemas.RunResult {
	rc.Log("failed_screen", screen)
	rc.Log("classification", string(cls.Class))
	if cls.Code != "" {
		rc.Log("failure_code", cls.Code)
	}
	if cls.Message != "" {
		rc.Log("failure_message", cls.Message)
	}

	// Downstream consumers key off the code; when no reference number was
	// extracted the sentinel "fail" stands in.
	code := cls.Code
	if code == "" {
		code = "fail"
	}

	diagnostic := map[string]string{
		"screen":         screen,
		"classification": string(cls.Class),
		"code":           code,
		"message":        cls.Message,
	}
	if url, err := e.page.CurrentURL(ctx); err == nil {
		diagnostic["url"] = url
	}

	result := &schemas.RunResult{
		RunID:          rc.runID,
		RecordID:       rc.record.RecordID,
		Success:        false,
		Classification: cls.Class,
		FailureCode:    cls.Code,
		FailureMessage: cls.Message,
	}

	// Evidence: the failing page itself, never client visible.
	if desc := e.captureAndPersist(ctx, rc, rc.record.RecordID+"-failure", false); desc != nil {
		result.Artifacts = append(result.Artifacts, *desc)
	}
	if e.storage != nil {
		if text, err := e.page.PageText(ctx); err == nil && text != "" {
			if url, err := e.storage.UploadDiagnosticLog(ctx, rc.record.RecordID, []byte(text)); err == nil {
				diagnostic["diagnostic_url"] = url
			}
		}
	}

	if e.notify != nil {
		e.notify.NotifyFailure(ctx, rc.record.RecordID, code, status, diagnostic)
	}

	e.uploadLog(ctx, rc, result)
	e.saveRun(ctx, rc, result)
	rc.logger.Info("Run finished unsuccessfully.",
		zap.String("screen", screen),
		zap.String("classification", string(cls.Class)),
		zap.String("code", cls.Code))
	return result
}

// captureAndPersist runs the artifact pipeline and uploads whatever it
// produced. clientVisible applies only when the payload validated; invalid
// payloads are always demoted to diagnostics. A missing artifact is never
// fatal: the recovery log and the attempt trail still tell the story.
func (e *Engine) captureAndPersist(ctx context.Context, rc *runContext, logicalName string, clientVisible bool) *schemas.ArtifactDescriptor {
	if e.captureFor == nil {
		return nil
	}
	pipeline, cleanup, err := e.captureFor(rc.runID)
	if err != nil {
		rc.logger.Warn("Capture pipeline unavailable.", zap.Error(err))
		return nil
	}
	if cleanup != nil {
		rc.AddCleanup(cleanup)
	}

	job := &capture.Job{
		RunID:       rc.runID,
		RecordID:    rc.record.RecordID,
		EntityName:  rc.record.LegalName,
		LogicalName: logicalName,
	}
	res, attempts, err := pipeline.Run(ctx, job)
	for _, a := range attempts {
		v := "ok"
		if a.Error != "" {
			v = a.Error
		}
		rc.Log("capture:"+a.Strategy, v)
	}
	if err != nil {
		rc.logger.Warn("No artifact captured.", zap.Error(err))
		return nil
	}

	desc := &schemas.ArtifactDescriptor{
		LogicalName:   logicalName,
		RecordID:      rc.record.RecordID,
		ContentType:   "application/pdf",
		ClientVisible: clientVisible && res.Valid,
		Payload:       res.Data,
	}
	if rc.record.OpportunityID != "" {
		desc.ExternalIDs = map[string]string{"opportunity_id": rc.record.OpportunityID}
	}
	if !res.Valid {
		desc.ContentType = "application/octet-stream"
		desc.LogicalName = logicalName + "-" + res.Strategy
	}

	if e.storage != nil {
		url, err := e.storage.UploadArtifact(ctx, *desc)
		if err != nil {
			// Bytes already sit in the recovery log; report and move on.
			rc.logger.Warn("Artifact upload failed.", zap.Error(err))
			rc.Log("artifact_upload", err.Error())
		} else {
			rc.Log("artifact_url", url)
			if e.notify != nil {
				e.notify.NotifyArtifactAvailable(ctx, rc.record.RecordID, url, desc.ClientVisible)
			}
		}
	}
	return desc
}

// uploadLog attaches the ordered run log to the result and ships a copy to
// storage.
func (e *Engine) uploadLog(ctx context.Context, rc *runContext, result *schemas.RunResult) {
	result.Log = rc.Entries()
	if e.storage == nil {
		return
	}
	if err := e.storage.UploadStructuredLog(ctx, rc.record.RecordID, result.Log); err != nil {
		rc.logger.Warn("Structured log upload failed.", zap.Error(err))
	}
}
