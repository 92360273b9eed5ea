// api/schemas/interfaces.go
package schemas

import (
	"context"
	"time"
)

// SelectOption is one entry of a <select> control as seen on the live page.
type SelectOption struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// PagePrimitives is the abstract browser-control capability the core
// consumes. The production implementation drives a Chrome tab over CDP;
// tests substitute a scripted fake. Implementations are not safe for
// concurrent use: exactly one workflow run owns a handle at a time.
//
// Every method must honor ctx cancellation and return promptly once the
// context is done; no method may block indefinitely.
type PagePrimitives interface {
	// Navigate loads the URL and waits for the page to settle.
	Navigate(ctx context.Context, url string) error
	// CurrentURL returns the location of the current document.
	CurrentURL(ctx context.Context) (string, error)

	// WaitVisible blocks until the selector matches a visible element.
	WaitVisible(ctx context.Context, selector string) error
	// Exists reports whether the selector matches at least one element.
	Exists(ctx context.Context, selector string) (bool, error)

	Click(ctx context.Context, selector string) error
	ScrollIntoView(ctx context.Context, selector string) error
	Clear(ctx context.Context, selector string) error
	SendKeys(ctx context.Context, selector, text string) error
	SetValue(ctx context.Context, selector, value string) error

	// Options lists the entries of a select control.
	Options(ctx context.Context, selector string) ([]SelectOption, error)
	// SelectValue picks the option whose value attribute equals value.
	SelectValue(ctx context.Context, selector, value string) error

	// Text returns the visible text of the first match.
	Text(ctx context.Context, selector string) (string, error)
	// PageText returns the full visible text of the document body.
	PageText(ctx context.Context) (string, error)
	// HTML returns the serialized markup of the current document.
	HTML(ctx context.Context) (string, error)

	// Evaluate runs a script in the page and optionally unmarshals the
	// result into res.
	Evaluate(ctx context.Context, script string, res any) error

	// PrintToPDF renders the current page to document bytes using the
	// browser's native printing path, without any user dialog.
	PrintToPDF(ctx context.Context) ([]byte, error)

	// Close tears the handle down. Safe to call more than once.
	Close(ctx context.Context) error
}

// StorageGateway is the object-storage collaborator. Implementations must
// tolerate unreachability: a failed upload is reported through the error
// return but never loses data already written to the recovery log.
type StorageGateway interface {
	UploadArtifact(ctx context.Context, artifact ArtifactDescriptor) (url string, err error)
	UploadStructuredLog(ctx context.Context, recordID string, entries []LogEntry) error
	UploadDiagnosticLog(ctx context.Context, recordID string, text []byte) (url string, err error)
}

// NotificationGateway is the CRM-style collaborator. All calls are best
// effort; implementations log failures and never escalate them.
type NotificationGateway interface {
	NotifySuccess(ctx context.Context, recordID, completionNumber string)
	NotifyFailure(ctx context.Context, recordID, code, status string, diagnostic map[string]string)
	NotifyArtifactAvailable(ctx context.Context, recordID, url string, clientVisible bool)
}

// RunStore persists run outcomes for later inspection. Optional: a nil or
// disabled store is skipped by the caller.
type RunStore interface {
	SaveRun(ctx context.Context, result *RunResult, startedAt, finishedAt time.Time) error
}
