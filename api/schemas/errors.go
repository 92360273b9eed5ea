// api/schemas/errors.go
package schemas

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the workflow packages.
var (
	// ErrCaptureExhausted means every capture strategy returned empty. It is
	// distinct from overall run failure: a completion number may still have
	// been extracted even though no artifact was obtained.
	ErrCaptureExhausted = errors.New("all capture strategies returned empty")
	// ErrSkipped marks a field fill that was intentionally not attempted
	// because the requested value was empty.
	ErrSkipped = errors.New("fill skipped: empty value")
)

// InfrastructureError wraps a fatal fault of the automation machinery
// itself (handle crashed, staging dir unavailable, missing config). It
// aborts the run; it is caught exactly once at the outermost run boundary
// and converted into a structured failure result.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("infrastructure failure during %s: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error { return e.Err }

// InteractionError means a fill, click, or select exhausted its entire
// strategy list. Fatal for required fields; logged-and-continue for
// optional ones.
type InteractionError struct {
	Field   string
	Locator string
}

func (e *InteractionError) Error() string {
	return fmt.Sprintf("interaction exhausted all strategies for field %q (locator %s)", e.Field, e.Locator)
}
