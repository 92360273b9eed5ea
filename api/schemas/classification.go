// api/schemas/classification.go
package schemas

// FailureClass categorizes the page state observed at a checkpoint.
type FailureClass string

const (
	// ClassificationNone means the page shows no inline failure signal.
	ClassificationNone FailureClass = "none"
	// TerminalRejection means the portal refused the application outright
	// and the run cannot proceed on any path.
	TerminalRejection FailureClass = "terminal_rejection"
	// ValidationError means the portal flagged one or more submitted field
	// values as invalid on the current screen.
	ValidationError FailureClass = "validation_error"
	// ClassificationUnknown is reserved for page states that matched a
	// failure signal but none of the known boilerplate sets.
	ClassificationUnknown FailureClass = "unknown"
)

// Classification is the full checkpoint verdict: the class plus whatever
// code or free-text detail the extraction engine recovered from the page.
type Classification struct {
	Class   FailureClass `json:"class"`
	Code    string       `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
}

// Failed reports whether the classification represents a site-reported
// failure the orchestrator must act on.
func (c Classification) Failed() bool {
	return c.Class != ClassificationNone
}
