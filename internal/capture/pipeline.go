// internal/capture/pipeline.go
package capture

import (
	"bytes"
	"context"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"

	"formpilot/api/schemas"
)

// Job identifies what one capture is for. The attempt trail and recovery
// entries are keyed by these fields.
type Job struct {
	RunID       string
	RecordID    string
	EntityName  string
	LogicalName string
}

// Strategy is one technique for obtaining the artifact bytes.
type Strategy interface {
	Name() string
	Capture(ctx context.Context, job *Job) ([]byte, error)
}

// Result is a successful capture. Valid reports whether the bytes passed
// PDF validation; it is advisory, so the caller can persist a non-PDF
// payload as a diagnostic rather than a client-visible artifact.
type Result struct {
	Data     []byte
	Strategy string
	Valid    bool
}

// Pipeline runs the capture strategies in order and stops at the first
// strategy that returns non-empty bytes. Every payload is written to the
// recovery log before the pipeline returns it.
type Pipeline struct {
	strategies []Strategy
	recovery   *RecoveryLog
	logger     *zap.Logger
	validate   func([]byte) bool
}

func NewPipeline(recovery *RecoveryLog, logger *zap.Logger, strategies ...Strategy) *Pipeline {
	return &Pipeline{
		strategies: strategies,
		recovery:   recovery,
		logger:     logger.Named("capture"),
		validate:   isValidPDF,
	}
}

// WithValidator swaps the payload validator. Useful where full PDF
// validation is not what the strategies produce, e.g. portals serving plain
// HTML receipts.
func (p *Pipeline) WithValidator(fn func([]byte) bool) *Pipeline {
	if fn != nil {
		p.validate = fn
	}
	return p
}

// Run executes the strategy chain and stops at the first strategy that
// returns non-empty bytes. The attempt trail covers every strategy tried.
// PDF validation never rejects a payload; it only marks the Result and the
// attempt record so the caller can demote a non-PDF payload (a portal
// serving an HTML receipt, say) to a diagnostic. When nothing produced
// bytes at all, the error is schemas.ErrCaptureExhausted.
func (p *Pipeline) Run(ctx context.Context, job *Job) (*Result, []schemas.CaptureAttempt, error) {
	attempts := make([]schemas.CaptureAttempt, 0, len(p.strategies))

	for _, s := range p.strategies {
		if err := ctx.Err(); err != nil {
			return nil, attempts, err
		}

		data, err := s.Capture(ctx, job)
		attempt := schemas.CaptureAttempt{Strategy: s.Name(), ByteLength: len(data)}

		switch {
		case err != nil:
			attempt.Error = err.Error()
			p.logger.Warn("Capture strategy failed.",
				zap.String("strategy", s.Name()), zap.Error(err))

		case len(data) == 0:
			attempt.Error = "strategy produced no bytes"

		default:
			attempt.Succeeded = true
			valid := p.validate(data)
			if !valid {
				attempt.Error = "payload failed PDF validation"
				p.logger.Warn("Captured payload is not a valid PDF; kept as diagnostic.",
					zap.String("strategy", s.Name()), zap.Int("byte_length", len(data)))
			}
			attempts = append(attempts, attempt)
			p.recovery.Record(job, s.Name(), data)
			p.logger.Info("Artifact captured.",
				zap.String("strategy", s.Name()), zap.Int("byte_length", len(data)))
			return &Result{Data: data, Strategy: s.Name(), Valid: valid}, attempts, nil
		}
		attempts = append(attempts, attempt)
	}

	return nil, attempts, schemas.ErrCaptureExhausted
}

// isValidPDF runs a cheap magic-number check, then full structural
// validation.
func isValidPDF(data []byte) bool {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return false
	}
	return api.Validate(bytes.NewReader(data), nil) == nil
}
