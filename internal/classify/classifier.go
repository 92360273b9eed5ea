// internal/classify/classifier.go
//
// Package classify inspects page state after each workflow transition and
// turns inline failure signals from the portal into structured
// classifications. The portal reports failures as rendered boilerplate, not
// HTTP status codes, so classification is substring matching over the
// page's visible text.
package classify

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"formpilot/api/schemas"
)

// Boilerplate sets the portal renders for each failure class. Matching is
// case-insensitive; a single hit decides the class, terminal first.
var (
	terminalPhrases = []string{
		"we are unable to provide you",
		"application cannot be completed online",
		"you have exceeded the maximum number of attempts",
		"technical difficulties",
	}
	validationPhrases = []string{
		"please correct the following",
		"the information entered does not match",
		"field is required",
		"error(s) on this page",
	}
)

// Classifier runs the checkpoint after every transition: wait for async
// rendering to settle, read the page text once, and classify it.
type Classifier struct {
	page      schemas.PagePrimitives
	extractor *Extractor
	logger    *zap.Logger
	settle    time.Duration
}

// NewClassifier builds a checkpoint classifier. settle bounds the delay
// granted to async rendering before the page text is read.
func NewClassifier(page schemas.PagePrimitives, extractor *Extractor, logger *zap.Logger, settle time.Duration) *Classifier {
	return &Classifier{
		page:      page,
		extractor: extractor,
		logger:    logger.Named("classify"),
		settle:    settle,
	}
}

// Check classifies the current page. On a non-clean classification it
// delegates to the extraction engine so the caller receives the best
// available code or message alongside the class. Only context cancellation
// is an error; an unreadable page classifies as Unknown.
func (c *Classifier) Check(ctx context.Context) (schemas.Classification, error) {
	// Bounded settle delay for async rendering; cancellable.
	select {
	case <-time.After(c.settle):
	case <-ctx.Done():
		return schemas.Classification{}, ctx.Err()
	}

	text, err := c.page.PageText(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return schemas.Classification{}, ctx.Err()
		}
		c.logger.Warn("Could not read page text at checkpoint.", zap.Error(err))
		return schemas.Classification{Class: schemas.ClassificationUnknown}, nil
	}

	class := classifyText(text)
	if class == schemas.ClassificationNone {
		return schemas.Classification{Class: schemas.ClassificationNone}, nil
	}

	result := schemas.Classification{Class: class}

	code, err := c.extractor.Extract(ctx)
	if err != nil {
		return schemas.Classification{}, err
	}
	result.Code = code

	if code == "" {
		msg, err := c.extractor.Message(ctx)
		if err != nil {
			return schemas.Classification{}, err
		}
		result.Message = msg
	}

	c.logger.Info("Checkpoint classified page as failure.",
		zap.String("class", string(class)),
		zap.String("code", result.Code))
	return result, nil
}

// classifyText maps visible page text onto a failure class.
func classifyText(text string) schemas.FailureClass {
	lower := strings.ToLower(text)
	for _, phrase := range terminalPhrases {
		if strings.Contains(lower, phrase) {
			return schemas.TerminalRejection
		}
	}
	for _, phrase := range validationPhrases {
		if strings.Contains(lower, phrase) {
			return schemas.ValidationError
		}
	}
	return schemas.ClassificationNone
}
