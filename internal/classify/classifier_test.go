// internal/classify/classifier_test.go
package classify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"formpilot/api/schemas"
)

func newTestClassifier(page *htmlFake) *Classifier {
	return NewClassifier(page, newTestExtractor(page), zap.NewNop(), time.Millisecond)
}

func TestClassifyText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want schemas.FailureClass
	}{
		{"clean page", "Congratulations! Your application has been submitted.", schemas.ClassificationNone},
		{"terminal rejection", "We are unable to provide you with an EIN.", schemas.TerminalRejection},
		{"terminal, case-insensitive", "WE ARE UNABLE TO PROVIDE YOU with an EIN.", schemas.TerminalRejection},
		{"validation error", "Please correct the following errors before continuing.", schemas.ValidationError},
		{"terminal wins over validation", "Please correct the following. We are unable to provide you an EIN.", schemas.TerminalRejection},
		{"unrelated error wording", "An unexpected banner appeared.", schemas.ClassificationNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyText(tt.text))
		})
	}
}

func TestClassifierCheck(t *testing.T) {
	t.Run("clean page classifies as none", func(t *testing.T) {
		page := &htmlFake{text: "Review your answers and continue."}
		c := newTestClassifier(page)

		res, err := c.Check(context.Background())
		require.NoError(t, err)
		assert.Equal(t, schemas.ClassificationNone, res.Class)
		assert.False(t, res.Failed())
	})

	t.Run("terminal rejection carries the extracted code", func(t *testing.T) {
		page := &htmlFake{
			text:    "We are unable to provide you with an EIN. Reference number: 101.",
			evalErr: true,
		}
		c := newTestClassifier(page)

		res, err := c.Check(context.Background())
		require.NoError(t, err)
		assert.Equal(t, schemas.TerminalRejection, res.Class)
		assert.Equal(t, "101", res.Code)
		assert.True(t, res.Failed())
	})

	t.Run("validation without a code falls back to the panel message", func(t *testing.T) {
		page := &htmlFake{
			text:      "Please correct the following errors.",
			panelText: "The ZIP code does not match the state.",
			evalErr:   true,
		}
		c := newTestClassifier(page)

		res, err := c.Check(context.Background())
		require.NoError(t, err)
		assert.Equal(t, schemas.ValidationError, res.Class)
		assert.Empty(t, res.Code)
		assert.Equal(t, "The ZIP code does not match the state.", res.Message)
	})

	t.Run("cancellation during settle surfaces as error", func(t *testing.T) {
		page := &htmlFake{}
		c := NewClassifier(page, newTestExtractor(page), zap.NewNop(), time.Minute)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.Check(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
