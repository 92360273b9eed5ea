// internal/capture/pipeline_test.go
package capture

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"formpilot/api/schemas"
)

// stubStrategy returns canned bytes or a canned error.
type stubStrategy struct {
	name  string
	data  []byte
	err   error
	calls int
}

func (s *stubStrategy) Name() string { return s.name }
func (s *stubStrategy) Capture(ctx context.Context, _ *Job) ([]byte, error) {
	s.calls++
	return s.data, s.err
}

// pdfPrefixed fakes a payload the test validator accepts.
func pdfPrefixed(body string) []byte {
	return []byte("%PDF-1.7\n" + body)
}

func newTestPipeline(strategies ...Strategy) *Pipeline {
	p := NewPipeline(nil, zap.NewNop(), strategies...)
	p.validate = func(data []byte) bool { return bytes.HasPrefix(data, []byte("%PDF-")) }
	return p
}

func testJob() *Job {
	return &Job{RunID: "run-1", RecordID: "rec-1", EntityName: "Acme LLC", LogicalName: "confirmation"}
}

func TestPipelineFirstPayloadWins(t *testing.T) {
	first := &stubStrategy{name: "a", err: fmt.Errorf("control unreachable")}
	second := &stubStrategy{name: "b", data: pdfPrefixed("payload")}
	third := &stubStrategy{name: "c", data: pdfPrefixed("never")}

	p := newTestPipeline(first, second, third)
	res, attempts, err := p.Run(context.Background(), testJob())
	require.NoError(t, err)

	assert.Equal(t, "b", res.Strategy)
	assert.True(t, res.Valid)
	assert.Equal(t, pdfPrefixed("payload"), res.Data)
	assert.Zero(t, third.calls, "later strategies must not run after a success")

	require.Len(t, attempts, 2)
	assert.False(t, attempts[0].Succeeded)
	assert.Equal(t, "control unreachable", attempts[0].Error)
	assert.True(t, attempts[1].Succeeded)
	assert.Equal(t, len(res.Data), attempts[1].ByteLength)
}

func TestPipelineNonPDFPayloadStillWins(t *testing.T) {
	receipt := &stubStrategy{name: "a", data: []byte("<html>receipt</html>")}
	pdf := &stubStrategy{name: "b", data: pdfPrefixed("later")}

	p := newTestPipeline(receipt, pdf)
	res, attempts, err := p.Run(context.Background(), testJob())
	require.NoError(t, err)

	assert.Equal(t, "a", res.Strategy, "first non-empty payload wins, valid PDF or not")
	assert.Equal(t, receipt.data, res.Data)
	assert.False(t, res.Valid)
	assert.Zero(t, pdf.calls, "later strategies must not run once bytes are in hand")

	require.Len(t, attempts, 1)
	assert.True(t, attempts[0].Succeeded)
	assert.Equal(t, "payload failed PDF validation", attempts[0].Error,
		"validation verdict rides along as a diagnostic note")
}

func TestPipelineSkipsEmptyPayloads(t *testing.T) {
	empty := &stubStrategy{name: "a"}
	pdf := &stubStrategy{name: "b", data: pdfPrefixed("payload")}

	p := newTestPipeline(empty, pdf)
	res, attempts, err := p.Run(context.Background(), testJob())
	require.NoError(t, err)

	assert.Equal(t, "b", res.Strategy)
	assert.True(t, res.Valid)

	require.Len(t, attempts, 2)
	assert.Equal(t, "strategy produced no bytes", attempts[0].Error)
	assert.True(t, attempts[1].Succeeded)
}

func TestPipelineExhaustion(t *testing.T) {
	p := newTestPipeline(
		&stubStrategy{name: "a", err: fmt.Errorf("nope")},
		&stubStrategy{name: "b"},
	)
	res, attempts, err := p.Run(context.Background(), testJob())
	assert.ErrorIs(t, err, schemas.ErrCaptureExhausted)
	assert.Nil(t, res)
	assert.Len(t, attempts, 2)
}

func TestPipelineCancellation(t *testing.T) {
	s := &stubStrategy{name: "a", data: pdfPrefixed("x")}
	p := newTestPipeline(s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := p.Run(ctx, testJob())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, s.calls)
}

func TestIsValidPDFRejectsObviousGarbage(t *testing.T) {
	assert.False(t, isValidPDF(nil))
	assert.False(t, isValidPDF([]byte("<html>error page</html>")))
	assert.False(t, isValidPDF([]byte("%PDF-1.7 truncated")), "magic number alone is not enough")
}

func TestStagingWaitForFile(t *testing.T) {
	staging := NewStaging(t.TempDir(), 10*time.Millisecond)
	dir, err := staging.RunDir("run-wait")
	require.NoError(t, err)

	t.Run("ignores partial downloads", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.pdf.crdownload"), []byte("partial"), 0o644))

		_, err := staging.WaitForFile(context.Background(), dir, 50*time.Millisecond)
		assert.Error(t, err)
	})

	t.Run("returns a completed file", func(t *testing.T) {
		want := filepath.Join(dir, "doc.pdf")
		go func() {
			time.Sleep(20 * time.Millisecond)
			_ = os.WriteFile(want, []byte("%PDF-1.7 done"), 0o644)
		}()

		got, err := staging.WaitForFile(context.Background(), dir, time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("cleanup removes the run dir", func(t *testing.T) {
		require.NoError(t, staging.Cleanup(dir))
		_, err := os.Stat(dir)
		assert.True(t, os.IsNotExist(err))
	})
}
