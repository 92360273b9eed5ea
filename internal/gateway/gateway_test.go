// internal/gateway/gateway_test.go
package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"formpilot/api/schemas"
	"formpilot/internal/config"
)

func TestFilesystemStorage(t *testing.T) {
	base := t.TempDir()
	store, err := NewFilesystemStorage(config.StorageConfig{BaseDir: base}, zap.NewNop())
	require.NoError(t, err)

	t.Run("artifact lands under the record dir", func(t *testing.T) {
		url, err := store.UploadArtifact(context.Background(), schemas.ArtifactDescriptor{
			LogicalName: "rec-1-confirmation",
			RecordID:    "rec-1",
			ContentType: "application/pdf",
			Payload:     []byte("%PDF-1.7 bytes"),
		})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(url, "file://"))

		data, err := os.ReadFile(filepath.Join(base, "rec-1", "rec-1-confirmation.pdf"))
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.7 bytes"), data)
	})

	t.Run("non-pdf payloads get a neutral extension", func(t *testing.T) {
		_, err := store.UploadArtifact(context.Background(), schemas.ArtifactDescriptor{
			LogicalName: "rec-1-failure-print-to-pdf",
			RecordID:    "rec-1",
			ContentType: "application/octet-stream",
			Payload:     []byte("<html>"),
		})
		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(base, "rec-1", "rec-1-failure-print-to-pdf.bin"))
		assert.NoError(t, err)
	})

	t.Run("structured log round-trips as json", func(t *testing.T) {
		entries := []schemas.LogEntry{{Key: "navigate", Value: "https://portal.test"}}
		require.NoError(t, store.UploadStructuredLog(context.Background(), "rec-1", entries))

		raw, err := os.ReadFile(filepath.Join(base, "rec-1", "run-log.json"))
		require.NoError(t, err)

		var got []schemas.LogEntry
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, entries, got)
	})

	t.Run("hostile record ids cannot escape the base dir", func(t *testing.T) {
		_, err := store.UploadDiagnosticLog(context.Background(), "../../etc/passwd", []byte("x"))
		require.NoError(t, err)
		matches, _ := filepath.Glob(filepath.Join(base, "passwd", "*"))
		assert.NotEmpty(t, matches, "sanitized name stays inside the base dir")
	})
}

func TestHTTPNotifier(t *testing.T) {
	type received struct {
		note notification
		auth string
	}

	var (
		mu    sync.Mutex
		calls []received
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var note notification
		require.NoError(t, json.NewDecoder(r.Body).Decode(&note))
		mu.Lock()
		calls = append(calls, received{note: note, auth: r.Header.Get("Authorization")})
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	notifier := NewHTTPNotifier(config.NotifyConfig{
		Endpoint:      server.URL,
		APIKey:        "secret-token",
		Timeout:       time.Second,
		RatePerSecond: 100,
		Burst:         10,
	}, zap.NewNop())

	notifier.NotifySuccess(context.Background(), "rec-1", "12-3456789")
	notifier.NotifyFailure(context.Background(), "rec-1", "101", "fail", map[string]string{"screen": "address"})
	notifier.NotifyArtifactAvailable(context.Background(), "rec-1", "file:///a.pdf", true)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 3)

	assert.Equal(t, "success", calls[0].note.Kind)
	assert.Equal(t, "12-3456789", calls[0].note.CompletionNumber)
	assert.Equal(t, "Bearer secret-token", calls[0].auth)

	assert.Equal(t, "failure", calls[1].note.Kind)
	assert.Equal(t, "101", calls[1].note.Code)
	assert.Equal(t, "fail", calls[1].note.Status)
	assert.Equal(t, "address", calls[1].note.Diagnostic["screen"])

	assert.Equal(t, "artifact", calls[2].note.Kind)
	assert.True(t, calls[2].note.ClientVisible)
	assert.False(t, calls[2].note.SentAt.IsZero())
}

func TestHTTPNotifierBestEffort(t *testing.T) {
	t.Run("unreachable endpoint never panics or blocks", func(t *testing.T) {
		notifier := NewHTTPNotifier(config.NotifyConfig{
			Endpoint:      "http://127.0.0.1:1", // nothing listens here
			Timeout:       100 * time.Millisecond,
			RatePerSecond: 100,
			Burst:         10,
		}, zap.NewNop())

		assert.NotPanics(t, func() {
			notifier.NotifySuccess(context.Background(), "rec-1", "12-3456789")
		})
	})

	t.Run("empty endpoint disables delivery", func(t *testing.T) {
		hits := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
		defer server.Close()

		notifier := NewHTTPNotifier(config.NotifyConfig{Timeout: time.Second}, zap.NewNop())
		notifier.NotifyFailure(context.Background(), "rec-1", "", "error", nil)
		assert.Zero(t, hits)
	})
}
