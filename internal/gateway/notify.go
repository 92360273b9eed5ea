// internal/gateway/notify.go
package gateway

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"formpilot/api/schemas"
	"formpilot/internal/config"
)

// notification is the wire shape posted to the CRM endpoint.
type notification struct {
	Kind             string            `json:"kind"`
	RecordID         string            `json:"record_id"`
	CompletionNumber string            `json:"completion_number,omitempty"`
	Code             string            `json:"code,omitempty"`
	Status           string            `json:"status,omitempty"`
	Diagnostic       map[string]string `json:"diagnostic,omitempty"`
	URL              string            `json:"url,omitempty"`
	ClientVisible    bool              `json:"client_visible,omitempty"`
	SentAt           time.Time         `json:"sent_at"`
}

// HTTPNotifier posts run events to a CRM-style endpoint. Every call is best
// effort: delivery failures are logged and swallowed, and a token-bucket
// limiter keeps bursts of events from hammering the remote. An empty
// endpoint disables the notifier entirely.
type HTTPNotifier struct {
	client   *http.Client
	endpoint string
	apiKey   string
	limiter  *rate.Limiter
	logger   *zap.Logger
}

func NewHTTPNotifier(cfg config.NotifyConfig, logger *zap.Logger) *HTTPNotifier {
	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &HTTPNotifier{
		client:   &http.Client{Timeout: cfg.Timeout},
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		limiter:  rate.NewLimiter(rate.Limit(perSecond), burst),
		logger:   logger.Named("notify"),
	}
}

var _ schemas.NotificationGateway = (*HTTPNotifier)(nil)

func (n *HTTPNotifier) NotifySuccess(ctx context.Context, recordID, completionNumber string) {
	n.post(ctx, notification{
		Kind:             "success",
		RecordID:         recordID,
		CompletionNumber: completionNumber,
		Status:           "success",
	})
}

func (n *HTTPNotifier) NotifyFailure(ctx context.Context, recordID, code, status string, diagnostic map[string]string) {
	n.post(ctx, notification{
		Kind:       "failure",
		RecordID:   recordID,
		Code:       code,
		Status:     status,
		Diagnostic: diagnostic,
	})
}

func (n *HTTPNotifier) NotifyArtifactAvailable(ctx context.Context, recordID, url string, clientVisible bool) {
	n.post(ctx, notification{
		Kind:          "artifact",
		RecordID:      recordID,
		URL:           url,
		ClientVisible: clientVisible,
	})
}

func (n *HTTPNotifier) post(ctx context.Context, note notification) {
	if n.endpoint == "" {
		n.logger.Debug("Notification endpoint not configured; dropping event.",
			zap.String("kind", note.Kind))
		return
	}
	if err := n.limiter.Wait(ctx); err != nil {
		n.logger.Warn("Notification rate wait interrupted.", zap.Error(err))
		return
	}

	note.SentAt = time.Now().UTC()
	body, err := json.Marshal(note)
	if err != nil {
		n.logger.Warn("Could not encode notification.", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("Could not build notification request.", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if n.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.apiKey)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("Notification delivery failed.",
			zap.String("kind", note.Kind), zap.Error(err))
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= http.StatusMultipleChoices {
		n.logger.Warn("Notification rejected by remote.",
			zap.String("kind", note.Kind), zap.Int("status", resp.StatusCode))
		return
	}
	n.logger.Debug("Notification delivered.", zap.String("kind", note.Kind))
}
