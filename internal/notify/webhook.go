// Package notify delivers finished bookings to the external notification
// receiver, which confirms them with the customer.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/empirecuts-booking/pkg/logging"
)

var webhookTracer = otel.Tracer("empirecuts.internal.notify.webhook")

// StatusError is returned when the receiver answers outside the 2xx range.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("notify: webhook status %d: %s", e.StatusCode, e.Body)
}

// WebhookNotifier posts booking payloads as JSON to a fixed endpoint.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewWebhookNotifier creates a notifier for url with the given per-call timeout.
func NewWebhookNotifier(url string, timeout time.Duration, logger *logging.Logger) *WebhookNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WebhookNotifier{
		url:        strings.TrimSpace(url),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// WithHTTPClient overrides the HTTP client (for testing).
func (n *WebhookNotifier) WithHTTPClient(client *http.Client) *WebhookNotifier {
	if client != nil {
		n.httpClient = client
	}
	return n
}

// Send performs exactly one POST of payload. It does not retry.
func (n *WebhookNotifier) Send(ctx context.Context, payload any) error {
	ctx, span := webhookTracer.Start(ctx, "notify.webhook.send")
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		n.logger.Error("booking webhook failed", "error", err)
		return fmt.Errorf("notify: webhook http: %w", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		n.logger.Warn("booking webhook rejected", "status", resp.StatusCode)
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	n.logger.Info("booking webhook sent", "status", resp.StatusCode)
	return nil
}
