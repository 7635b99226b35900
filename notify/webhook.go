package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

// WebhookProvider posts messages to a Slack-compatible incoming webhook.
type WebhookProvider struct {
	client     *http.Client
	logger     *slog.Logger
	webhookURL string
}

// NewWebhookProvider creates a webhook delivery provider.
func NewWebhookProvider(client *http.Client, webhookURL string, logger *slog.Logger) *WebhookProvider {
	return &WebhookProvider{
		client:     client,
		logger:     logger,
		webhookURL: webhookURL,
	}
}

// Send posts {"text": ...} to the webhook, retrying transient failures a few
// times before giving up. The response body is ignored beyond the status.
func (p *WebhookProvider) Send(ctx context.Context, text string) error {
	payload, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: text})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.webhookURL, bytes.NewReader(payload))
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
			}
			req.Header.Set("Content-Type", "application/json")

			startTime := time.Now()
			resp, err := p.client.Do(req)
			duration := time.Since(startTime)

			if err != nil {
				p.logger.Warn("Webhook POST failed, will retry",
					"duration_ms", duration.Milliseconds(),
					"error", err)
				return err
			}
			defer func() {
				if closeErr := resp.Body.Close(); closeErr != nil {
					p.logger.Warn("Failed to close webhook response body", "error", closeErr)
				}
			}()
			_, _ = io.Copy(io.Discard, resp.Body)

			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				p.logger.Warn("Webhook returned non-2xx status, will retry", "status_code", resp.StatusCode)
				return fmt.Errorf("HTTP %d", resp.StatusCode)
			}

			p.logger.Debug("Webhook POST completed",
				"status_code", resp.StatusCode,
				"duration_ms", duration.Milliseconds())
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.MaxJitter(5*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Info("Retrying webhook delivery after error", "attempt", n, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("after retries: %w", err)
	}

	return nil
}
