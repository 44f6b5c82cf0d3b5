package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/k3a/html2text"

	"github.com/addynamo/surge-alerts/internal/logger"
)

// defaultWebhookTimeout bounds a single webhook delivery attempt.
const defaultWebhookTimeout = 10 * time.Second

// webhookPayload is the JSON body posted for each alert.
type webhookPayload struct {
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	HTMLBody   string   `json:"html_body"`
}

// WebhookMailer posts alert notifications as JSON to a configured URL,
// for wiring the dispatcher to chat bridges or paging systems instead of
// email. The plain-text body is derived from the HTML content.
type WebhookMailer struct {
	url    string
	client *http.Client
	log    logger.Logger
}

// NewWebhookMailer creates a webhook-backed Mailer. A non-positive
// timeout falls back to the default.
func NewWebhookMailer(url string, timeout time.Duration, log logger.Logger) *WebhookMailer {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	return &WebhookMailer{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// Send posts one notification. Any non-2xx response is a delivery failure.
func (m *WebhookMailer) Send(ctx context.Context, recipients []string, subject, body string) error {
	payload := webhookPayload{
		Recipients: recipients,
		Subject:    subject,
		Body:       html2text.HTML2Text(body),
		HTMLBody:   body,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}

	m.log.Debug("alert webhook delivered",
		logger.String("subject", subject))
	return nil
}

var _ Mailer = (*WebhookMailer)(nil)
