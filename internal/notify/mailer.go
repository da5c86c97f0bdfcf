package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// Mailer is the outbound email capability. Callers treat delivery as
// best-effort: a returned error is logged and never changes the
// outcome of the operation that triggered the mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// HTTPMailer delivers through the email service's POST /send
// endpoint.
type HTTPMailer struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPMailer(baseURL string, client *http.Client) *HTTPMailer {
	return &HTTPMailer{baseURL: baseURL, httpClient: client}
}

func (m *HTTPMailer) Send(ctx context.Context, to, subject, body string) error {
	payload := map[string]string{
		"to":      to,
		"subject": subject,
		"body":    body,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}

// NoopMailer drops every message. It stands in when no email service
// is configured, so call sites never branch on a nil mailer.
type NoopMailer struct {
	logger *slog.Logger
}

func NewNoopMailer(logger *slog.Logger) NoopMailer {
	return NoopMailer{logger: logger}
}

func (m NoopMailer) Send(_ context.Context, to, subject, _ string) error {
	m.logger.Info("email disabled, dropping message", "to", to, "subject", subject)
	return nil
}
