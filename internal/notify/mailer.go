package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bookhaven/backend-store/internal/resilience"
)

// ProviderMailer sends email through an HTTP mail provider. Requests carry
// the provider API key as a bearer token and are traced via otelhttp. A
// circuit breaker stops hammering the provider during outages; asynq
// redelivers the task once the breaker closes again.
type ProviderMailer struct {
	URL    string
	APIKey string
	From   string
	Client resilience.Client
}

// NewProviderMailer constructs a mailer with a traced, retrying HTTP client.
func NewProviderMailer(url, apiKey, from string, timeout time.Duration, log zerolog.Logger) *ProviderMailer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ProviderMailer{
		URL:    url,
		APIKey: apiKey,
		From:   from,
		Client: resilience.Client{
			HTTP: &http.Client{
				Timeout:   timeout,
				Transport: otelhttp.NewTransport(http.DefaultTransport),
			},
			Breaker:     resilience.NewBreaker("mail-provider", 5, 0.5, 30*time.Second).WithLogger(log),
			MaxAttempts: 3,
			BaseBackoff: 200 * time.Millisecond,
			Jitter:      0.2,
		},
	}
}

type providerPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Send implements common.EmailSender.
func (m *ProviderMailer) Send(ctx context.Context, to, subject, html string) error {
	if m == nil || m.URL == "" {
		return nil
	}
	body, err := json.Marshal(providerPayload{From: m.From, To: to, Subject: subject, HTML: html})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if m.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.APIKey)
	}
	resp, err := m.Client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("mail provider: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail provider returned status %d", resp.StatusCode)
	}
	return nil
}
