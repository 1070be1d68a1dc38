package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Sender interface {
	Send(ctx context.Context, to, body string) error
	ProviderID() string
}

var ErrNotConfigured = errors.New("sms webhook url not configured")

type webhookRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// WebhookSender posts each message as JSON to a provider bridge.
type WebhookSender struct {
	url    string
	token  string
	client *http.Client
}

func NewWebhookSender(url, token string) *WebhookSender {
	return &WebhookSender{
		url:   strings.TrimSpace(url),
		token: strings.TrimSpace(token),
		client: &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (s *WebhookSender) ProviderID() string { return "sms-webhook" }

func (s *WebhookSender) Send(ctx context.Context, to, body string) error {
	if s.url == "" {
		return ErrNotConfigured
	}
	raw, err := json.Marshal(webhookRequest{To: to, Body: body})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("sms webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
}

// NoopSender accepts every message; used when no SMS provider is configured.
type NoopSender struct{}

func NewNoopSender() *NoopSender { return &NoopSender{} }

func (NoopSender) ProviderID() string { return "sms-noop" }

func (NoopSender) Send(context.Context, string, string) error { return nil }
