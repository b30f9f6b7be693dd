// Package email sends transactional mail through an HTTP mail provider.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/storefront/backend/internal/application/notification"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const sendPath = "/v1/messages"

// HTTPMailer implements the Mailer interface against a JSON mail API
// (Postmark, Resend, and similar providers follow this shape).
type HTTPMailer struct {
	baseURL    string
	apiKey     string
	fromName   string
	fromEmail  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPMailer creates a new HTTPMailer from configuration
func NewHTTPMailer(cfg *config.EmailConfig, logger *zap.Logger) (*HTTPMailer, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("email: mailer not configured")
	}
	if cfg.BaseURL == "" || cfg.APIKey == "" || cfg.FromEmail == "" {
		return nil, errors.New("email: base URL, API key and from address are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &HTTPMailer{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		fromName:  cfg.FromName,
		fromEmail: cfg.FromEmail,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

type mailParty struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendRequest struct {
	From     mailParty   `json:"from"`
	To       []mailParty `json:"to"`
	Subject  string      `json:"subject"`
	TextBody string      `json:"text,omitempty"`
	HTMLBody string      `json:"html,omitempty"`
}

// Send delivers a message through the provider API
func (m *HTTPMailer) Send(ctx context.Context, msg notification.Message) error {
	if msg.To == "" {
		return errors.New("email: recipient is required")
	}

	body, err := json.Marshal(sendRequest{
		From:     mailParty{Email: m.fromEmail, Name: m.fromName},
		To:       []mailParty{{Email: msg.To, Name: msg.ToName}},
		Subject:  msg.Subject,
		TextBody: msg.TextBody,
		HTMLBody: msg.HTMLBody,
	})
	if err != nil {
		return fmt.Errorf("email: failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+sendPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("email: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email: provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("email: provider returned status %d: %s", resp.StatusCode, respBody)
	}

	m.logger.Debug("Email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

// Ensure HTTPMailer implements Mailer
var _ notification.Mailer = (*HTTPMailer)(nil)
