package email

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/storefront/backend/internal/application/notification"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMailer(t *testing.T, baseURL string) *HTTPMailer {
	mailer, err := NewHTTPMailer(&config.EmailConfig{
		Enabled:   true,
		BaseURL:   baseURL,
		APIKey:    "key-123",
		FromName:  "Acme Store",
		FromEmail: "orders@acme.example.com",
		Timeout:   5 * time.Second,
	}, nil)
	require.NoError(t, err)
	return mailer
}

func TestNewHTTPMailer(t *testing.T) {
	t.Run("rejects disabled config", func(t *testing.T) {
		_, err := NewHTTPMailer(&config.EmailConfig{Enabled: false}, nil)
		assert.Error(t, err)
	})

	t.Run("rejects missing from address", func(t *testing.T) {
		_, err := NewHTTPMailer(&config.EmailConfig{
			Enabled: true,
			BaseURL: "https://mail.example.com",
			APIKey:  "key-123",
		}, nil)
		assert.Error(t, err)
	})
}

func TestHTTPMailer_Send(t *testing.T) {
	t.Run("posts message with auth header", func(t *testing.T) {
		var gotAuth string
		var gotBody sendRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, sendPath, r.URL.Path)
			gotAuth = r.Header.Get("Authorization")
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &gotBody))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		mailer := newTestMailer(t, server.URL)
		err := mailer.Send(context.Background(), notification.Message{
			To:       "jo@example.com",
			ToName:   "Jo",
			Subject:  "Order ORD-2026-00042 confirmed",
			TextBody: "Thanks for your order.",
		})

		require.NoError(t, err)
		assert.Equal(t, "Bearer key-123", gotAuth)
		assert.Equal(t, "orders@acme.example.com", gotBody.From.Email)
		require.Len(t, gotBody.To, 1)
		assert.Equal(t, "jo@example.com", gotBody.To[0].Email)
		assert.Equal(t, "Order ORD-2026-00042 confirmed", gotBody.Subject)
	})

	t.Run("surfaces provider errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":"invalid recipient"}`))
		}))
		defer server.Close()

		mailer := newTestMailer(t, server.URL)
		err := mailer.Send(context.Background(), notification.Message{
			To:      "bad",
			Subject: "x",
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "422")
	})

	t.Run("requires recipient", func(t *testing.T) {
		mailer := newTestMailer(t, "https://mail.example.com")

		err := mailer.Send(context.Background(), notification.Message{Subject: "x"})

		assert.Error(t, err)
	})
}
