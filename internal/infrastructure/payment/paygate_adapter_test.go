package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "paygate-test-secret"

func newTestAdapter(t *testing.T, baseURL string) *PaygateAdapter {
	adapter, err := NewPaygateAdapter(&config.PaygateConfig{
		Enabled:    true,
		BaseURL:    baseURL,
		MerchantID: "merchant-42",
		Secret:     testSecret,
		Timeout:    5 * time.Second,
	})
	require.NoError(t, err)
	return adapter
}

func signPayload(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func initiateRequestFixture() *payment.InitiateRequest {
	return &payment.InitiateRequest{
		TenantID:      uuid.New(),
		TransactionID: uuid.New(),
		OrderNumber:   "ORD-2026-00042",
		Amount:        decimal.RequireFromString("44.98"),
		Currency:      valueobject.USD,
		CustomerEmail: "jo@example.com",
		CallbackURL:   "https://shop.example.com/api/v1/store/payments/callback/PAYGATE",
	}
}

func TestNewPaygateAdapter(t *testing.T) {
	t.Run("rejects disabled config", func(t *testing.T) {
		_, err := NewPaygateAdapter(&config.PaygateConfig{Enabled: false})
		assert.ErrorIs(t, err, payment.ErrGatewayNotConfigured)
	})

	t.Run("rejects missing secret", func(t *testing.T) {
		_, err := NewPaygateAdapter(&config.PaygateConfig{
			Enabled:    true,
			BaseURL:    "https://paygate.example.com",
			MerchantID: "merchant-42",
		})
		assert.ErrorIs(t, err, payment.ErrGatewayNotConfigured)
	})
}

func TestPaygateAdapter_Initiate(t *testing.T) {
	t.Run("signs request and parses checkout URL", func(t *testing.T) {
		var gotSignature, gotMerchant string
		var gotBody []byte

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, paygateCreatePath, r.URL.Path)
			gotSignature = r.Header.Get(paygateSignatureHeader)
			gotMerchant = r.Header.Get(paygateMerchantHeader)
			gotBody, _ = io.ReadAll(r.Body)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"payment_id":"pg_9f1c","checkout_url":"https://pay.example.com/s/pg_9f1c","status":"CREATED"}`))
		}))
		defer server.Close()

		adapter := newTestAdapter(t, server.URL)
		resp, err := adapter.Initiate(context.Background(), initiateRequestFixture())

		require.NoError(t, err)
		assert.Equal(t, "pg_9f1c", resp.GatewayOrderID)
		assert.Equal(t, "https://pay.example.com/s/pg_9f1c", resp.CheckoutURL)
		assert.Equal(t, "merchant-42", gotMerchant)
		assert.Equal(t, signPayload(gotBody), gotSignature)

		var sent paygateCreateRequest
		require.NoError(t, json.Unmarshal(gotBody, &sent))
		assert.Equal(t, "ORD-2026-00042", sent.OrderNumber)
		assert.Equal(t, "44.98", sent.Amount)
	})

	t.Run("unknown create status initiates as pending", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"payment_id":"pg_1","checkout_url":"https://pay.example.com/s/pg_1","status":"SOMETHING_NEW"}`))
		}))
		defer server.Close()

		adapter := newTestAdapter(t, server.URL)
		resp, err := adapter.Initiate(context.Background(), initiateRequestFixture())

		require.NoError(t, err)
		assert.Equal(t, payment.ExternalStatusPending, resp.Status)
	})

	t.Run("maps 5xx to gateway unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		adapter := newTestAdapter(t, server.URL)
		_, err := adapter.Initiate(context.Background(), initiateRequestFixture())

		assert.ErrorIs(t, err, payment.ErrGatewayUnavailable)
	})

	t.Run("maps 4xx to request failed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))
		defer server.Close()

		adapter := newTestAdapter(t, server.URL)
		_, err := adapter.Initiate(context.Background(), initiateRequestFixture())

		assert.ErrorIs(t, err, payment.ErrGatewayRequestFailed)
	})

	t.Run("rejects response without payment id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"CREATED"}`))
		}))
		defer server.Close()

		adapter := newTestAdapter(t, server.URL)
		_, err := adapter.Initiate(context.Background(), initiateRequestFixture())

		assert.ErrorIs(t, err, payment.ErrGatewayInvalidResponse)
	})
}

func TestPaygateAdapter_Query(t *testing.T) {
	t.Run("parses settled payment", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, paygateQueryPath, r.URL.Path)
			_, _ = w.Write([]byte(`{"payment_id":"pg_9f1c","transaction_id":"txn_77","status":"SETTLED","paid_amount":"44.98","paid_at":"2026-08-30T10:00:00Z"}`))
		}))
		defer server.Close()

		adapter := newTestAdapter(t, server.URL)
		resp, err := adapter.Query(context.Background(), &payment.QueryRequest{
			TenantID:       uuid.New(),
			GatewayOrderID: "pg_9f1c",
		})

		require.NoError(t, err)
		assert.Equal(t, payment.ExternalStatusCompleted, resp.Status)
		assert.Equal(t, "SETTLED", resp.RawStatus)
		assert.Equal(t, "txn_77", resp.GatewayTransactionID)
		assert.True(t, resp.PaidAmount.Equal(decimal.RequireFromString("44.98")))
		require.NotNil(t, resp.PaidAt)
	})

	t.Run("classifies declined as failed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"payment_id":"pg_9f1c","status":"DECLINED"}`))
		}))
		defer server.Close()

		adapter := newTestAdapter(t, server.URL)
		resp, err := adapter.Query(context.Background(), &payment.QueryRequest{
			TenantID:       uuid.New(),
			GatewayOrderID: "pg_9f1c",
		})

		require.NoError(t, err)
		assert.Equal(t, payment.ExternalStatusFailed, resp.Status)
	})
}

func TestPaygateAdapter_VerifyCallback(t *testing.T) {
	payload := []byte(`{"payment_id":"pg_9f1c","transaction_id":"txn_77","order_number":"ORD-2026-00042","status":"success","paid_amount":"44.98","paid_at":"2026-08-30T10:00:00Z"}`)

	t.Run("accepts valid signature", func(t *testing.T) {
		adapter := newTestAdapter(t, "https://paygate.example.com")

		cb, err := adapter.VerifyCallback(context.Background(), payload, signPayload(payload))

		require.NoError(t, err)
		assert.Equal(t, payment.GatewayTypePayGate, cb.Gateway)
		assert.Equal(t, "pg_9f1c", cb.GatewayOrderID)
		assert.Equal(t, "ORD-2026-00042", cb.OrderNumber)
		// Matching is case-insensitive
		assert.Equal(t, payment.ExternalStatusCompleted, cb.Status)
		assert.True(t, cb.PaidAmount.Equal(decimal.RequireFromString("44.98")))
	})

	t.Run("rejects tampered payload", func(t *testing.T) {
		adapter := newTestAdapter(t, "https://paygate.example.com")

		tampered := []byte(`{"payment_id":"pg_9f1c","status":"SUCCESS","paid_amount":"999.00"}`)
		_, err := adapter.VerifyCallback(context.Background(), tampered, signPayload(payload))

		assert.ErrorIs(t, err, payment.ErrGatewayInvalidCallback)
	})

	t.Run("rejects garbage signature", func(t *testing.T) {
		adapter := newTestAdapter(t, "https://paygate.example.com")

		_, err := adapter.VerifyCallback(context.Background(), payload, "deadbeef")

		assert.ErrorIs(t, err, payment.ErrGatewayInvalidCallback)
	})
}

func TestPaygateAdapter_CallbackAck(t *testing.T) {
	adapter := newTestAdapter(t, "https://paygate.example.com")

	assert.JSONEq(t, `{"result":"SUCCESS"}`, string(adapter.CallbackAck(true)))
	assert.JSONEq(t, `{"result":"FAIL"}`, string(adapter.CallbackAck(false)))
}
