// Package payment provides gateway adapters for hosted payment providers.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/infrastructure/config"
)

const (
	paygateCreatePath = "/v1/payments"
	paygateQueryPath  = "/v1/payments/query"

	paygateSignatureHeader = "X-Paygate-Signature"
	paygateMerchantHeader  = "X-Paygate-Merchant"
)

// PaygateAdapter implements the Gateway interface for the hosted-page
// provider. All requests are JSON signed with HMAC-SHA256 over the raw body.
type PaygateAdapter struct {
	config     *config.PaygateConfig
	httpClient *http.Client
}

// NewPaygateAdapter creates a new PayGate adapter
func NewPaygateAdapter(cfg *config.PaygateConfig) (*PaygateAdapter, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, payment.ErrGatewayNotConfigured
	}
	if cfg.BaseURL == "" || cfg.MerchantID == "" || cfg.Secret == "" {
		return nil, payment.ErrGatewayNotConfigured
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &PaygateAdapter{
		config: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Type returns the gateway identifier
func (a *PaygateAdapter) Type() payment.GatewayType {
	return payment.GatewayTypePayGate
}

type paygateCreateRequest struct {
	MerchantOrderID string            `json:"merchant_order_id"`
	OrderNumber     string            `json:"order_number"`
	Amount          string            `json:"amount"`
	Currency        string            `json:"currency"`
	CustomerEmail   string            `json:"customer_email,omitempty"`
	Description     string            `json:"description,omitempty"`
	CallbackURL     string            `json:"callback_url"`
	ReturnURL       string            `json:"return_url,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

type paygateCreateResponse struct {
	PaymentID   string `json:"payment_id"`
	CheckoutURL string `json:"checkout_url"`
	Status      string `json:"status"`
}

type paygateQueryRequest struct {
	PaymentID   string `json:"payment_id,omitempty"`
	OrderNumber string `json:"order_number,omitempty"`
}

type paygateQueryResponse struct {
	PaymentID     string `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	PaidAmount    string `json:"paid_amount"`
	PaidAt        string `json:"paid_at"`
}

type paygateCallbackPayload struct {
	PaymentID     string `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
	OrderNumber   string `json:"order_number"`
	Status        string `json:"status"`
	PaidAmount    string `json:"paid_amount"`
	PaidAt        string `json:"paid_at"`
}

// Initiate opens a payment and returns the hosted checkout URL
func (a *PaygateAdapter) Initiate(ctx context.Context, req *payment.InitiateRequest) (*payment.InitiateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body := paygateCreateRequest{
		MerchantOrderID: req.TransactionID.String(),
		OrderNumber:     req.OrderNumber,
		Amount:          req.Amount.StringFixed(2),
		Currency:        string(req.Currency),
		CustomerEmail:   req.CustomerEmail,
		Description:     req.Description,
		CallbackURL:     req.CallbackURL,
		ReturnURL:       req.ReturnURL,
		Metadata:        req.Metadata,
	}

	respBody, err := a.doRequest(ctx, paygateCreatePath, body)
	if err != nil {
		return nil, err
	}

	var created paygateCreateResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayInvalidResponse, err)
	}
	if created.PaymentID == "" || created.CheckoutURL == "" {
		return nil, payment.ErrGatewayInvalidResponse
	}

	return &payment.InitiateResponse{
		GatewayOrderID: created.PaymentID,
		CheckoutURL:    created.CheckoutURL,
		Status:         payment.ClassifyGatewayStatus(created.Status),
		RawResponse:    string(respBody),
	}, nil
}

// Query returns the remote state of a previously initiated payment
func (a *PaygateAdapter) Query(ctx context.Context, req *payment.QueryRequest) (*payment.QueryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	respBody, err := a.doRequest(ctx, paygateQueryPath, paygateQueryRequest{
		PaymentID:   req.GatewayOrderID,
		OrderNumber: req.OrderNumber,
	})
	if err != nil {
		return nil, err
	}

	var queried paygateQueryResponse
	if err := json.Unmarshal(respBody, &queried); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayInvalidResponse, err)
	}

	resp := &payment.QueryResponse{
		GatewayOrderID:       queried.PaymentID,
		GatewayTransactionID: queried.TransactionID,
		RawStatus:            queried.Status,
		Status:               payment.ClassifyGatewayStatus(queried.Status),
		RawResponse:          string(respBody),
	}
	if queried.PaidAmount != "" {
		amount, err := decimal.NewFromString(queried.PaidAmount)
		if err != nil {
			return nil, fmt.Errorf("%w: bad paid_amount %q", payment.ErrGatewayInvalidResponse, queried.PaidAmount)
		}
		resp.PaidAmount = amount
	}
	if queried.PaidAt != "" {
		if paidAt, err := time.Parse(time.RFC3339, queried.PaidAt); err == nil {
			resp.PaidAt = &paidAt
		}
	}

	return resp, nil
}

// VerifyCallback verifies the HMAC signature of a pushed notification
func (a *PaygateAdapter) VerifyCallback(ctx context.Context, payload []byte, signature string) (*payment.Callback, error) {
	if !a.verifySignature(payload, signature) {
		return nil, payment.ErrGatewayInvalidCallback
	}

	var cb paygateCallbackPayload
	if err := json.Unmarshal(payload, &cb); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayInvalidResponse, err)
	}
	if cb.PaymentID == "" {
		return nil, payment.ErrGatewayInvalidResponse
	}

	result := &payment.Callback{
		Gateway:              payment.GatewayTypePayGate,
		GatewayOrderID:       cb.PaymentID,
		GatewayTransactionID: cb.TransactionID,
		OrderNumber:          cb.OrderNumber,
		RawStatus:            cb.Status,
		Status:               payment.ClassifyGatewayStatus(cb.Status),
		RawPayload:           string(payload),
	}
	if cb.PaidAmount != "" {
		amount, err := decimal.NewFromString(cb.PaidAmount)
		if err != nil {
			return nil, fmt.Errorf("%w: bad paid_amount %q", payment.ErrGatewayInvalidResponse, cb.PaidAmount)
		}
		result.PaidAmount = amount
	}
	if cb.PaidAt != "" {
		if paidAt, err := time.Parse(time.RFC3339, cb.PaidAt); err == nil {
			result.PaidAt = &paidAt
		}
	}

	return result, nil
}

// CallbackAck builds the body the gateway expects in response to a callback
func (a *PaygateAdapter) CallbackAck(success bool) []byte {
	if success {
		return []byte(`{"result":"SUCCESS"}`)
	}
	return []byte(`{"result":"FAIL"}`)
}

func (a *PaygateAdapter) doRequest(ctx context.Context, path string, body interface{}) ([]byte, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("paygate: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("paygate: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(paygateMerchantHeader, a.config.MerchantID)
	req.Header.Set(paygateSignatureHeader, a.sign(bodyBytes))

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayInvalidResponse, err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", payment.ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", payment.ErrGatewayRequestFailed, resp.StatusCode, respBody)
	}

	return respBody, nil
}

// sign computes the hex HMAC-SHA256 of the payload with the merchant secret
func (a *PaygateAdapter) sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(a.config.Secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *PaygateAdapter) verifySignature(payload []byte, signature string) bool {
	expected := a.sign(payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Ensure PaygateAdapter implements Gateway
var _ payment.Gateway = (*PaygateAdapter)(nil)
