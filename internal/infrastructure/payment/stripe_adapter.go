package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/infrastructure/config"
	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
)

// StripeAdapter implements the Gateway interface using Stripe Checkout
// Sessions. The session URL is the hosted checkout page; webhooks are
// verified with the endpoint's signing secret.
type StripeAdapter struct {
	api           *client.API
	webhookSecret string
}

// NewStripeAdapter creates a new Stripe adapter
func NewStripeAdapter(cfg *config.StripeConfig) (*StripeAdapter, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, payment.ErrGatewayNotConfigured
	}
	if cfg.SecretKey == "" || cfg.WebhookSecret == "" {
		return nil, payment.ErrGatewayNotConfigured
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	return &StripeAdapter{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
	}, nil
}

// Type returns the gateway identifier
func (a *StripeAdapter) Type() payment.GatewayType {
	return payment.GatewayTypeStripe
}

// Initiate opens a Checkout Session and returns its hosted URL
func (a *StripeAdapter) Initiate(ctx context.Context, req *payment.InitiateRequest) (*payment.InitiateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	description := req.Description
	if description == "" {
		description = "Order " + req.OrderNumber
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.TransactionID.String()),
		SuccessURL:        stripe.String(req.ReturnURL),
		CancelURL:         stripe.String(req.ReturnURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(req.Currency)),
					UnitAmount: stripe.Int64(toMinorUnits(req.Amount, string(req.Currency))),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
			},
		},
	}
	params.Context = ctx
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.AddMetadata("order_number", req.OrderNumber)
	params.AddMetadata("tenant_id", req.TenantID.String())
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := a.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayRequestFailed, err)
	}

	raw, _ := json.Marshal(sess)
	return &payment.InitiateResponse{
		GatewayOrderID: sess.ID,
		CheckoutURL:    sess.URL,
		Status:         payment.ExternalStatusPending,
		RawResponse:    string(raw),
	}, nil
}

// Query returns the remote state of a Checkout Session
func (a *StripeAdapter) Query(ctx context.Context, req *payment.QueryRequest) (*payment.QueryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.GatewayOrderID == "" {
		return nil, payment.ErrInvalidQueryRequest
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	sess, err := a.api.CheckoutSessions.Get(req.GatewayOrderID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayRequestFailed, err)
	}

	raw, _ := json.Marshal(sess)
	resp := &payment.QueryResponse{
		GatewayOrderID: sess.ID,
		RawStatus:      sessionRawStatus(sess),
		Status:         classifySession(sess),
		RawResponse:    string(raw),
	}
	if sess.PaymentIntent != nil {
		resp.GatewayTransactionID = sess.PaymentIntent.ID
	}
	if sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		resp.PaidAmount = fromMinorUnits(sess.AmountTotal, string(sess.Currency))
		paidAt := time.Unix(sess.Created, 0)
		resp.PaidAt = &paidAt
	}

	return resp, nil
}

// VerifyCallback verifies a Stripe webhook event signature and parses it
func (a *StripeAdapter) VerifyCallback(ctx context.Context, payload []byte, signature string) (*payment.Callback, error) {
	event, err := webhook.ConstructEvent(payload, signature, a.webhookSecret)
	if err != nil {
		return nil, payment.ErrGatewayInvalidCallback
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded",
		"checkout.session.async_payment_failed", "checkout.session.expired":
	default:
		return nil, fmt.Errorf("%w: unhandled event type %s", payment.ErrGatewayInvalidResponse, event.Type)
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayInvalidResponse, err)
	}

	cb := &payment.Callback{
		Gateway:        payment.GatewayTypeStripe,
		GatewayOrderID: sess.ID,
		OrderNumber:    sess.Metadata["order_number"],
		RawStatus:      sessionRawStatus(&sess),
		Status:         classifySession(&sess),
		RawPayload:     string(payload),
	}
	if sess.PaymentIntent != nil {
		cb.GatewayTransactionID = sess.PaymentIntent.ID
	}
	if sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		cb.PaidAmount = fromMinorUnits(sess.AmountTotal, string(sess.Currency))
		paidAt := time.Unix(event.Created, 0)
		cb.PaidAt = &paidAt
	}

	return cb, nil
}

// CallbackAck builds the webhook response body. Stripe only checks the HTTP
// status, so the body is informational.
func (a *StripeAdapter) CallbackAck(success bool) []byte {
	if success {
		return []byte(`{"received":true}`)
	}
	return []byte(`{"received":false}`)
}

// sessionRawStatus reports the most specific status Stripe gives us
func sessionRawStatus(sess *stripe.CheckoutSession) string {
	if sess.PaymentStatus != "" {
		return string(sess.PaymentStatus)
	}
	return string(sess.Status)
}

// classifySession maps a Checkout Session to the external status vocabulary
func classifySession(sess *stripe.CheckoutSession) payment.ExternalStatus {
	if sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		return payment.ExternalStatusCompleted
	}
	if sess.Status == stripe.CheckoutSessionStatusExpired {
		return payment.ExternalStatusCancelled
	}
	return payment.ClassifyGatewayStatus(string(sess.PaymentStatus))
}

// zeroDecimalCurrencies are the ISO 4217 currencies Stripe charges in whole
// units rather than hundredths.
var zeroDecimalCurrencies = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true,
	"JPY": true, "KMF": true, "KRW": true, "MGA": true,
	"PYG": true, "RWF": true, "UGX": true, "VND": true,
	"VUV": true, "XAF": true, "XOF": true, "XPF": true,
}

func minorUnitExponent(currency string) int32 {
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		return 0
	}
	return 2
}

// toMinorUnits converts a decimal amount to the currency's smallest unit
func toMinorUnits(amount decimal.Decimal, currency string) int64 {
	return amount.Shift(minorUnitExponent(currency)).IntPart()
}

// fromMinorUnits converts an amount in the currency's smallest unit back to
// a decimal
func fromMinorUnits(minor int64, currency string) decimal.Decimal {
	return decimal.New(minor, -minorUnitExponent(currency))
}

// Ensure StripeAdapter implements Gateway
var _ payment.Gateway = (*StripeAdapter)(nil)
