package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Gateway errors
var (
	ErrGatewayNotConfigured   = errors.New("payment: gateway not configured")
	ErrGatewayUnavailable     = errors.New("payment: gateway temporarily unavailable")
	ErrGatewayRequestFailed   = errors.New("payment: gateway request failed")
	ErrGatewayInvalidResponse = errors.New("payment: invalid gateway response")
	ErrGatewayInvalidCallback = errors.New("payment: invalid callback signature")
	ErrInvalidInitiateRequest = errors.New("payment: invalid initiate request")
	ErrInvalidQueryRequest    = errors.New("payment: invalid query request")
)

// GatewayType identifies a configured payment gateway
type GatewayType string

const (
	// GatewayTypePayGate is the hosted card/transfer gateway
	GatewayTypePayGate GatewayType = "PAYGATE"
	// GatewayTypeStripe is the Stripe gateway
	GatewayTypeStripe GatewayType = "STRIPE"
)

// IsValid returns true if the gateway type is known
func (t GatewayType) IsValid() bool {
	switch t {
	case GatewayTypePayGate, GatewayTypeStripe:
		return true
	}
	return false
}

// String returns the string representation of GatewayType
func (t GatewayType) String() string {
	return string(t)
}

// Gateway status string classes. Gateways disagree on vocabulary; each class
// lists the strings observed across providers. Matching is case-insensitive,
// first match wins.
var (
	successStatuses = []string{"SUCCESS", "SUCCEEDED", "COMPLETED", "APPROVED", "PAID", "SETTLED", "SUCCESSFUL"}
	pendingStatuses = []string{"PENDING", "PROCESSING", "AWAITING", "QUEUED"}
	cancelStatuses  = []string{"CANCELLED", "CANCELED"}
	failStatuses    = []string{"FAILED", "DECLINED", "ERROR", "REJECTED", "TIMEOUT"}
)

// ClassifyGatewayStatus maps a raw gateway status string to the external
// status vocabulary. Unknown strings classify as PENDING so a gateway rolling
// out a new status never flips a live payment into a terminal state.
func ClassifyGatewayStatus(raw string) ExternalStatus {
	s := strings.ToUpper(strings.TrimSpace(raw))
	for _, v := range successStatuses {
		if s == v {
			return ExternalStatusCompleted
		}
	}
	for _, v := range pendingStatuses {
		if s == v {
			return ExternalStatusPending
		}
	}
	for _, v := range cancelStatuses {
		if s == v {
			return ExternalStatusCancelled
		}
	}
	for _, v := range failStatuses {
		if s == v {
			return ExternalStatusFailed
		}
	}
	return ExternalStatusPending
}

// InitiateRequest asks a gateway to open a payment for a transaction
type InitiateRequest struct {
	TenantID      uuid.UUID
	TransactionID uuid.UUID
	OrderNumber   string
	Amount        decimal.Decimal
	Currency      valueobject.Currency
	CustomerEmail string
	Description   string
	CallbackURL   string
	ReturnURL     string
	Metadata      map[string]string
}

// Validate validates the initiate request
func (r *InitiateRequest) Validate() error {
	if r.TenantID == uuid.Nil || r.TransactionID == uuid.Nil {
		return ErrInvalidInitiateRequest
	}
	if r.OrderNumber == "" {
		return ErrInvalidInitiateRequest
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidInitiateRequest
	}
	if r.CallbackURL == "" {
		return ErrInvalidInitiateRequest
	}
	return nil
}

// InitiateResponse is the gateway's answer to an initiate request
type InitiateResponse struct {
	GatewayOrderID string
	CheckoutURL    string
	Status         ExternalStatus
	RawResponse    string
}

// QueryRequest asks a gateway for the current state of a payment
type QueryRequest struct {
	TenantID       uuid.UUID
	GatewayOrderID string
	OrderNumber    string
}

// Validate validates the query request
func (r *QueryRequest) Validate() error {
	if r.TenantID == uuid.Nil {
		return ErrInvalidQueryRequest
	}
	if r.GatewayOrderID == "" && r.OrderNumber == "" {
		return ErrInvalidQueryRequest
	}
	return nil
}

// QueryResponse reports a payment's remote state. RawStatus carries the
// gateway's own status string; Status is its classification.
type QueryResponse struct {
	GatewayOrderID       string
	GatewayTransactionID string
	RawStatus            string
	Status               ExternalStatus
	PaidAmount           decimal.Decimal
	PaidAt               *time.Time
	RawResponse          string
}

// Callback is a verified payment notification pushed by a gateway
type Callback struct {
	Gateway              GatewayType
	GatewayOrderID       string
	GatewayTransactionID string
	OrderNumber          string
	RawStatus            string
	Status               ExternalStatus
	PaidAmount           decimal.Decimal
	PaidAt               *time.Time
	RawPayload           string
}

// Gateway is the port interface for hosted payment gateways. Implementations
// live in the infrastructure layer.
type Gateway interface {
	// Type returns the gateway identifier
	Type() GatewayType

	// Initiate opens a payment and returns where to send the customer
	Initiate(ctx context.Context, req *InitiateRequest) (*InitiateResponse, error)

	// Query returns the remote state of a previously initiated payment
	Query(ctx context.Context, req *QueryRequest) (*QueryResponse, error)

	// VerifyCallback verifies a pushed notification's signature and parses it.
	// Returns ErrGatewayInvalidCallback when the signature does not check out.
	VerifyCallback(ctx context.Context, payload []byte, signature string) (*Callback, error)

	// CallbackAck builds the body the gateway expects in response to a callback
	CallbackAck(success bool) []byte
}

// GatewayRegistry provides access to configured gateways
type GatewayRegistry interface {
	Get(gatewayType GatewayType) (Gateway, error)
	List() []Gateway
}
