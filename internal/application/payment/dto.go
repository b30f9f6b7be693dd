package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/payment"
)

// InitiatePaymentRequest starts a payment for an order at checkout
type InitiatePaymentRequest struct {
	OrderNumber string `json:"order_number" binding:"required,min=1,max=50"`
	Email       string `json:"email" binding:"required,email"`
	Gateway     string `json:"gateway" binding:"required,oneof=PAYGATE STRIPE"`
	ReturnURL   string `json:"return_url" binding:"omitempty,url,max=2000"`
}

// InitiatePaymentResponse carries where to send the customer
type InitiatePaymentResponse struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	OrderNumber   string    `json:"order_number"`
	Gateway       string    `json:"gateway"`
	CheckoutURL   string    `json:"checkout_url"`
	Status        string    `json:"status"`
}

// PaymentStatusResponse is the storefront polling answer. Status uses the
// external vocabulary only.
type PaymentStatusResponse struct {
	OrderNumber string          `json:"order_number"`
	Status      string          `json:"status"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
}

// TransactionResponse is the back-office view of a transaction
type TransactionResponse struct {
	ID                   uuid.UUID       `json:"id"`
	OrderID              uuid.UUID       `json:"order_id"`
	OrderNumber          string          `json:"order_number"`
	Gateway              string          `json:"gateway"`
	GatewayOrderID       string          `json:"gateway_order_id,omitempty"`
	GatewayTransactionID string          `json:"gateway_transaction_id,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	PaidAmount           decimal.Decimal `json:"paid_amount"`
	Status               string          `json:"status"`
	ExternalStatus       string          `json:"external_status"`
	FailureReason        string          `json:"failure_reason,omitempty"`
	PaidAt               *time.Time      `json:"paid_at,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// TransactionListFilter represents filter options for the transaction list
type TransactionListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending processing completed failed cancelled awaiting_verification"`
	Gateway  string `form:"gateway" binding:"omitempty,oneof=PAYGATE STRIPE"`
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CallbackResult is the outcome of processing a gateway callback. Ack carries
// the body the gateway expects in the HTTP response.
type CallbackResult struct {
	Success          bool
	AlreadyProcessed bool
	OrderNumber      string
	Ack              []byte
}

// ToTransactionResponse converts a transaction aggregate to a response DTO
func ToTransactionResponse(t *payment.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:                   t.ID,
		OrderID:              t.OrderID,
		OrderNumber:          t.OrderNumber,
		Gateway:              t.Gateway.String(),
		GatewayOrderID:       t.GatewayOrderID,
		GatewayTransactionID: t.GatewayTransactionID,
		Amount:               t.Amount,
		Currency:             string(t.Currency),
		PaidAmount:           t.PaidAmount,
		Status:               t.Status.String(),
		ExternalStatus:       t.ExternalStatus().String(),
		FailureReason:        t.FailureReason,
		PaidAt:               t.PaidAt,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}

// ToStatusResponse converts a transaction to the storefront polling answer
func ToStatusResponse(t *payment.Transaction) *PaymentStatusResponse {
	return &PaymentStatusResponse{
		OrderNumber: t.OrderNumber,
		Status:      t.ExternalStatus().String(),
		PaidAmount:  t.PaidAmount,
		PaidAt:      t.PaidAt,
	}
}
