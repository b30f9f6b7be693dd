package payment

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeTransaction = "PaymentTransaction"

// Event type constants
const (
	EventTypeTransactionCreated   = "PaymentTransactionCreated"
	EventTypeTransactionCompleted = "PaymentTransactionCompleted"
	EventTypeTransactionFailed    = "PaymentTransactionFailed"
)

// TransactionCreatedEvent is raised when a payment attempt starts
type TransactionCreatedEvent struct {
	shared.BaseDomainEvent
	TransactionID uuid.UUID       `json:"transaction_id"`
	OrderID       uuid.UUID       `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	Gateway       GatewayType     `json:"gateway"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
}

// NewTransactionCreatedEvent creates a new TransactionCreatedEvent
func NewTransactionCreatedEvent(t *Transaction) *TransactionCreatedEvent {
	return &TransactionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionCreated, AggregateTypeTransaction, t.ID, t.TenantID),
		TransactionID:   t.ID,
		OrderID:         t.OrderID,
		OrderNumber:     t.OrderNumber,
		Gateway:         t.Gateway,
		Amount:          t.Amount,
		Currency:        string(t.Currency),
	}
}

// EventType returns the event type name
func (e *TransactionCreatedEvent) EventType() string {
	return EventTypeTransactionCreated
}

// TransactionCompletedEvent is raised when a payment settles
type TransactionCompletedEvent struct {
	shared.BaseDomainEvent
	TransactionID        uuid.UUID       `json:"transaction_id"`
	OrderID              uuid.UUID       `json:"order_id"`
	OrderNumber          string          `json:"order_number"`
	Gateway              GatewayType     `json:"gateway"`
	GatewayTransactionID string          `json:"gateway_transaction_id"`
	PaidAmount           decimal.Decimal `json:"paid_amount"`
	Currency             string          `json:"currency"`
}

// NewTransactionCompletedEvent creates a new TransactionCompletedEvent
func NewTransactionCompletedEvent(t *Transaction) *TransactionCompletedEvent {
	return &TransactionCompletedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypeTransactionCompleted, AggregateTypeTransaction, t.ID, t.TenantID),
		TransactionID:        t.ID,
		OrderID:              t.OrderID,
		OrderNumber:          t.OrderNumber,
		Gateway:              t.Gateway,
		GatewayTransactionID: t.GatewayTransactionID,
		PaidAmount:           t.PaidAmount,
		Currency:             string(t.Currency),
	}
}

// EventType returns the event type name
func (e *TransactionCompletedEvent) EventType() string {
	return EventTypeTransactionCompleted
}

// TransactionFailedEvent is raised when a payment attempt fails
type TransactionFailedEvent struct {
	shared.BaseDomainEvent
	TransactionID  uuid.UUID         `json:"transaction_id"`
	OrderID        uuid.UUID         `json:"order_id"`
	OrderNumber    string            `json:"order_number"`
	Gateway        GatewayType       `json:"gateway"`
	PreviousStatus TransactionStatus `json:"previous_status"`
	FailureReason  string            `json:"failure_reason,omitempty"`
}

// NewTransactionFailedEvent creates a new TransactionFailedEvent
func NewTransactionFailedEvent(t *Transaction, prev TransactionStatus) *TransactionFailedEvent {
	return &TransactionFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionFailed, AggregateTypeTransaction, t.ID, t.TenantID),
		TransactionID:   t.ID,
		OrderID:         t.OrderID,
		OrderNumber:     t.OrderNumber,
		Gateway:         t.Gateway,
		PreviousStatus:  prev,
		FailureReason:   t.FailureReason,
	}
}

// EventType returns the event type name
func (e *TransactionFailedEvent) EventType() string {
	return EventTypeTransactionFailed
}
