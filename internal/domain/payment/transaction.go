package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// TransactionStatus is the internal lifecycle status of a payment transaction
type TransactionStatus string

const (
	TransactionStatusPending              TransactionStatus = "pending"
	TransactionStatusProcessing           TransactionStatus = "processing"
	TransactionStatusCompleted            TransactionStatus = "completed"
	TransactionStatusFailed               TransactionStatus = "failed"
	TransactionStatusCancelled            TransactionStatus = "cancelled"
	TransactionStatusAwaitingVerification TransactionStatus = "awaiting_verification"
)

// IsValid returns true if the status is a known TransactionStatus
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusProcessing, TransactionStatusCompleted,
		TransactionStatusFailed, TransactionStatusCancelled, TransactionStatusAwaitingVerification:
		return true
	}
	return false
}

// String returns the string representation of TransactionStatus
func (s TransactionStatus) String() string {
	return string(s)
}

// IsFinal returns true for terminal statuses
func (s TransactionStatus) IsFinal() bool {
	switch s {
	case TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled:
		return true
	}
	return false
}

// ExternalStatus is the payment status vocabulary surfaced to clients.
// Internal bookkeeping states collapse into this smaller set.
type ExternalStatus string

const (
	ExternalStatusPending    ExternalStatus = "PENDING"
	ExternalStatusProcessing ExternalStatus = "PROCESSING"
	ExternalStatusCompleted  ExternalStatus = "COMPLETED"
	ExternalStatusFailed     ExternalStatus = "FAILED"
	ExternalStatusCancelled  ExternalStatus = "CANCELLED"
)

// String returns the string representation of ExternalStatus
func (s ExternalStatus) String() string {
	return string(s)
}

// External maps an internal transaction status to the status surfaced to
// clients. awaiting_verification is deliberately reported as PENDING: the
// customer has done their part and the distinction is internal.
func (s TransactionStatus) External() ExternalStatus {
	switch s {
	case TransactionStatusCompleted:
		return ExternalStatusCompleted
	case TransactionStatusFailed:
		return ExternalStatusFailed
	case TransactionStatusProcessing:
		return ExternalStatusProcessing
	case TransactionStatusCancelled:
		return ExternalStatusCancelled
	case TransactionStatusPending, TransactionStatusAwaitingVerification:
		return ExternalStatusPending
	}
	return ExternalStatusPending
}

// Internal converts an external status back to the internal status recorded
// after gateway reconciliation.
func (s ExternalStatus) Internal() TransactionStatus {
	switch s {
	case ExternalStatusCompleted:
		return TransactionStatusCompleted
	case ExternalStatusFailed:
		return TransactionStatusFailed
	case ExternalStatusProcessing:
		return TransactionStatusProcessing
	case ExternalStatusCancelled:
		return TransactionStatusCancelled
	}
	return TransactionStatusPending
}

// Transaction is the aggregate root for a single payment attempt against an
// order. An order may accumulate several transactions (retries after
// failure); at most one completes.
type Transaction struct {
	shared.TenantAggregateRoot
	OrderID              uuid.UUID
	OrderNumber          string
	Gateway              GatewayType
	GatewayOrderID       string
	GatewayTransactionID string
	Amount               decimal.Decimal
	Currency             valueobject.Currency
	PaidAmount           decimal.Decimal
	Status               TransactionStatus
	FailureReason        string
	GatewayMetadata      string // raw gateway response, JSON
	PaidAt               *time.Time
}

// NewTransaction creates a pending transaction for an order
func NewTransaction(tenantID, orderID uuid.UUID, orderNumber string, gateway GatewayType, amount decimal.Decimal, currency valueobject.Currency) (*Transaction, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if !gateway.IsValid() {
		return nil, shared.NewDomainError("INVALID_GATEWAY", "Unknown payment gateway: "+gateway.String())
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	txn := &Transaction{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderID:             orderID,
		OrderNumber:         orderNumber,
		Gateway:             gateway,
		Amount:              amount,
		Currency:            currency,
		PaidAmount:          decimal.Zero,
		Status:              TransactionStatusPending,
	}
	txn.AddDomainEvent(NewTransactionCreatedEvent(txn))
	return txn, nil
}

// ExternalStatus returns the status surfaced to clients
func (t *Transaction) ExternalStatus() ExternalStatus {
	return t.Status.External()
}

// BindGatewayOrder records the gateway-side order reference after initiation
func (t *Transaction) BindGatewayOrder(gatewayOrderID string) {
	t.GatewayOrderID = gatewayOrderID
	if t.Status == TransactionStatusPending {
		t.Status = TransactionStatusProcessing
	}
	t.UpdatedAt = time.Now()
}

// ApplyExternal applies a reconciled external status to the transaction.
// Completed transactions are immutable; a late contradictory gateway result
// is ignored rather than regressing the record.
func (t *Transaction) ApplyExternal(status ExternalStatus, gatewayTransactionID string, paidAmount decimal.Decimal, paidAt *time.Time, metadata string) bool {
	if t.Status.IsFinal() {
		return false
	}

	next := status.Internal()
	if next == t.Status && gatewayTransactionID == "" {
		return false
	}

	prev := t.Status
	t.Status = next
	if gatewayTransactionID != "" {
		t.GatewayTransactionID = gatewayTransactionID
	}
	if metadata != "" {
		t.GatewayMetadata = metadata
	}
	t.UpdatedAt = time.Now()

	switch next {
	case TransactionStatusCompleted:
		if paidAmount.IsPositive() {
			t.PaidAmount = paidAmount
		} else {
			t.PaidAmount = t.Amount
		}
		if paidAt != nil {
			t.PaidAt = paidAt
		} else {
			now := time.Now()
			t.PaidAt = &now
		}
		t.AddDomainEvent(NewTransactionCompletedEvent(t))
	case TransactionStatusFailed:
		t.AddDomainEvent(NewTransactionFailedEvent(t, prev))
	}
	return true
}

// MarkAwaitingVerification parks the transaction until an out-of-band check
// (e.g. a bank transfer reference) confirms it
func (t *Transaction) MarkAwaitingVerification() error {
	if t.Status.IsFinal() {
		return shared.ErrInvalidState
	}
	t.Status = TransactionStatusAwaitingVerification
	t.UpdatedAt = time.Now()
	return nil
}

// Fail marks the transaction failed with a reason
func (t *Transaction) Fail(reason string) error {
	if t.Status.IsFinal() {
		return shared.ErrInvalidState
	}
	prev := t.Status
	t.Status = TransactionStatusFailed
	t.FailureReason = reason
	t.UpdatedAt = time.Now()
	t.AddDomainEvent(NewTransactionFailedEvent(t, prev))
	return nil
}

// Cancel marks the transaction cancelled (customer abandoned checkout)
func (t *Transaction) Cancel() error {
	if t.Status.IsFinal() {
		return shared.ErrInvalidState
	}
	t.Status = TransactionStatusCancelled
	t.UpdatedAt = time.Now()
	return nil
}
