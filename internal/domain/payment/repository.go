package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// ErrColumnMissing is returned by repository update methods when the database
// reports an undefined column (SQLSTATE 42703). Databases migrated before the
// gateway_metadata column existed trigger this.
var ErrColumnMissing = errors.New("payment: column missing")

// StatusUpdate carries the fields of a reconciliation write. Which of them
// actually reach the database depends on the write path the repository
// manages to execute (see Repository.Update* methods).
type StatusUpdate struct {
	Status               TransactionStatus
	GatewayTransactionID string
	PaidAmount           decimal.Decimal
	PaidAt               *time.Time
	GatewayMetadata      string
}

// Repository defines the interface for payment transaction persistence.
//
// The three Update methods are the degrading write paths used by
// reconciliation: UpdateFull writes every field including gateway_metadata;
// UpdateWithoutMetadata is the fallback for databases migrated before that
// column existed; UpdateStatusOnly is the last resort.
type Repository interface {
	// FindByID finds a transaction by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindByIDForTenant finds a transaction by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Transaction, error)

	// FindByOrder finds all transactions for an order, newest first
	FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]Transaction, error)

	// FindByGatewayOrderID finds a transaction by the gateway-side order reference
	FindByGatewayOrderID(ctx context.Context, gateway GatewayType, gatewayOrderID string) (*Transaction, error)

	// FindByOrderNumber finds the latest transaction for an order number
	FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*Transaction, error)

	// FindAllForTenant finds transactions for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Transaction, error)

	// CountForTenant counts transactions for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// Save creates or updates a transaction
	Save(ctx context.Context, t *Transaction) error

	// UpdateFull applies a status update with all columns
	UpdateFull(ctx context.Context, id uuid.UUID, update StatusUpdate) error

	// UpdateWithoutMetadata applies a status update minus the gateway_metadata column
	UpdateWithoutMetadata(ctx context.Context, id uuid.UUID, update StatusUpdate) error

	// UpdateStatusOnly applies only the status column
	UpdateStatusOnly(ctx context.Context, id uuid.UUID, status TransactionStatus) error
}
