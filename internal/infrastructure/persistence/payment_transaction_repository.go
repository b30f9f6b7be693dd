package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const (
	// pgUndefinedColumn is the SQLSTATE for "column does not exist".
	pgUndefinedColumn = "42703"
	// pgUniqueViolation is the SQLSTATE for a unique constraint violation.
	pgUniqueViolation = "23505"
)

// GormTransactionRepository implements payment.Repository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID finds a transaction by its ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a transaction by ID within a tenant
func (r *GormTransactionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*payment.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrder finds all transactions for an order, newest first
func (r *GormTransactionRepository) FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]payment.Transaction, error) {
	var txModels []models.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Order("created_at DESC").
		Find(&txModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(txModels), nil
}

// FindByGatewayOrderID finds a transaction by the gateway-side order reference.
// Callback payloads carry no tenant, so this lookup is deliberately unscoped;
// the gateway order ID is unique per gateway.
func (r *GormTransactionRepository) FindByGatewayOrderID(ctx context.Context, gateway payment.GatewayType, gatewayOrderID string) (*payment.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("gateway = ? AND gateway_order_id = ?", gateway, gatewayOrderID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrderNumber finds the latest transaction for an order number
func (r *GormTransactionRepository) FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*payment.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND order_number = ?", tenantID, orderNumber).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds transactions for a tenant with filtering
func (r *GormTransactionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]payment.Transaction, error) {
	var txModels []models.TransactionModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.TransactionModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Find(&txModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(txModels), nil
}

// CountForTenant counts transactions for a tenant with optional filters
func (r *GormTransactionRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.TransactionModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a transaction
func (r *GormTransactionRepository) Save(ctx context.Context, t *payment.Transaction) error {
	model := models.TransactionModelFromDomain(t)
	return r.db.WithContext(ctx).Save(model).Error
}

// UpdateFull applies a status update with all columns including gateway_metadata
func (r *GormTransactionRepository) UpdateFull(ctx context.Context, id uuid.UUID, update payment.StatusUpdate) error {
	columns := r.updateColumns(update)
	columns["gateway_metadata"] = update.GatewayMetadata
	return r.execUpdate(ctx, id, columns)
}

// UpdateWithoutMetadata applies a status update minus the gateway_metadata column
func (r *GormTransactionRepository) UpdateWithoutMetadata(ctx context.Context, id uuid.UUID, update payment.StatusUpdate) error {
	return r.execUpdate(ctx, id, r.updateColumns(update))
}

// UpdateStatusOnly applies only the status column
func (r *GormTransactionRepository) UpdateStatusOnly(ctx context.Context, id uuid.UUID, status payment.TransactionStatus) error {
	return r.execUpdate(ctx, id, map[string]interface{}{
		"status":     string(status),
		"updated_at": time.Now(),
	})
}

func (r *GormTransactionRepository) updateColumns(update payment.StatusUpdate) map[string]interface{} {
	columns := map[string]interface{}{
		"status":     string(update.Status),
		"updated_at": time.Now(),
	}
	if update.GatewayTransactionID != "" {
		columns["gateway_transaction_id"] = update.GatewayTransactionID
	}
	if !update.PaidAmount.IsZero() {
		columns["paid_amount"] = update.PaidAmount
	}
	if update.PaidAt != nil {
		columns["paid_at"] = update.PaidAt
	}
	return columns
}

func (r *GormTransactionRepository) execUpdate(ctx context.Context, id uuid.UUID, columns map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Where("id = ?", id).
		Updates(columns)
	if result.Error != nil {
		if isUndefinedColumn(result.Error) {
			return payment.ErrColumnMissing
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// isUndefinedColumn reports whether the error is a missing-column error.
// Postgres reports SQLSTATE 42703; SQLite (used in tests) reports a plain
// "no such column" message.
func isUndefinedColumn(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUndefinedColumn
	}
	msg := err.Error()
	return strings.Contains(msg, pgUndefinedColumn) || strings.Contains(msg, "no such column")
}

// isUniqueViolation reports whether the error is a unique constraint
// violation. Postgres reports SQLSTATE 23505; SQLite (used in tests)
// reports a "UNIQUE constraint failed" message.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *GormTransactionRepository) toDomainSlice(txModels []models.TransactionModel) []payment.Transaction {
	transactions := make([]payment.Transaction, 0, len(txModels))
	for i := range txModels {
		transactions = append(transactions, *txModels[i].ToDomain())
	}
	return transactions
}

// applyFilter applies filter options to the query
func (r *GormTransactionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	field := ValidateSortField(filter.OrderBy, TransactionSortFields, "created_at")
	query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormTransactionRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("order_number ILIKE ? OR gateway_order_id ILIKE ?",
			searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "order_id":
			query = query.Where("order_id = ?", value)
		case "gateway":
			query = query.Where("gateway = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at <= ?", t)
			}
		}
	}

	return query
}
