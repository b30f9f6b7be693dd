package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockTransactionRepository creates a GormTransactionRepository with a mocked SQL connection
func newMockTransactionRepository(t *testing.T) (*GormTransactionRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormTransactionRepository(gormDB), mock, mockDB
}

func statusUpdateFixture() payment.StatusUpdate {
	paidAt := time.Now()
	return payment.StatusUpdate{
		Status:               payment.TransactionStatusCompleted,
		GatewayTransactionID: "txn_abc123",
		PaidAmount:           decimal.RequireFromString("44.98"),
		PaidAt:               &paidAt,
		GatewayMetadata:      `{"raw":"payload"}`,
	}
}

func TestGormTransactionRepository_UpdateFull(t *testing.T) {
	t.Run("writes all columns including gateway_metadata", func(t *testing.T) {
		repo, mock, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		mock.ExpectExec(`UPDATE "payment_transactions" SET .*"gateway_metadata".*WHERE id = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateFull(context.Background(), id, statusUpdateFixture())

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps undefined column to ErrColumnMissing", func(t *testing.T) {
		repo, mock, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "payment_transactions"`).
			WillReturnError(&pgconn.PgError{Code: "42703", Message: `column "gateway_metadata" of relation "payment_transactions" does not exist`})

		err := repo.UpdateFull(context.Background(), uuid.New(), statusUpdateFixture())

		assert.ErrorIs(t, err, payment.ErrColumnMissing)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("passes through other database errors", func(t *testing.T) {
		repo, mock, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "payment_transactions"`).
			WillReturnError(&pgconn.PgError{Code: "53300", Message: "too many connections"})

		err := repo.UpdateFull(context.Background(), uuid.New(), statusUpdateFixture())

		assert.Error(t, err)
		assert.NotErrorIs(t, err, payment.ErrColumnMissing)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when no row matches", func(t *testing.T) {
		repo, mock, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "payment_transactions"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateFull(context.Background(), uuid.New(), statusUpdateFixture())

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTransactionRepository_UpdateWithoutMetadata(t *testing.T) {
	t.Run("never touches the gateway_metadata column", func(t *testing.T) {
		repo, mock, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "payment_transactions" SET "gateway_transaction_id"=\$\d+,"paid_amount"=\$\d+,"paid_at"=\$\d+,"status"=\$\d+,"updated_at"=\$\d+ WHERE id = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateWithoutMetadata(context.Background(), uuid.New(), statusUpdateFixture())

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps undefined column to ErrColumnMissing", func(t *testing.T) {
		repo, mock, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "payment_transactions"`).
			WillReturnError(&pgconn.PgError{Code: "42703", Message: `column "paid_at" does not exist`})

		err := repo.UpdateWithoutMetadata(context.Background(), uuid.New(), statusUpdateFixture())

		assert.ErrorIs(t, err, payment.ErrColumnMissing)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTransactionRepository_UpdateStatusOnly(t *testing.T) {
	t.Run("writes only status and updated_at", func(t *testing.T) {
		repo, mock, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		mock.ExpectExec(`UPDATE "payment_transactions" SET "status"=\$1,"updated_at"=\$2 WHERE id = \$3`).
			WithArgs("failed", sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatusOnly(context.Background(), id, payment.TransactionStatusFailed)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTransactionRepository_FindByGatewayOrderID(t *testing.T) {
	t.Run("finds transaction without tenant scope", func(t *testing.T) {
		repo, mock, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		txID := uuid.New()
		tenantID := uuid.New()
		orderID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "order_id", "order_number", "gateway", "gateway_order_id", "amount", "currency", "paid_amount", "status"}).
			AddRow(txID, tenantID, orderID, "ORD-2026-00042", "PAYGATE", "pg_9f1c", decimal.RequireFromString("44.98"), "USD", decimal.Zero, "processing")

		mock.ExpectQuery(`SELECT \* FROM "payment_transactions" WHERE gateway = \$1 AND gateway_order_id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs("PAYGATE", "pg_9f1c", 1).
			WillReturnRows(rows)

		tx, err := repo.FindByGatewayOrderID(context.Background(), payment.GatewayTypePayGate, "pg_9f1c")

		require.NoError(t, err)
		assert.Equal(t, txID, tx.ID)
		assert.Equal(t, "ORD-2026-00042", tx.OrderNumber)
		assert.Equal(t, payment.TransactionStatusProcessing, tx.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for unknown reference", func(t *testing.T) {
		repo, mock, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "payment_transactions"`).
			WillReturnError(gorm.ErrRecordNotFound)

		tx, err := repo.FindByGatewayOrderID(context.Background(), payment.GatewayTypePayGate, "missing")

		assert.Nil(t, tx)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
