package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/storefront/backend/internal/domain/payment"
	"go.uber.org/zap"
)

// ErrReconciliationFailed is returned when every write path failed
var ErrReconciliationFailed = errors.New("payment reconciliation: all write paths failed")

// ReconciliationService applies gateway results to stored transactions.
//
// Persisting the result tries three degrading write paths in order: the full
// update, the same update minus the gateway_metadata column, and finally a
// status-only update. The fallback keeps reconciliation working against
// databases whose schema predates the metadata column, and against partial
// storage failures where recording the status transition is worth more than
// losing the run.
type ReconciliationService struct {
	transactionRepo payment.Repository
	logger          *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(transactionRepo payment.Repository, logger *zap.Logger) *ReconciliationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

// Apply applies a classified gateway result to the transaction and persists
// it. Returns true when the transaction changed. The transaction's domain
// events are left on the aggregate for the caller to publish after the write
// lands.
func (s *ReconciliationService) Apply(ctx context.Context, txn *payment.Transaction, result *payment.QueryResponse) (bool, error) {
	changed := txn.ApplyExternal(result.Status, result.GatewayTransactionID, result.PaidAmount, result.PaidAt, result.RawResponse)
	if !changed {
		s.logger.Debug("Reconciliation found nothing to apply",
			zap.String("transaction_id", txn.ID.String()),
			zap.String("status", txn.Status.String()))
		return false, nil
	}

	update := payment.StatusUpdate{
		Status:               txn.Status,
		GatewayTransactionID: txn.GatewayTransactionID,
		PaidAmount:           txn.PaidAmount,
		PaidAt:               txn.PaidAt,
		GatewayMetadata:      txn.GatewayMetadata,
	}

	if err := s.persist(ctx, txn, update); err != nil {
		return false, err
	}
	return true, nil
}

// persist walks the degrading write paths
func (s *ReconciliationService) persist(ctx context.Context, txn *payment.Transaction, update payment.StatusUpdate) error {
	err := s.transactionRepo.UpdateFull(ctx, txn.ID, update)
	if err == nil {
		return nil
	}

	if errors.Is(err, payment.ErrColumnMissing) {
		s.logger.Warn("Full update hit missing column, retrying without metadata",
			zap.String("transaction_id", txn.ID.String()))
	} else {
		s.logger.Warn("Full update failed, retrying without metadata",
			zap.String("transaction_id", txn.ID.String()),
			zap.Error(err))
	}

	err = s.transactionRepo.UpdateWithoutMetadata(ctx, txn.ID, update)
	if err == nil {
		return nil
	}

	s.logger.Warn("Update without metadata failed, retrying status only",
		zap.String("transaction_id", txn.ID.String()),
		zap.Error(err))

	if err = s.transactionRepo.UpdateStatusOnly(ctx, txn.ID, update.Status); err != nil {
		s.logger.Error("All reconciliation write paths failed",
			zap.String("transaction_id", txn.ID.String()),
			zap.String("status", update.Status.String()),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrReconciliationFailed, err)
	}

	return nil
}
