package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Service errors
var (
	ErrGatewayNotRegistered = errors.New("payment service: gateway not registered")
	ErrCallbackVerification = errors.New("payment service: callback verification failed")
	ErrTransactionNotFound  = errors.New("payment service: transaction not found")
)

// ServiceConfig holds configuration for the payment service
type ServiceConfig struct {
	// CallbackBaseURL is the public base URL gateways call back to,
	// e.g. https://api.shop.example.com
	CallbackBaseURL string
	// IdempotencyTTL bounds how long a processed callback key is remembered
	IdempotencyTTL time.Duration
}

// DefaultServiceConfig returns the default configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		IdempotencyTTL: 24 * time.Hour,
	}
}

// Service handles payment initiation, polling, reconciliation and callbacks
type Service struct {
	transactionRepo payment.Repository
	orderRepo       order.Repository
	gateways        map[payment.GatewayType]payment.Gateway
	reconciliation  *ReconciliationService
	idempotency     shared.IdempotencyStore
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
	config          ServiceConfig
}

// NewService creates a new payment Service
func NewService(
	transactionRepo payment.Repository,
	orderRepo order.Repository,
	gateways []payment.Gateway,
	reconciliation *ReconciliationService,
	idempotency shared.IdempotencyStore,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
	config ServiceConfig,
) *Service {
	gatewayMap := make(map[payment.GatewayType]payment.Gateway, len(gateways))
	for _, gw := range gateways {
		gatewayMap[gw.Type()] = gw
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.IdempotencyTTL <= 0 {
		config.IdempotencyTTL = 24 * time.Hour
	}
	return &Service{
		transactionRepo: transactionRepo,
		orderRepo:       orderRepo,
		gateways:        gatewayMap,
		reconciliation:  reconciliation,
		idempotency:     idempotency,
		eventPublisher:  eventPublisher,
		logger:          logger,
		config:          config,
	}
}

// Gateway returns the registered gateway for a type
func (s *Service) Gateway(gatewayType payment.GatewayType) (payment.Gateway, error) {
	gw, ok := s.gateways[gatewayType]
	if !ok {
		return nil, ErrGatewayNotRegistered
	}
	return gw, nil
}

// Initiate opens a payment for an order. The order is looked up by number
// plus customer email, the storefront's anonymous credential.
func (s *Service) Initiate(ctx context.Context, tenantID uuid.UUID, req InitiatePaymentRequest) (*InitiatePaymentResponse, error) {
	gatewayType := payment.GatewayType(strings.ToUpper(req.Gateway))
	gw, err := s.Gateway(gatewayType)
	if err != nil {
		return nil, err
	}

	o, err := s.orderRepo.FindByOrderNumber(ctx, tenantID, req.OrderNumber)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(o.CustomerEmail, req.Email) {
		// Same answer as a missing order so order numbers cannot be probed
		return nil, shared.ErrNotFound
	}
	if o.PaymentCompleted {
		return nil, shared.NewDomainError("ALREADY_PAID", "Order is already paid")
	}
	if o.Status.IsTerminal() {
		return nil, shared.NewDomainError("ORDER_CLOSED", "Order is no longer payable")
	}

	// Reuse an open transaction for the same gateway instead of stacking them
	txn, err := s.transactionRepo.FindByOrderNumber(ctx, tenantID, req.OrderNumber)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if txn == nil || txn.Status.IsFinal() || txn.Gateway != gatewayType {
		txn, err = payment.NewTransaction(tenantID, o.ID, o.OrderNumber, gatewayType, o.TotalAmount, o.Currency)
		if err != nil {
			return nil, err
		}
		if err := s.transactionRepo.Save(ctx, txn); err != nil {
			return nil, err
		}
		s.publishEvents(ctx, txn.GetDomainEvents())
		txn.ClearDomainEvents()
	}

	initReq := &payment.InitiateRequest{
		TenantID:      tenantID,
		TransactionID: txn.ID,
		OrderNumber:   o.OrderNumber,
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		CustomerEmail: o.CustomerEmail,
		Description:   fmt.Sprintf("Order %s", o.OrderNumber),
		CallbackURL:   s.callbackURL(gatewayType),
		ReturnURL:     req.ReturnURL,
	}
	if err := initReq.Validate(); err != nil {
		return nil, err
	}

	initResp, err := gw.Initiate(ctx, initReq)
	if err != nil {
		s.logger.Error("Gateway initiate failed",
			zap.String("gateway", gatewayType.String()),
			zap.String("order_number", o.OrderNumber),
			zap.Error(err))
		return nil, err
	}

	txn.BindGatewayOrder(initResp.GatewayOrderID)
	if err := s.transactionRepo.Save(ctx, txn); err != nil {
		return nil, err
	}

	return &InitiatePaymentResponse{
		TransactionID: txn.ID,
		OrderNumber:   o.OrderNumber,
		Gateway:       gatewayType.String(),
		CheckoutURL:   initResp.CheckoutURL,
		Status:        txn.ExternalStatus().String(),
	}, nil
}

// GetStatus answers a storefront poll. Non-final transactions are refreshed
// against the gateway first, so the customer returning from checkout sees the
// settled state even when the callback has not arrived yet.
func (s *Service) GetStatus(ctx context.Context, tenantID uuid.UUID, orderNumber, email string) (*PaymentStatusResponse, error) {
	o, err := s.orderRepo.FindByOrderNumber(ctx, tenantID, orderNumber)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(o.CustomerEmail, email) {
		return nil, shared.ErrNotFound
	}

	txn, err := s.transactionRepo.FindByOrderNumber(ctx, tenantID, orderNumber)
	if err != nil {
		return nil, err
	}

	if !txn.Status.IsFinal() {
		if err := s.pollRemote(ctx, txn); err != nil {
			// A gateway hiccup must not break polling; answer with what we have
			s.logger.Warn("Remote poll failed",
				zap.String("order_number", orderNumber),
				zap.Error(err))
		}
	}

	return ToStatusResponse(txn), nil
}

// Repoll queries the gateway for a transaction and reconciles the answer.
// Used by the back office for stuck payments.
func (s *Service) Repoll(ctx context.Context, tenantID, transactionID uuid.UUID) (*TransactionResponse, error) {
	txn, err := s.transactionRepo.FindByIDForTenant(ctx, tenantID, transactionID)
	if err != nil {
		return nil, err
	}

	if err := s.pollRemote(ctx, txn); err != nil {
		return nil, err
	}

	return ToTransactionResponse(txn), nil
}

// List returns transactions for the back office
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter TransactionListFilter) (*shared.Paginated[TransactionResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	f.Search = filter.Search
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
		f.OrderDir = filter.OrderDir
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if filter.Gateway != "" {
		f.Filters["gateway"] = filter.Gateway
	}

	txns, err := s.transactionRepo.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.transactionRepo.CountForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}

	items := make([]TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, *ToTransactionResponse(&txns[i]))
	}
	page := shared.NewPaginated(items, total, f.Page, f.Limit())
	return &page, nil
}

// Get returns a single transaction for the back office
func (s *Service) Get(ctx context.Context, tenantID, transactionID uuid.UUID) (*TransactionResponse, error) {
	txn, err := s.transactionRepo.FindByIDForTenant(ctx, tenantID, transactionID)
	if err != nil {
		return nil, err
	}
	return ToTransactionResponse(txn), nil
}

// HandleCallback verifies and processes a pushed gateway notification.
// Replayed callbacks are acknowledged without reprocessing.
func (s *Service) HandleCallback(ctx context.Context, gatewayType payment.GatewayType, payload []byte, signature string) (*CallbackResult, error) {
	gw, err := s.Gateway(gatewayType)
	if err != nil {
		return nil, err
	}

	callback, err := gw.VerifyCallback(ctx, payload, signature)
	if err != nil {
		s.logger.Warn("Callback verification failed",
			zap.String("gateway", gatewayType.String()),
			zap.Error(err))
		return &CallbackResult{Success: false, Ack: gw.CallbackAck(false)},
			fmt.Errorf("%w: %v", ErrCallbackVerification, err)
	}

	s.logger.Info("Payment callback received",
		zap.String("gateway", gatewayType.String()),
		zap.String("gateway_order_id", callback.GatewayOrderID),
		zap.String("order_number", callback.OrderNumber),
		zap.String("raw_status", callback.RawStatus),
		zap.String("status", callback.Status.String()))

	idempotencyKey := fmt.Sprintf("payment:callback:%s:%s", gatewayType, callback.GatewayTransactionID)
	if s.idempotency != nil && callback.GatewayTransactionID != "" {
		fresh, err := s.idempotency.MarkProcessed(ctx, idempotencyKey, s.config.IdempotencyTTL)
		if err != nil {
			s.logger.Warn("Idempotency check unavailable, processing anyway", zap.Error(err))
		} else if !fresh {
			return &CallbackResult{
				Success:          true,
				AlreadyProcessed: true,
				OrderNumber:      callback.OrderNumber,
				Ack:              gw.CallbackAck(true),
			}, nil
		}
	}

	if err := s.applyCallback(ctx, gatewayType, callback); err != nil {
		if s.idempotency != nil && callback.GatewayTransactionID != "" {
			// Let the gateway retry
			_ = s.idempotency.Unmark(ctx, idempotencyKey)
		}
		s.logger.Error("Failed to apply payment callback",
			zap.String("gateway_order_id", callback.GatewayOrderID),
			zap.Error(err))
		return &CallbackResult{Success: false, OrderNumber: callback.OrderNumber, Ack: gw.CallbackAck(false)}, err
	}

	return &CallbackResult{Success: true, OrderNumber: callback.OrderNumber, Ack: gw.CallbackAck(true)}, nil
}

func (s *Service) applyCallback(ctx context.Context, gatewayType payment.GatewayType, callback *payment.Callback) error {
	txn, err := s.findCallbackTransaction(ctx, gatewayType, callback)
	if err != nil {
		return err
	}

	result := &payment.QueryResponse{
		GatewayOrderID:       callback.GatewayOrderID,
		GatewayTransactionID: callback.GatewayTransactionID,
		RawStatus:            callback.RawStatus,
		Status:               callback.Status,
		PaidAmount:           callback.PaidAmount,
		PaidAt:               callback.PaidAt,
		RawResponse:          callback.RawPayload,
	}

	return s.reconcile(ctx, txn, result)
}

// pollRemote queries the gateway and reconciles the classified answer
func (s *Service) pollRemote(ctx context.Context, txn *payment.Transaction) error {
	gw, err := s.Gateway(txn.Gateway)
	if err != nil {
		return err
	}

	queryReq := &payment.QueryRequest{
		TenantID:       txn.TenantID,
		GatewayOrderID: txn.GatewayOrderID,
		OrderNumber:    txn.OrderNumber,
	}
	if err := queryReq.Validate(); err != nil {
		return err
	}

	result, err := gw.Query(ctx, queryReq)
	if err != nil {
		return err
	}

	return s.reconcile(ctx, txn, result)
}

// reconcile persists a gateway result and propagates a completed payment to
// the order
func (s *Service) reconcile(ctx context.Context, txn *payment.Transaction, result *payment.QueryResponse) error {
	changed, err := s.reconciliation.Apply(ctx, txn, result)
	if err != nil {
		return err
	}

	if changed {
		s.publishEvents(ctx, txn.GetDomainEvents())
		txn.ClearDomainEvents()
	}

	// Order propagation runs on the no-change path too: a retried callback
	// may find the transaction already settled while the order update from
	// the first delivery never landed. markOrderPaid is a no-op once the
	// order records the payment.
	if txn.Status == payment.TransactionStatusCompleted {
		if err := s.markOrderPaid(ctx, txn); err != nil {
			// The transaction record is already settled; surface but do not
			// undo the reconciliation
			s.logger.Error("Failed to mark order paid",
				zap.String("order_number", txn.OrderNumber),
				zap.Error(err))
			return err
		}
	}

	return nil
}

func (s *Service) markOrderPaid(ctx context.Context, txn *payment.Transaction) error {
	o, err := s.orderRepo.FindByIDForTenant(ctx, txn.TenantID, txn.OrderID)
	if err != nil {
		return err
	}
	if o.PaymentCompleted {
		return nil
	}

	o.MarkPaymentCompleted()
	if o.Status == order.StatusPending {
		// Paid orders move straight to confirmed
		if err := o.TransitionTo(order.StatusConfirmed); err != nil {
			return err
		}
	}

	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return err
	}

	s.publishEvents(ctx, o.GetDomainEvents())
	o.ClearDomainEvents()
	return nil
}

func (s *Service) findCallbackTransaction(ctx context.Context, gatewayType payment.GatewayType, callback *payment.Callback) (*payment.Transaction, error) {
	if callback.GatewayOrderID != "" {
		txn, err := s.transactionRepo.FindByGatewayOrderID(ctx, gatewayType, callback.GatewayOrderID)
		if err == nil {
			return txn, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: gateway order %q", ErrTransactionNotFound, callback.GatewayOrderID)
}

func (s *Service) callbackURL(gatewayType payment.GatewayType) string {
	base := strings.TrimRight(s.config.CallbackBaseURL, "/")
	return fmt.Sprintf("%s/api/v1/store/payments/callback/%s", base, strings.ToLower(gatewayType.String()))
}

func (s *Service) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish domain events", zap.Error(err))
	}
}
