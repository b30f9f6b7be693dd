package payment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*order.Order, error) {
	args := m.Called(ctx, tenantID, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, tenantID, customerID, filter)
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status order.Status, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, tenantID, status, filter)
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) GenerateOrderNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status order.Status) (int64, error) {
	args := m.Called(ctx, tenantID, status)
	return args.Get(0).(int64), args.Error(1)
}

// MockGateway is a mock implementation of payment.Gateway
type MockGateway struct {
	mock.Mock
	gatewayType payment.GatewayType
}

func (m *MockGateway) Type() payment.GatewayType {
	return m.gatewayType
}

func (m *MockGateway) Initiate(ctx context.Context, req *payment.InitiateRequest) (*payment.InitiateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.InitiateResponse), args.Error(1)
}

func (m *MockGateway) Query(ctx context.Context, req *payment.QueryRequest) (*payment.QueryResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.QueryResponse), args.Error(1)
}

func (m *MockGateway) VerifyCallback(ctx context.Context, payload []byte, signature string) (*payment.Callback, error) {
	args := m.Called(ctx, payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Callback), args.Error(1)
}

func (m *MockGateway) CallbackAck(success bool) []byte {
	if success {
		return []byte("OK")
	}
	return []byte("FAIL")
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Unmark(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return nil
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

type serviceFixture struct {
	svc         *Service
	txnRepo     *MockTransactionRepository
	orderRepo   *MockOrderRepository
	gateway     *MockGateway
	idempotency *MockIdempotencyStore
	publisher   *MockEventPublisher
}

func newFixture() *serviceFixture {
	f := &serviceFixture{
		txnRepo:     new(MockTransactionRepository),
		orderRepo:   new(MockOrderRepository),
		gateway:     &MockGateway{gatewayType: payment.GatewayTypePayGate},
		idempotency: new(MockIdempotencyStore),
		publisher:   new(MockEventPublisher),
	}
	f.svc = NewService(
		f.txnRepo,
		f.orderRepo,
		[]payment.Gateway{f.gateway},
		NewReconciliationService(f.txnRepo, nil),
		f.idempotency,
		f.publisher,
		nil,
		ServiceConfig{CallbackBaseURL: "https://api.shop.example.com"},
	)
	return f
}

func newTestOrder(t *testing.T, tenantID uuid.UUID) *order.Order {
	t.Helper()
	addr, err := valueobject.NewAddress("1 Main St", "", "Springfield", "IL", "62704", "US")
	require.NoError(t, err)
	o, err := order.New(tenantID, "ORD-2026-0042", uuid.New(), "jamie@example.com", "Jamie Doe", addr, valueobject.USD)
	require.NoError(t, err)
	price, err := valueobject.NewMoneyFromString("49.99", valueobject.USD)
	require.NoError(t, err)
	_, err = o.AddItem(uuid.New(), "Basic Tee", "TEE-1", 1, price)
	require.NoError(t, err)
	o.ClearDomainEvents()
	return o
}

func TestService_Initiate(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("creates transaction and returns checkout url", func(t *testing.T) {
		f := newFixture()
		o := newTestOrder(t, tenantID)

		f.orderRepo.On("FindByOrderNumber", ctx, tenantID, "ORD-2026-0042").Return(o, nil)
		f.txnRepo.On("FindByOrderNumber", ctx, tenantID, "ORD-2026-0042").Return(nil, shared.ErrNotFound)
		f.txnRepo.On("Save", ctx, mock.AnythingOfType("*payment.Transaction")).Return(nil)
		f.publisher.On("Publish", ctx, mock.Anything).Return(nil)
		f.gateway.On("Initiate", ctx, mock.MatchedBy(func(req *payment.InitiateRequest) bool {
			return req.OrderNumber == "ORD-2026-0042" &&
				req.Amount.Equal(decimal.RequireFromString("49.99")) &&
				req.CallbackURL == "https://api.shop.example.com/api/v1/store/payments/callback/paygate"
		})).Return(&payment.InitiateResponse{
			GatewayOrderID: "GW-1001",
			CheckoutURL:    "https://pay.example.com/checkout/GW-1001",
			Status:         payment.ExternalStatusPending,
		}, nil)

		resp, err := f.svc.Initiate(ctx, tenantID, InitiatePaymentRequest{
			OrderNumber: "ORD-2026-0042",
			Email:       "jamie@example.com",
			Gateway:     "PAYGATE",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://pay.example.com/checkout/GW-1001", resp.CheckoutURL)
		assert.Equal(t, "PROCESSING", resp.Status)
	})

	t.Run("wrong email looks like missing order", func(t *testing.T) {
		f := newFixture()
		o := newTestOrder(t, tenantID)
		f.orderRepo.On("FindByOrderNumber", ctx, tenantID, "ORD-2026-0042").Return(o, nil)

		_, err := f.svc.Initiate(ctx, tenantID, InitiatePaymentRequest{
			OrderNumber: "ORD-2026-0042",
			Email:       "other@example.com",
			Gateway:     "PAYGATE",
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("rejects paid order", func(t *testing.T) {
		f := newFixture()
		o := newTestOrder(t, tenantID)
		o.MarkPaymentCompleted()
		f.orderRepo.On("FindByOrderNumber", ctx, tenantID, "ORD-2026-0042").Return(o, nil)

		_, err := f.svc.Initiate(ctx, tenantID, InitiatePaymentRequest{
			OrderNumber: "ORD-2026-0042",
			Email:       "jamie@example.com",
			Gateway:     "PAYGATE",
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_PAID", domainErr.Code)
	})

	t.Run("unknown gateway", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Initiate(ctx, tenantID, InitiatePaymentRequest{
			OrderNumber: "ORD-2026-0042",
			Email:       "jamie@example.com",
			Gateway:     "STRIPE",
		})
		assert.ErrorIs(t, err, ErrGatewayNotRegistered)
	})
}

func TestService_HandleCallback(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	payload := []byte(`{"order":"GW-1001","status":"SUCCESS"}`)

	buildCallback := func() *payment.Callback {
		paidAt := time.Now()
		return &payment.Callback{
			Gateway:              payment.GatewayTypePayGate,
			GatewayOrderID:       "GW-1001",
			GatewayTransactionID: "TXN-777",
			OrderNumber:          "ORD-2026-0042",
			RawStatus:            "SUCCESS",
			Status:               payment.ClassifyGatewayStatus("SUCCESS"),
			PaidAmount:           decimal.RequireFromString("49.99"),
			PaidAt:               &paidAt,
			RawPayload:           string(payload),
		}
	}

	t.Run("completes transaction and confirms order", func(t *testing.T) {
		f := newFixture()
		o := newTestOrder(t, tenantID)
		txn, err := payment.NewTransaction(tenantID, o.ID, o.OrderNumber, payment.GatewayTypePayGate, decimal.RequireFromString("49.99"), valueobject.USD)
		require.NoError(t, err)
		txn.BindGatewayOrder("GW-1001")
		txn.ClearDomainEvents()

		f.gateway.On("VerifyCallback", ctx, payload, "sig").Return(buildCallback(), nil)
		f.idempotency.On("MarkProcessed", ctx, "payment:callback:PAYGATE:TXN-777", mock.Anything).Return(true, nil)
		f.txnRepo.On("FindByGatewayOrderID", ctx, payment.GatewayTypePayGate, "GW-1001").Return(txn, nil)
		f.txnRepo.On("UpdateFull", ctx, txn.ID, mock.Anything).Return(nil)
		f.orderRepo.On("FindByIDForTenant", ctx, tenantID, o.ID).Return(o, nil)
		f.orderRepo.On("SaveWithLock", ctx, o).Return(nil)
		f.publisher.On("Publish", ctx, mock.Anything).Return(nil)

		result, err := f.svc.HandleCallback(ctx, payment.GatewayTypePayGate, payload, "sig")
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.False(t, result.AlreadyProcessed)
		assert.Equal(t, []byte("OK"), result.Ack)

		assert.Equal(t, payment.TransactionStatusCompleted, txn.Status)
		assert.True(t, o.PaymentCompleted)
		assert.Equal(t, order.StatusConfirmed, o.Status)
	})

	t.Run("replayed callback is acknowledged without reprocessing", func(t *testing.T) {
		f := newFixture()
		f.gateway.On("VerifyCallback", ctx, payload, "sig").Return(buildCallback(), nil)
		f.idempotency.On("MarkProcessed", ctx, "payment:callback:PAYGATE:TXN-777", mock.Anything).Return(false, nil)

		result, err := f.svc.HandleCallback(ctx, payment.GatewayTypePayGate, payload, "sig")
		require.NoError(t, err)
		assert.True(t, result.AlreadyProcessed)
		f.txnRepo.AssertNotCalled(t, "FindByGatewayOrderID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid signature", func(t *testing.T) {
		f := newFixture()
		f.gateway.On("VerifyCallback", ctx, payload, "bad").Return(nil, payment.ErrGatewayInvalidCallback)

		result, err := f.svc.HandleCallback(ctx, payment.GatewayTypePayGate, payload, "bad")
		assert.ErrorIs(t, err, ErrCallbackVerification)
		assert.False(t, result.Success)
		assert.Equal(t, []byte("FAIL"), result.Ack)
	})

	t.Run("retried callback finishes order propagation", func(t *testing.T) {
		// First delivery settled the transaction but died before the order
		// update; the gateway retries after the 500.
		f := newFixture()
		o := newTestOrder(t, tenantID)
		txn, err := payment.NewTransaction(tenantID, o.ID, o.OrderNumber, payment.GatewayTypePayGate, decimal.RequireFromString("49.99"), valueobject.USD)
		require.NoError(t, err)
		txn.BindGatewayOrder("GW-1001")
		require.True(t, txn.ApplyExternal(payment.ExternalStatusCompleted, "TXN-777", decimal.RequireFromString("49.99"), nil, ""))
		txn.ClearDomainEvents()
		require.True(t, txn.Status.IsFinal())
		require.False(t, o.PaymentCompleted)

		f.gateway.On("VerifyCallback", ctx, payload, "sig").Return(buildCallback(), nil)
		f.idempotency.On("MarkProcessed", ctx, "payment:callback:PAYGATE:TXN-777", mock.Anything).Return(true, nil)
		f.txnRepo.On("FindByGatewayOrderID", ctx, payment.GatewayTypePayGate, "GW-1001").Return(txn, nil)
		f.orderRepo.On("FindByIDForTenant", ctx, tenantID, o.ID).Return(o, nil)
		f.orderRepo.On("SaveWithLock", ctx, o).Return(nil)
		f.publisher.On("Publish", ctx, mock.Anything).Return(nil)

		result, err := f.svc.HandleCallback(ctx, payment.GatewayTypePayGate, payload, "sig")
		require.NoError(t, err)
		assert.True(t, result.Success)

		assert.True(t, o.PaymentCompleted)
		assert.Equal(t, order.StatusConfirmed, o.Status)
		// The settled transaction must not be rewritten
		f.txnRepo.AssertNotCalled(t, "UpdateFull", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("failed processing unmarks the idempotency key", func(t *testing.T) {
		f := newFixture()
		f.gateway.On("VerifyCallback", ctx, payload, "sig").Return(buildCallback(), nil)
		f.idempotency.On("MarkProcessed", ctx, "payment:callback:PAYGATE:TXN-777", mock.Anything).Return(true, nil)
		f.txnRepo.On("FindByGatewayOrderID", ctx, payment.GatewayTypePayGate, "GW-1001").Return(nil, shared.ErrNotFound)
		f.idempotency.On("Unmark", ctx, "payment:callback:PAYGATE:TXN-777").Return(nil)

		result, err := f.svc.HandleCallback(ctx, payment.GatewayTypePayGate, payload, "sig")
		assert.ErrorIs(t, err, ErrTransactionNotFound)
		assert.False(t, result.Success)
		f.idempotency.AssertCalled(t, "Unmark", ctx, "payment:callback:PAYGATE:TXN-777")
	})
}

func TestService_GetStatus(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("refreshes non-final transaction from gateway", func(t *testing.T) {
		f := newFixture()
		o := newTestOrder(t, tenantID)
		txn, err := payment.NewTransaction(tenantID, o.ID, o.OrderNumber, payment.GatewayTypePayGate, decimal.RequireFromString("49.99"), valueobject.USD)
		require.NoError(t, err)
		txn.BindGatewayOrder("GW-1001")
		txn.ClearDomainEvents()

		paidAt := time.Now()
		f.orderRepo.On("FindByOrderNumber", ctx, tenantID, "ORD-2026-0042").Return(o, nil)
		f.txnRepo.On("FindByOrderNumber", ctx, tenantID, "ORD-2026-0042").Return(txn, nil)
		f.gateway.On("Query", ctx, mock.Anything).Return(&payment.QueryResponse{
			GatewayOrderID:       "GW-1001",
			GatewayTransactionID: "TXN-777",
			RawStatus:            "approved",
			Status:               payment.ClassifyGatewayStatus("approved"),
			PaidAmount:           decimal.RequireFromString("49.99"),
			PaidAt:               &paidAt,
		}, nil)
		f.txnRepo.On("UpdateFull", ctx, txn.ID, mock.Anything).Return(nil)
		f.orderRepo.On("FindByIDForTenant", ctx, tenantID, o.ID).Return(o, nil)
		f.orderRepo.On("SaveWithLock", ctx, o).Return(nil)
		f.publisher.On("Publish", ctx, mock.Anything).Return(nil)

		resp, err := f.svc.GetStatus(ctx, tenantID, "ORD-2026-0042", "jamie@example.com")
		require.NoError(t, err)
		assert.Equal(t, "COMPLETED", resp.Status)
	})

	t.Run("gateway failure answers with stored state", func(t *testing.T) {
		f := newFixture()
		o := newTestOrder(t, tenantID)
		txn, err := payment.NewTransaction(tenantID, o.ID, o.OrderNumber, payment.GatewayTypePayGate, decimal.RequireFromString("49.99"), valueobject.USD)
		require.NoError(t, err)
		txn.BindGatewayOrder("GW-1001")

		f.orderRepo.On("FindByOrderNumber", ctx, tenantID, "ORD-2026-0042").Return(o, nil)
		f.txnRepo.On("FindByOrderNumber", ctx, tenantID, "ORD-2026-0042").Return(txn, nil)
		f.gateway.On("Query", ctx, mock.Anything).Return(nil, payment.ErrGatewayUnavailable)

		resp, err := f.svc.GetStatus(ctx, tenantID, "ORD-2026-0042", "jamie@example.com")
		require.NoError(t, err)
		assert.Equal(t, "PROCESSING", resp.Status)
	})
}
