package order

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/customer"
	"github.com/storefront/backend/internal/domain/order"
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

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindActiveForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByCategory(ctx context.Context, tenantID, categoryID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, categoryID, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) ExistsBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error) {
	args := m.Called(ctx, tenantID, sku)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, p *catalog.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockProductRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) CountActiveForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockCustomerRepository is a mock implementation of customer.Repository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*customer.Customer, error) {
	args := m.Called(ctx, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]customer.Customer, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	args := m.Called(ctx, tenantID, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, c *customer.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockCustomerRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

type fixture struct {
	svc          *Service
	orderRepo    *MockOrderRepository
	productRepo  *MockProductRepository
	customerRepo *MockCustomerRepository
	publisher    *MockEventPublisher
}

func newFixture() *fixture {
	f := &fixture{
		orderRepo:    new(MockOrderRepository),
		productRepo:  new(MockProductRepository),
		customerRepo: new(MockCustomerRepository),
		publisher:    new(MockEventPublisher),
	}
	f.svc = NewService(f.orderRepo, f.productRepo, f.customerRepo, f.publisher, nil, ServiceConfig{
		FlatShippingRate: decimal.RequireFromString("5.00"),
		Currency:         valueobject.USD,
	})
	return f
}

func activeProduct(t *testing.T, tenantID uuid.UUID, sku, name, price string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(tenantID, sku, name, decimal.RequireFromString(price), valueobject.USD)
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

func checkoutRequest(productID uuid.UUID, qty int) CheckoutRequest {
	return CheckoutRequest{
		Email: "jamie@example.com",
		Name:  "Jamie Doe",
		ShippingAddress: CheckoutAddress{
			Line1:   "1 Main St",
			City:    "Springfield",
			State:   "IL",
			Country: "US",
		},
		Items: []CheckoutItem{{ProductID: productID, Quantity: qty}},
	}
}

func TestService_Checkout(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("prices lines from catalog", func(t *testing.T) {
		f := newFixture()
		product := activeProduct(t, tenantID, "TEE-1", "Basic Tee", "19.99")
		cust, err := customer.NewCustomer(tenantID, "jamie@example.com", "Jamie Doe")
		require.NoError(t, err)
		cust.ClearDomainEvents()

		f.customerRepo.On("FindByEmail", ctx, tenantID, "jamie@example.com").Return(cust, nil)
		f.productRepo.On("FindByIDsForTenant", ctx, tenantID, []uuid.UUID{product.ID}).Return([]catalog.Product{*product}, nil)
		f.orderRepo.On("GenerateOrderNumber", ctx, tenantID).Return("ORD-2026-00001", nil)
		f.orderRepo.On("Save", ctx, mock.AnythingOfType("*order.Order")).Return(nil)
		f.publisher.On("Publish", ctx, mock.Anything).Return(nil)

		resp, err := f.svc.Checkout(ctx, tenantID, checkoutRequest(product.ID, 2))
		require.NoError(t, err)
		assert.Equal(t, "ORD-2026-00001", resp.OrderNumber)
		assert.Equal(t, "pending", resp.Status)
		require.Len(t, resp.Items, 1)
		assert.True(t, resp.Items[0].UnitPrice.Equal(decimal.RequireFromString("19.99")))
		assert.True(t, resp.SubtotalAmount.Equal(decimal.RequireFromString("39.98")))
		assert.True(t, resp.ShippingAmount.Equal(decimal.RequireFromString("5.00")))
		assert.True(t, resp.TotalAmount.Equal(decimal.RequireFromString("44.98")))
	})

	t.Run("creates customer on first order", func(t *testing.T) {
		f := newFixture()
		product := activeProduct(t, tenantID, "TEE-1", "Basic Tee", "19.99")

		f.customerRepo.On("FindByEmail", ctx, tenantID, "jamie@example.com").Return(nil, shared.ErrNotFound)
		f.customerRepo.On("Save", ctx, mock.AnythingOfType("*customer.Customer")).Return(nil)
		f.productRepo.On("FindByIDsForTenant", ctx, tenantID, mock.Anything).Return([]catalog.Product{*product}, nil)
		f.orderRepo.On("GenerateOrderNumber", ctx, tenantID).Return("ORD-2026-00002", nil)
		f.orderRepo.On("Save", ctx, mock.AnythingOfType("*order.Order")).Return(nil)
		f.publisher.On("Publish", ctx, mock.Anything).Return(nil)

		_, err := f.svc.Checkout(ctx, tenantID, checkoutRequest(product.ID, 1))
		require.NoError(t, err)
		f.customerRepo.AssertCalled(t, "Save", ctx, mock.AnythingOfType("*customer.Customer"))
	})

	t.Run("rejects inactive product", func(t *testing.T) {
		f := newFixture()
		product := activeProduct(t, tenantID, "TEE-1", "Basic Tee", "19.99")
		require.NoError(t, product.Deactivate())
		cust, err := customer.NewCustomer(tenantID, "jamie@example.com", "Jamie Doe")
		require.NoError(t, err)

		f.customerRepo.On("FindByEmail", ctx, tenantID, "jamie@example.com").Return(cust, nil)
		f.productRepo.On("FindByIDsForTenant", ctx, tenantID, mock.Anything).Return([]catalog.Product{*product}, nil)

		_, err = f.svc.Checkout(ctx, tenantID, checkoutRequest(product.ID, 1))
		assert.ErrorIs(t, err, shared.ErrProductInactive)
		f.orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("regenerates order number after duplicate-key save", func(t *testing.T) {
		f := newFixture()
		product := activeProduct(t, tenantID, "TEE-1", "Basic Tee", "19.99")
		cust, err := customer.NewCustomer(tenantID, "jamie@example.com", "Jamie Doe")
		require.NoError(t, err)
		cust.ClearDomainEvents()

		f.customerRepo.On("FindByEmail", ctx, tenantID, "jamie@example.com").Return(cust, nil)
		f.productRepo.On("FindByIDsForTenant", ctx, tenantID, mock.Anything).Return([]catalog.Product{*product}, nil)
		f.orderRepo.On("GenerateOrderNumber", ctx, tenantID).Return("ORD-2026-00010", nil).Once()
		f.orderRepo.On("GenerateOrderNumber", ctx, tenantID).Return("ORD-2026-00011", nil).Once()
		f.orderRepo.On("Save", ctx, mock.AnythingOfType("*order.Order")).Return(shared.ErrAlreadyExists).Once()
		f.orderRepo.On("Save", ctx, mock.AnythingOfType("*order.Order")).Return(nil).Once()
		f.publisher.On("Publish", ctx, mock.Anything).Return(nil)

		resp, err := f.svc.Checkout(ctx, tenantID, checkoutRequest(product.ID, 1))
		require.NoError(t, err)
		assert.Equal(t, "ORD-2026-00011", resp.OrderNumber)
		f.orderRepo.AssertNumberOfCalls(t, "GenerateOrderNumber", 2)
		f.orderRepo.AssertNumberOfCalls(t, "Save", 2)
	})

	t.Run("gives up after a second duplicate-key save", func(t *testing.T) {
		f := newFixture()
		product := activeProduct(t, tenantID, "TEE-1", "Basic Tee", "19.99")
		cust, err := customer.NewCustomer(tenantID, "jamie@example.com", "Jamie Doe")
		require.NoError(t, err)
		cust.ClearDomainEvents()

		f.customerRepo.On("FindByEmail", ctx, tenantID, "jamie@example.com").Return(cust, nil)
		f.productRepo.On("FindByIDsForTenant", ctx, tenantID, mock.Anything).Return([]catalog.Product{*product}, nil)
		f.orderRepo.On("GenerateOrderNumber", ctx, tenantID).Return("ORD-2026-00012", nil)
		f.orderRepo.On("Save", ctx, mock.AnythingOfType("*order.Order")).Return(shared.ErrAlreadyExists)

		_, err = f.svc.Checkout(ctx, tenantID, checkoutRequest(product.ID, 1))
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		f.orderRepo.AssertNumberOfCalls(t, "Save", 2)
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown product", func(t *testing.T) {
		f := newFixture()
		cust, err := customer.NewCustomer(tenantID, "jamie@example.com", "Jamie Doe")
		require.NoError(t, err)

		f.customerRepo.On("FindByEmail", ctx, tenantID, "jamie@example.com").Return(cust, nil)
		f.productRepo.On("FindByIDsForTenant", ctx, tenantID, mock.Anything).Return([]catalog.Product{}, nil)

		_, err = f.svc.Checkout(ctx, tenantID, checkoutRequest(uuid.New(), 1))
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "PRODUCT_NOT_FOUND", domainErr.Code)
	})
}

func TestService_Transition(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	newOrder := func(t *testing.T) *order.Order {
		t.Helper()
		addr, err := valueobject.NewAddress("1 Main St", "", "Springfield", "IL", "62704", "US")
		require.NoError(t, err)
		o, err := order.New(tenantID, "ORD-1", uuid.New(), "jamie@example.com", "Jamie", addr, valueobject.USD)
		require.NoError(t, err)
		o.ClearDomainEvents()
		return o
	}

	t.Run("allows pending to confirmed", func(t *testing.T) {
		f := newFixture()
		o := newOrder(t)

		f.orderRepo.On("FindByIDForTenant", ctx, tenantID, o.ID).Return(o, nil)
		f.orderRepo.On("SaveWithLock", ctx, o).Return(nil)
		f.publisher.On("Publish", ctx, mock.Anything).Return(nil)

		resp, err := f.svc.Transition(ctx, tenantID, o.ID, TransitionRequest{Status: "confirmed"})
		require.NoError(t, err)
		assert.Equal(t, "confirmed", resp.Status)
		assert.NotNil(t, resp.ConfirmedAt)
	})

	t.Run("rejects pending to shipped", func(t *testing.T) {
		f := newFixture()
		o := newOrder(t)
		f.orderRepo.On("FindByIDForTenant", ctx, tenantID, o.ID).Return(o, nil)

		_, err := f.svc.Transition(ctx, tenantID, o.ID, TransitionRequest{Status: "shipped"})
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
		f.orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("cancel records reason and refund flag", func(t *testing.T) {
		f := newFixture()
		o := newOrder(t)
		o.MarkPaymentCompleted()
		require.NoError(t, o.TransitionTo(order.StatusConfirmed))
		o.ClearDomainEvents()

		f.orderRepo.On("FindByIDForTenant", ctx, tenantID, o.ID).Return(o, nil)
		f.orderRepo.On("SaveWithLock", ctx, o).Return(nil)
		f.publisher.On("Publish", ctx, mock.Anything).Return(nil)

		resp, err := f.svc.Transition(ctx, tenantID, o.ID, TransitionRequest{Status: "cancelled", Reason: "customer request"})
		require.NoError(t, err)
		assert.Equal(t, "cancelled", resp.Status)
		assert.Equal(t, "customer request", resp.CancelReason)
		assert.True(t, resp.RefundRequired)
	})
}

func TestService_Lookup(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	addr, err := valueobject.NewAddress("1 Main St", "", "Springfield", "IL", "62704", "US")
	require.NoError(t, err)
	o, err := order.New(tenantID, "ORD-1", uuid.New(), "jamie@example.com", "Jamie", addr, valueobject.USD)
	require.NoError(t, err)

	f := newFixture()
	f.orderRepo.On("FindByOrderNumber", ctx, tenantID, "ORD-1").Return(o, nil)

	resp, err := f.svc.Lookup(ctx, tenantID, "ORD-1", "JAMIE@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", resp.OrderNumber)

	_, err = f.svc.Lookup(ctx, tenantID, "ORD-1", "other@example.com")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
