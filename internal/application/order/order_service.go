package order

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/customer"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// ServiceConfig holds configuration for the order service
type ServiceConfig struct {
	// FlatShippingRate is charged per order. Carrier-rated shipping is out of
	// scope; merchants set a flat rate per deployment.
	FlatShippingRate decimal.Decimal
	// Currency is the tenant storefront currency
	Currency valueobject.Currency
}

// DefaultServiceConfig returns the default configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		FlatShippingRate: decimal.Zero,
		Currency:         valueobject.USD,
	}
}

// Service handles order business operations for both surfaces: storefront
// checkout and back-office fulfillment.
type Service struct {
	orderRepo      order.Repository
	productRepo    catalog.ProductRepository
	customerRepo   customer.Repository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	config         ServiceConfig
}

// NewService creates a new order Service
func NewService(
	orderRepo order.Repository,
	productRepo catalog.ProductRepository,
	customerRepo customer.Repository,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
	config ServiceConfig,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Currency == "" {
		config.Currency = valueobject.USD
	}
	return &Service{
		orderRepo:      orderRepo,
		productRepo:    productRepo,
		customerRepo:   customerRepo,
		eventPublisher: eventPublisher,
		logger:         logger,
		config:         config,
	}
}

// Checkout creates an order from a storefront cart. Line prices come from
// the catalog at this moment and are snapshotted onto the order.
func (s *Service) Checkout(ctx context.Context, tenantID uuid.UUID, req CheckoutRequest) (*Response, error) {
	address, err := valueobject.NewAddress(
		req.ShippingAddress.Line1,
		req.ShippingAddress.Line2,
		req.ShippingAddress.City,
		req.ShippingAddress.State,
		req.ShippingAddress.PostalCode,
		req.ShippingAddress.Country,
	)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_ADDRESS", err.Error())
	}

	cust, err := s.findOrCreateCustomer(ctx, tenantID, req)
	if err != nil {
		return nil, err
	}
	if !cust.IsActive() {
		return nil, shared.NewDomainError("CUSTOMER_INACTIVE", "Customer account is deactivated")
	}

	products, err := s.loadProducts(ctx, tenantID, req.Items)
	if err != nil {
		return nil, err
	}

	// Order numbers come from a check-then-insert sequence guarded by the
	// unique index on (tenant_id, order_number). A concurrent checkout can
	// claim the number between the check and the insert; regenerate once
	// before giving up.
	var o *order.Order
	for attempt := 0; ; attempt++ {
		orderNumber, err := s.orderRepo.GenerateOrderNumber(ctx, tenantID)
		if err != nil {
			return nil, err
		}

		o, err = s.buildOrder(tenantID, orderNumber, cust, address, products, req)
		if err != nil {
			return nil, err
		}

		err = s.orderRepo.Save(ctx, o)
		if err == nil {
			break
		}
		if errors.Is(err, shared.ErrAlreadyExists) && attempt == 0 {
			s.logger.Warn("Order number collision, regenerating",
				zap.String("order_number", orderNumber))
			continue
		}
		return nil, err
	}

	s.publishEvents(ctx, o.GetDomainEvents())
	o.ClearDomainEvents()

	return ToResponse(o), nil
}

func (s *Service) buildOrder(
	tenantID uuid.UUID,
	orderNumber string,
	cust *customer.Customer,
	address valueobject.Address,
	products map[uuid.UUID]*catalog.Product,
	req CheckoutRequest,
) (*order.Order, error) {
	o, err := order.New(tenantID, orderNumber, cust.ID, cust.Email, cust.Name, address, s.config.Currency)
	if err != nil {
		return nil, err
	}

	for _, line := range req.Items {
		product := products[line.ProductID]
		price, err := valueobject.NewMoney(product.Price, product.Currency)
		if err != nil {
			return nil, err
		}
		if _, err := o.AddItem(product.ID, product.Name, product.SKU, line.Quantity, price); err != nil {
			return nil, err
		}
	}

	if s.config.FlatShippingRate.IsPositive() {
		shipping, err := valueobject.NewMoney(s.config.FlatShippingRate, s.config.Currency)
		if err != nil {
			return nil, err
		}
		if err := o.SetShipping(shipping); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// Lookup returns an order by number plus customer email, the storefront's
// anonymous credential
func (s *Service) Lookup(ctx context.Context, tenantID uuid.UUID, orderNumber, email string) (*Response, error) {
	o, err := s.orderRepo.FindByOrderNumber(ctx, tenantID, orderNumber)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(o.CustomerEmail, email) {
		return nil, shared.ErrNotFound
	}
	return ToResponse(o), nil
}

// GetByID returns an order for the back office
func (s *Service) GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*Response, error) {
	o, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	return ToResponse(o), nil
}

// List returns orders for the back office with filtering and pagination
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) (*shared.Paginated[Response], error) {
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

	var (
		orders []order.Order
		err    error
	)
	switch {
	case filter.Status != "":
		orders, err = s.orderRepo.FindByStatus(ctx, tenantID, order.Status(filter.Status), f)
		f.Filters["status"] = filter.Status
	case filter.CustomerID != nil:
		orders, err = s.orderRepo.FindByCustomer(ctx, tenantID, *filter.CustomerID, f)
		f.Filters["customer_id"] = *filter.CustomerID
	default:
		orders, err = s.orderRepo.FindAllForTenant(ctx, tenantID, f)
	}
	if err != nil {
		return nil, err
	}

	total, err := s.orderRepo.CountForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}

	items := make([]Response, 0, len(orders))
	for i := range orders {
		items = append(items, *ToResponse(&orders[i]))
	}
	page := shared.NewPaginated(items, total, f.Page, f.Limit())
	return &page, nil
}

// Transition moves an order to a new fulfillment status. Illegal transitions
// are rejected with a domain error.
func (s *Service) Transition(ctx context.Context, tenantID, orderID uuid.UUID, req TransitionRequest) (*Response, error) {
	target := order.Status(req.Status)
	if !target.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", "Unknown order status: "+req.Status)
	}

	o, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	if target == order.StatusCancelled {
		err = o.Cancel(req.Reason)
	} else {
		err = o.TransitionTo(target)
	}
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			s.logger.Warn("Concurrent order modification",
				zap.String("order_number", o.OrderNumber))
		}
		return nil, err
	}

	s.publishEvents(ctx, o.GetDomainEvents())
	o.ClearDomainEvents()

	return ToResponse(o), nil
}

// CountByStatus returns order counts per status for the back-office dashboard
func (s *Service) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, st := range []order.Status{
		order.StatusPending,
		order.StatusConfirmed,
		order.StatusProcessing,
		order.StatusShipped,
		order.StatusDelivered,
		order.StatusCancelled,
	} {
		n, err := s.orderRepo.CountByStatus(ctx, tenantID, st)
		if err != nil {
			return nil, err
		}
		counts[st.String()] = n
	}
	return counts, nil
}

func (s *Service) findOrCreateCustomer(ctx context.Context, tenantID uuid.UUID, req CheckoutRequest) (*customer.Customer, error) {
	cust, err := s.customerRepo.FindByEmail(ctx, tenantID, strings.ToLower(req.Email))
	if err == nil {
		return cust, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	cust, err = customer.NewCustomer(tenantID, req.Email, req.Name)
	if err != nil {
		return nil, err
	}
	if req.Phone != "" {
		if err := cust.Update(req.Name, req.Phone); err != nil {
			return nil, err
		}
	}
	if err := s.customerRepo.Save(ctx, cust); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, cust.GetDomainEvents())
	cust.ClearDomainEvents()

	return cust, nil
}

func (s *Service) loadProducts(ctx context.Context, tenantID uuid.UUID, items []CheckoutItem) (map[uuid.UUID]*catalog.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, line := range items {
		ids = append(ids, line.ProductID)
	}

	products, err := s.productRepo.FindByIDsForTenant(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for _, line := range items {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found: "+line.ProductID.String())
		}
		if !product.IsActive() {
			return nil, shared.ErrProductInactive
		}
	}

	return byID, nil
}

func (s *Service) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish domain events", zap.Error(err))
	}
}
