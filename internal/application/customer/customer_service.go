package customer

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/customer"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Service manages customers from the back office. Customers themselves are
// created during checkout, never through this service.
type Service struct {
	customerRepo customer.Repository
	logger       *zap.Logger
}

// NewService creates a new customer service
func NewService(customerRepo customer.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{customerRepo: customerRepo, logger: logger}
}

// GetByID returns a customer
func (s *Service) GetByID(ctx context.Context, tenantID, customerID uuid.UUID) (*Response, error) {
	c, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	return ToResponse(c), nil
}

// GetByEmail returns a customer by email
func (s *Service) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*Response, error) {
	c, err := s.customerRepo.FindByEmail(ctx, tenantID, email)
	if err != nil {
		return nil, err
	}
	return ToResponse(c), nil
}

// List returns the tenant's customers
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Response, int64, error) {
	customers, err := s.customerRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.customerRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]Response, len(customers))
	for i := range customers {
		responses[i] = *ToResponse(&customers[i])
	}
	return responses, total, nil
}

// Update updates a customer's profile and back-office notes
func (s *Service) Update(ctx context.Context, tenantID, customerID uuid.UUID, req UpdateRequest) (*Response, error) {
	c, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	if err := c.Update(req.Name, req.Phone); err != nil {
		return nil, err
	}
	c.SetNotes(req.Notes)

	if err := s.customerRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	return ToResponse(c), nil
}

// Deactivate blocks a customer from checking out
func (s *Service) Deactivate(ctx context.Context, tenantID, customerID uuid.UUID) error {
	c, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return err
	}
	if err := c.Deactivate(); err != nil {
		return err
	}
	if err := s.customerRepo.Save(ctx, c); err != nil {
		return err
	}
	s.logger.Info("Customer deactivated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("customer_id", customerID.String()))
	return nil
}

// Activate reinstates a customer
func (s *Service) Activate(ctx context.Context, tenantID, customerID uuid.UUID) error {
	c, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return err
	}
	if err := c.Activate(); err != nil {
		return err
	}
	return s.customerRepo.Save(ctx, c)
}
