package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// TenantService provisions and manages tenants
type TenantService struct {
	tenantRepo identity.TenantRepository
	userRepo   identity.UserRepository
	logger     *zap.Logger
}

// NewTenantService creates a new tenant service
func NewTenantService(tenantRepo identity.TenantRepository, userRepo identity.UserRepository, logger *zap.Logger) *TenantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TenantService{tenantRepo: tenantRepo, userRepo: userRepo, logger: logger}
}

// Create provisions a tenant together with its first owner account
func (s *TenantService) Create(ctx context.Context, req CreateTenantRequest) (*TenantResponse, error) {
	exists, err := s.tenantRepo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("TENANT_CODE_TAKEN", "A store with this code already exists")
	}

	tenant, err := identity.NewTenant(req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	if req.ContactEmail != "" {
		if err := tenant.Update(req.Name, req.ContactEmail); err != nil {
			return nil, err
		}
	}

	owner, err := identity.NewUser(tenant.ID, req.OwnerEmail, req.OwnerPassword, identity.RoleOwner)
	if err != nil {
		return nil, err
	}

	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, owner); err != nil {
		return nil, err
	}

	s.logger.Info("Tenant provisioned",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("code", tenant.Code))

	return ToTenantResponse(tenant), nil
}

// GetByID returns a tenant
func (s *TenantService) GetByID(ctx context.Context, tenantID uuid.UUID) (*TenantResponse, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return ToTenantResponse(tenant), nil
}

// GetByCode returns an active tenant by its code. Suspended tenants are
// reported as not found so the storefront does not reveal their existence.
func (s *TenantService) GetByCode(ctx context.Context, code string) (*TenantResponse, error) {
	tenant, err := s.tenantRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !tenant.IsActive() {
		return nil, shared.ErrNotFound
	}
	return ToTenantResponse(tenant), nil
}

// List returns all tenants
func (s *TenantService) List(ctx context.Context, filter shared.Filter) ([]TenantResponse, error) {
	tenants, err := s.tenantRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]TenantResponse, len(tenants))
	for i := range tenants {
		responses[i] = *ToTenantResponse(&tenants[i])
	}
	return responses, nil
}

// Update updates a tenant's profile
func (s *TenantService) Update(ctx context.Context, tenantID uuid.UUID, req UpdateTenantRequest) (*TenantResponse, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if err := tenant.Update(req.Name, req.ContactEmail); err != nil {
		return nil, err
	}
	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		return nil, err
	}
	return ToTenantResponse(tenant), nil
}

// Suspend disables all storefront and admin access for a tenant
func (s *TenantService) Suspend(ctx context.Context, tenantID uuid.UUID) error {
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if err := tenant.Suspend(); err != nil {
		return err
	}
	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		return err
	}
	s.logger.Warn("Tenant suspended", zap.String("tenant_id", tenantID.String()))
	return nil
}

// Activate restores a suspended tenant
func (s *TenantService) Activate(ctx context.Context, tenantID uuid.UUID) error {
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if err := tenant.Activate(); err != nil {
		return err
	}
	return s.tenantRepo.Save(ctx, tenant)
}
