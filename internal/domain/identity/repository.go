package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// UserRepository defines the interface for admin user persistence
type UserRepository interface {
	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByIDForTenant finds a user by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*User, error)

	// FindByEmail finds a user by email for a tenant
	FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*User, error)

	// FindAllForTenant finds all users for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]User, error)

	// ExistsByEmail checks if a user with the email exists for a tenant
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)

	// Save creates or updates a user
	Save(ctx context.Context, u *User) error

	// Delete removes a user for a tenant
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// TenantRepository defines the interface for tenant persistence
type TenantRepository interface {
	// FindByID finds a tenant by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// FindByCode finds a tenant by its code
	FindByCode(ctx context.Context, code string) (*Tenant, error)

	// FindAll finds all tenants
	FindAll(ctx context.Context, filter shared.Filter) ([]Tenant, error)

	// ExistsByCode checks if a tenant with the code exists
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// Save creates or updates a tenant
	Save(ctx context.Context, t *Tenant) error
}
