package identity

import (
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

// TenantStatus represents the status of a tenant
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

// Tenant is a merchant running a storefront on the platform. Every catalog,
// customer, order and payment row is scoped to exactly one tenant.
type Tenant struct {
	shared.BaseAggregateRoot
	Code         string
	Name         string
	ContactEmail string
	Status       TenantStatus
	SuspendedAt  *time.Time
}

// NewTenant creates a new active tenant
func NewTenant(code, name string) (*Tenant, error) {
	if err := validateTenantCode(code); err != nil {
		return nil, err
	}
	if name == "" || len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Tenant name must be 1-200 characters")
	}

	return &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToLower(code),
		Name:              name,
		Status:            TenantStatusActive,
	}, nil
}

// Update updates the tenant's basic information
func (t *Tenant) Update(name, contactEmail string) error {
	if name == "" || len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Tenant name must be 1-200 characters")
	}
	if contactEmail != "" {
		if err := validateEmail(strings.ToLower(contactEmail)); err != nil {
			return err
		}
	}

	t.Name = name
	t.ContactEmail = strings.ToLower(contactEmail)
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// Suspend suspends the tenant. Suspended tenants serve no traffic.
func (t *Tenant) Suspend() error {
	if t.Status == TenantStatusSuspended {
		return shared.NewDomainError("ALREADY_SUSPENDED", "Tenant is already suspended")
	}

	now := time.Now()
	t.Status = TenantStatusSuspended
	t.SuspendedAt = &now
	t.UpdatedAt = now
	t.IncrementVersion()

	return nil
}

// Activate reactivates a suspended tenant
func (t *Tenant) Activate() error {
	if t.Status == TenantStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Tenant is already active")
	}

	t.Status = TenantStatusActive
	t.SuspendedAt = nil
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// IsActive returns true if the tenant is active
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// validateTenantCode validates the tenant code used in hostnames and headers
func validateTenantCode(code string) error {
	if len(code) < 2 || len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Tenant code must be 2-50 characters")
	}
	for _, r := range code {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Tenant code can only contain letters, numbers, and hyphens")
		}
	}
	return nil
}
