package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates active product", func(t *testing.T) {
		p, err := NewProduct(tenantID, "tee-001", "Basic Tee", decimal.RequireFromString("19.99"), valueobject.USD)
		require.NoError(t, err)

		assert.Equal(t, "TEE-001", p.SKU)
		assert.Equal(t, "Basic Tee", p.Name)
		assert.Equal(t, ProductStatusActive, p.Status)
		assert.True(t, p.IsActive())
		assert.Equal(t, tenantID, p.TenantID)
		assert.False(t, p.HasCategory())

		events := p.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeProductCreated, events[0].EventType())
	})

	t.Run("defaults currency", func(t *testing.T) {
		p, err := NewProduct(tenantID, "TEE-002", "Tee", decimal.NewFromInt(10), "")
		require.NoError(t, err)
		assert.Equal(t, valueobject.USD, p.Currency)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		tests := []struct {
			name  string
			sku   string
			pname string
			price decimal.Decimal
		}{
			{"empty sku", "", "Tee", decimal.NewFromInt(10)},
			{"sku with spaces", "TEE 1", "Tee", decimal.NewFromInt(10)},
			{"empty name", "TEE-1", "", decimal.NewFromInt(10)},
			{"negative price", "TEE-1", "Tee", decimal.NewFromInt(-1)},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewProduct(tenantID, tt.sku, tt.pname, tt.price, valueobject.USD)
				assert.Error(t, err)
			})
		}
	})
}

func TestProduct_SetPrice(t *testing.T) {
	p, err := NewProduct(uuid.New(), "TEE-1", "Tee", decimal.NewFromInt(20), valueobject.USD)
	require.NoError(t, err)
	p.ClearDomainEvents()

	price, err := valueobject.NewMoneyFromString("24.50", valueobject.USD)
	require.NoError(t, err)
	require.NoError(t, p.SetPrice(price))

	assert.True(t, p.Price.Equal(decimal.RequireFromString("24.50")))

	events := p.GetDomainEvents()
	require.Len(t, events, 1)
	priceEvent, ok := events[0].(*ProductPriceChangedEvent)
	require.True(t, ok)
	assert.True(t, priceEvent.OldPrice.Equal(decimal.NewFromInt(20)))
	assert.True(t, priceEvent.NewPrice.Equal(decimal.RequireFromString("24.50")))
}

func TestProduct_ActivateDeactivate(t *testing.T) {
	p, err := NewProduct(uuid.New(), "TEE-1", "Tee", decimal.NewFromInt(20), valueobject.USD)
	require.NoError(t, err)

	err = p.Activate()
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_ACTIVE", domainErr.Code)

	require.NoError(t, p.Deactivate())
	assert.False(t, p.IsActive())
	assert.Error(t, p.Deactivate())

	require.NoError(t, p.Activate())
	assert.True(t, p.IsActive())
}

func TestProduct_SetCategory(t *testing.T) {
	p, err := NewProduct(uuid.New(), "TEE-1", "Tee", decimal.NewFromInt(20), valueobject.USD)
	require.NoError(t, err)

	categoryID := uuid.New()
	p.SetCategory(&categoryID)
	assert.True(t, p.HasCategory())

	p.SetCategory(nil)
	assert.False(t, p.HasCategory())
}

func TestNewCategory(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates active category", func(t *testing.T) {
		c, err := NewCategory(tenantID, "Summer-Sale", "Summer Sale")
		require.NoError(t, err)

		assert.Equal(t, "summer-sale", c.Slug)
		assert.True(t, c.IsActive())

		events := c.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeCategoryCreated, events[0].EventType())
	})

	t.Run("rejects invalid slug", func(t *testing.T) {
		_, err := NewCategory(tenantID, "summer sale", "Summer Sale")
		assert.Error(t, err)

		_, err = NewCategory(tenantID, "", "Summer Sale")
		assert.Error(t, err)
	})
}

func TestCategory_UpdateSlug(t *testing.T) {
	c, err := NewCategory(uuid.New(), "tees", "Tees")
	require.NoError(t, err)

	require.NoError(t, c.UpdateSlug("T-Shirts"))
	assert.Equal(t, "t-shirts", c.Slug)

	assert.Error(t, c.UpdateSlug("t shirts"))
}
