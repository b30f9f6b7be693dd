package customer

import (
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates active customer", func(t *testing.T) {
		c, err := NewCustomer(tenantID, "Jamie@Example.COM", "Jamie Doe")
		require.NoError(t, err)

		assert.Equal(t, "jamie@example.com", c.Email)
		assert.Equal(t, "Jamie Doe", c.Name)
		assert.True(t, c.IsActive())
		assert.True(t, c.DefaultShipping.IsZero())

		events := c.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeCustomerCreated, events[0].EventType())
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := NewCustomer(tenantID, "bad email", "Jamie")
		assert.Error(t, err)

		_, err = NewCustomer(tenantID, "jamie@example.com", "  ")
		assert.Error(t, err)
	})
}

func TestCustomer_SetDefaultShipping(t *testing.T) {
	c, err := NewCustomer(uuid.New(), "jamie@example.com", "Jamie")
	require.NoError(t, err)

	addr, err := valueobject.NewAddress("1 Main St", "", "Springfield", "IL", "62704", "us")
	require.NoError(t, err)

	c.SetDefaultShipping(addr)
	assert.False(t, c.DefaultShipping.IsZero())
	assert.Equal(t, "US", c.DefaultShipping.Country)
}

func TestCustomer_ActivateDeactivate(t *testing.T) {
	c, err := NewCustomer(uuid.New(), "jamie@example.com", "Jamie")
	require.NoError(t, err)

	assert.Error(t, c.Activate())
	require.NoError(t, c.Deactivate())
	assert.False(t, c.IsActive())
	require.NoError(t, c.Activate())
	assert.True(t, c.IsActive())
}

func TestCustomer_ChangeEmail(t *testing.T) {
	c, err := NewCustomer(uuid.New(), "jamie@example.com", "Jamie")
	require.NoError(t, err)

	require.NoError(t, c.ChangeEmail("NEW@Example.com"))
	assert.Equal(t, "new@example.com", c.Email)

	assert.Error(t, c.ChangeEmail("nope"))
}
