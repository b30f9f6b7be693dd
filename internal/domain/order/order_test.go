package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
func testAddress(t *testing.T) valueobject.Address {
	addr, err := valueobject.NewAddress("12 Harbor Way", "", "Portland", "OR", "97201", "US")
	require.NoError(t, err)
	return addr
}

func createTestOrder(t *testing.T) *Order {
	o, err := New(uuid.New(), "ORD-2026-0001", uuid.New(), "jo@example.com", "Jo Walker", testAddress(t), valueobject.USD)
	require.NoError(t, err)
	return o
}

func addTestItem(t *testing.T, o *Order, name string, qty int, price string) *Item {
	unitPrice, err := valueobject.NewMoneyFromString(price, o.Currency)
	require.NoError(t, err)
	item, err := o.AddItem(uuid.New(), name, "SKU-"+name, qty, unitPrice)
	require.NoError(t, err)
	return item
}

func TestStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  Status
		isValid bool
	}{
		{StatusPending, true},
		{StatusConfirmed, true},
		{StatusProcessing, true},
		{StatusShipped, true},
		{StatusDelivered, true},
		{StatusCancelled, true},
		{Status("refunded"), false},
		{Status(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     Status
		to       Status
		canTrans bool
	}{
		// From pending
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusDelivered, false},
		// From confirmed
		{StatusConfirmed, StatusProcessing, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusShipped, false},
		{StatusConfirmed, StatusPending, false},
		{StatusConfirmed, StatusDelivered, false},
		// From processing
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusConfirmed, false},
		{StatusProcessing, StatusDelivered, false},
		// From shipped
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, true},
		{StatusShipped, StatusProcessing, false},
		{StatusShipped, StatusPending, false},
		// From delivered (terminal)
		{StatusDelivered, StatusPending, false},
		{StatusDelivered, StatusConfirmed, false},
		{StatusDelivered, StatusShipped, false},
		{StatusDelivered, StatusCancelled, false},
		// From cancelled (terminal)
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusProcessing, false},
		{StatusCancelled, StatusDelivered, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusShipped.IsTerminal())
}

func TestNew(t *testing.T) {
	t.Run("creates pending order with event", func(t *testing.T) {
		o := createTestOrder(t)
		assert.Equal(t, StatusPending, o.Status)
		assert.False(t, o.PaymentCompleted)
		assert.True(t, o.TotalAmount.IsZero())

		events := o.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeOrderCreated, events[0].EventType())
	})

	t.Run("rejects empty order number", func(t *testing.T) {
		_, err := New(uuid.New(), "", uuid.New(), "jo@example.com", "Jo", testAddress(t), valueobject.USD)
		assert.Error(t, err)
	})

	t.Run("rejects missing customer email", func(t *testing.T) {
		_, err := New(uuid.New(), "ORD-1", uuid.New(), "", "Jo", testAddress(t), valueobject.USD)
		assert.Error(t, err)
	})

	t.Run("defaults currency", func(t *testing.T) {
		o, err := New(uuid.New(), "ORD-1", uuid.New(), "jo@example.com", "Jo", testAddress(t), "")
		require.NoError(t, err)
		assert.Equal(t, valueobject.DefaultCurrency, o.Currency)
	})
}

func TestOrder_AddItem(t *testing.T) {
	t.Run("recalculates totals", func(t *testing.T) {
		o := createTestOrder(t)
		addTestItem(t, o, "Mug", 2, "12.50")
		addTestItem(t, o, "Poster", 1, "30.00")

		assert.True(t, o.SubtotalAmount.Equal(decimal.RequireFromString("55.00")))
		assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("55.00")))
	})

	t.Run("rejects duplicate product", func(t *testing.T) {
		o := createTestOrder(t)
		productID := uuid.New()
		price, _ := valueobject.NewMoneyFromString("5.00", o.Currency)

		_, err := o.AddItem(productID, "Mug", "SKU-1", 1, price)
		require.NoError(t, err)
		_, err = o.AddItem(productID, "Mug", "SKU-1", 2, price)
		assert.Error(t, err)
	})

	t.Run("rejects currency mismatch", func(t *testing.T) {
		o := createTestOrder(t)
		price, _ := valueobject.NewMoneyFromString("5.00", valueobject.EUR)
		_, err := o.AddItem(uuid.New(), "Mug", "SKU-1", 1, price)
		assert.Error(t, err)
	})

	t.Run("rejects items on non-pending order", func(t *testing.T) {
		o := createTestOrder(t)
		addTestItem(t, o, "Mug", 1, "5.00")
		require.NoError(t, o.TransitionTo(StatusConfirmed))

		price, _ := valueobject.NewMoneyFromString("5.00", o.Currency)
		_, err := o.AddItem(uuid.New(), "Poster", "SKU-2", 1, price)
		assert.Error(t, err)
	})
}

func TestOrder_SetShipping(t *testing.T) {
	o := createTestOrder(t)
	addTestItem(t, o, "Mug", 1, "10.00")

	shipping, _ := valueobject.NewMoneyFromString("4.99", o.Currency)
	require.NoError(t, o.SetShipping(shipping))
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("14.99")))
}

func TestOrder_TransitionTo(t *testing.T) {
	t.Run("records timestamps along the happy path", func(t *testing.T) {
		o := createTestOrder(t)
		addTestItem(t, o, "Mug", 1, "10.00")

		require.NoError(t, o.TransitionTo(StatusConfirmed))
		assert.NotNil(t, o.ConfirmedAt)

		require.NoError(t, o.TransitionTo(StatusProcessing))
		require.NoError(t, o.TransitionTo(StatusShipped))
		assert.NotNil(t, o.ShippedAt)

		require.NoError(t, o.TransitionTo(StatusDelivered))
		assert.NotNil(t, o.DeliveredAt)
	})

	t.Run("rejects illegal transition", func(t *testing.T) {
		o := createTestOrder(t)
		err := o.TransitionTo(StatusShipped)
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
		assert.Equal(t, StatusPending, o.Status)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		o := createTestOrder(t)
		err := o.TransitionTo(Status("archived"))
		assert.Error(t, err)
	})

	t.Run("raises status changed event", func(t *testing.T) {
		o := createTestOrder(t)
		o.ClearDomainEvents()
		require.NoError(t, o.TransitionTo(StatusConfirmed))

		events := o.GetDomainEvents()
		require.Len(t, events, 1)
		changed, ok := events[0].(*StatusChangedEvent)
		require.True(t, ok)
		assert.Equal(t, StatusPending, changed.FromStatus)
		assert.Equal(t, StatusConfirmed, changed.ToStatus)
	})
}

func TestOrder_Cancel(t *testing.T) {
	t.Run("unpaid order cancels without refund flag", func(t *testing.T) {
		o := createTestOrder(t)
		require.NoError(t, o.Cancel("customer request"))
		assert.Equal(t, StatusCancelled, o.Status)
		assert.Equal(t, "customer request", o.CancelReason)
		assert.NotNil(t, o.CancelledAt)
		assert.False(t, o.RefundRequired)
	})

	t.Run("paid order flags refund review", func(t *testing.T) {
		o := createTestOrder(t)
		o.MarkPaymentCompleted()
		require.NoError(t, o.Cancel("out of stock"))
		assert.True(t, o.RefundRequired)
	})

	t.Run("cancelling twice fails", func(t *testing.T) {
		o := createTestOrder(t)
		require.NoError(t, o.Cancel("first"))
		assert.ErrorIs(t, o.Cancel("second"), shared.ErrInvalidTransition)
	})
}

func TestOrder_MarkPaymentCompleted(t *testing.T) {
	o := createTestOrder(t)
	o.ClearDomainEvents()

	o.MarkPaymentCompleted()
	assert.True(t, o.PaymentCompleted)
	require.Len(t, o.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeOrderPaid, o.GetDomainEvents()[0].EventType())

	// Idempotent: no second event
	o.MarkPaymentCompleted()
	assert.Len(t, o.GetDomainEvents(), 1)
}
