package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	sent []Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func testOrder(t *testing.T) *order.Order {
	t.Helper()
	addr, err := valueobject.NewAddress("1 Main St", "", "Springfield", "IL", "62704", "US")
	require.NoError(t, err)
	o, err := order.New(uuid.New(), "ORD-2026-00042", uuid.New(), "jamie@example.com", "Jamie", addr, valueobject.USD)
	require.NoError(t, err)
	return o
}

func TestOrderNotificationHandler(t *testing.T) {
	ctx := context.Background()
	o := testOrder(t)

	t.Run("order created sends confirmation", func(t *testing.T) {
		mailer := &fakeMailer{}
		h := NewOrderNotificationHandler(mailer, "Acme Store", nil)

		require.NoError(t, h.Handle(ctx, order.NewCreatedEvent(o)))
		require.Len(t, mailer.sent, 1)
		assert.Equal(t, "jamie@example.com", mailer.sent[0].To)
		assert.Contains(t, mailer.sent[0].Subject, "ORD-2026-00042")
		assert.Contains(t, mailer.sent[0].Subject, "Acme Store")
	})

	t.Run("order paid sends receipt", func(t *testing.T) {
		mailer := &fakeMailer{}
		h := NewOrderNotificationHandler(mailer, "Acme Store", nil)

		require.NoError(t, h.Handle(ctx, order.NewPaidEvent(o)))
		require.Len(t, mailer.sent, 1)
		assert.Contains(t, mailer.sent[0].TextBody, "payment")
	})

	t.Run("shipped transition notifies the customer", func(t *testing.T) {
		mailer := &fakeMailer{}
		h := NewOrderNotificationHandler(mailer, "Acme Store", nil)

		require.NoError(t, h.Handle(ctx, order.NewStatusChangedEvent(o, order.StatusProcessing, order.StatusShipped)))
		require.Len(t, mailer.sent, 1)
		assert.Contains(t, mailer.sent[0].TextBody, "shipped")
	})

	t.Run("confirmed transition is silent", func(t *testing.T) {
		mailer := &fakeMailer{}
		h := NewOrderNotificationHandler(mailer, "Acme Store", nil)

		require.NoError(t, h.Handle(ctx, order.NewStatusChangedEvent(o, order.StatusPending, order.StatusConfirmed)))
		assert.Empty(t, mailer.sent)
	})

	t.Run("cancellation after payment mentions the refund", func(t *testing.T) {
		paid := testOrder(t)
		paid.MarkPaymentCompleted()
		require.NoError(t, paid.TransitionTo(order.StatusConfirmed))
		require.NoError(t, paid.Cancel("out of stock"))

		mailer := &fakeMailer{}
		h := NewOrderNotificationHandler(mailer, "Acme Store", nil)

		require.NoError(t, h.Handle(ctx, order.NewStatusChangedEvent(paid, order.StatusConfirmed, order.StatusCancelled)))
		require.Len(t, mailer.sent, 1)
		assert.Contains(t, mailer.sent[0].TextBody, "refund")
	})

	t.Run("mailer failure propagates", func(t *testing.T) {
		mailer := &fakeMailer{err: errors.New("provider unavailable")}
		h := NewOrderNotificationHandler(mailer, "Acme Store", nil)

		err := h.Handle(ctx, order.NewPaidEvent(o))
		assert.Error(t, err)
	})
}
