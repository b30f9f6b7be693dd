package notification

import (
	"context"
	"fmt"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrderNotificationHandler emails customers about order lifecycle changes.
// It subscribes to the order events raised at checkout, on payment and on
// every admin status transition.
type OrderNotificationHandler struct {
	mailer    Mailer
	storeName string
	logger    *zap.Logger
}

// NewOrderNotificationHandler creates a new order notification handler
func NewOrderNotificationHandler(mailer Mailer, storeName string, logger *zap.Logger) *OrderNotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if storeName == "" {
		storeName = "Storefront"
	}
	return &OrderNotificationHandler{
		mailer:    mailer,
		storeName: storeName,
		logger:    logger,
	}
}

// EventTypes returns the event types this handler subscribes to
func (h *OrderNotificationHandler) EventTypes() []string {
	return []string{
		order.EventTypeOrderCreated,
		order.EventTypeOrderPaid,
		order.EventTypeOrderStatusChanged,
	}
}

// Handle dispatches the event to the matching mail template
func (h *OrderNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *order.CreatedEvent:
		return h.sendOrderConfirmation(ctx, e)
	case *order.PaidEvent:
		return h.sendPaymentReceipt(ctx, e)
	case *order.StatusChangedEvent:
		return h.sendStatusUpdate(ctx, e)
	default:
		// Subscribed types and handled types drift apart only through a
		// programming error; log rather than fail the publisher.
		h.logger.Warn("unexpected event type", zap.String("event_type", event.EventType()))
		return nil
	}
}

func (h *OrderNotificationHandler) sendOrderConfirmation(ctx context.Context, e *order.CreatedEvent) error {
	msg := Message{
		To:      e.CustomerEmail,
		Subject: fmt.Sprintf("%s: order %s received", h.storeName, e.OrderNumber),
		TextBody: fmt.Sprintf(
			"Thank you for your order.\n\nOrder number: %s\nTotal: %s %s\n\nWe will email you when your payment is confirmed.",
			e.OrderNumber, e.TotalAmount.StringFixed(2), e.Currency),
	}
	return h.send(ctx, msg, e.OrderNumber)
}

func (h *OrderNotificationHandler) sendPaymentReceipt(ctx context.Context, e *order.PaidEvent) error {
	msg := Message{
		To:      e.CustomerEmail,
		Subject: fmt.Sprintf("%s: payment received for order %s", h.storeName, e.OrderNumber),
		TextBody: fmt.Sprintf(
			"We received your payment of %s %s for order %s.\n\nYour order is now being prepared.",
			e.TotalAmount.StringFixed(2), e.Currency, e.OrderNumber),
	}
	return h.send(ctx, msg, e.OrderNumber)
}

func (h *OrderNotificationHandler) sendStatusUpdate(ctx context.Context, e *order.StatusChangedEvent) error {
	var body string
	switch e.ToStatus {
	case order.StatusShipped:
		body = fmt.Sprintf("Your order %s has shipped.", e.OrderNumber)
	case order.StatusDelivered:
		body = fmt.Sprintf("Your order %s has been delivered. Thank you for shopping with us.", e.OrderNumber)
	case order.StatusCancelled:
		body = fmt.Sprintf("Your order %s has been cancelled.", e.OrderNumber)
		if e.RefundRequired {
			body += " A refund will be processed shortly."
		}
	default:
		// Confirmed and processing transitions are internal; the customer
		// already received a confirmation or receipt.
		return nil
	}

	msg := Message{
		To:       e.CustomerEmail,
		Subject:  fmt.Sprintf("%s: update on order %s", h.storeName, e.OrderNumber),
		TextBody: body,
	}
	return h.send(ctx, msg, e.OrderNumber)
}

func (h *OrderNotificationHandler) send(ctx context.Context, msg Message, orderNumber string) error {
	if err := h.mailer.Send(ctx, msg); err != nil {
		h.logger.Error("failed to send order email",
			zap.String("order_number", orderNumber),
			zap.String("to", msg.To),
			zap.Error(err))
		return err
	}
	h.logger.Info("order email sent",
		zap.String("order_number", orderNumber),
		zap.String("subject", msg.Subject))
	return nil
}

var _ shared.EventHandler = (*OrderNotificationHandler)(nil)
