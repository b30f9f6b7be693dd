package customer

import (
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeCustomer = "Customer"

// Event type constants
const EventTypeCustomerCreated = "CustomerCreated"

// CreatedEvent is raised when a new customer is created
type CreatedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
}

// NewCreatedEvent creates a new CreatedEvent
func NewCreatedEvent(c *Customer) *CreatedEvent {
	return &CreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerCreated, AggregateTypeCustomer, c.ID, c.TenantID),
		CustomerID:      c.ID,
		Email:           c.Email,
		Name:            c.Name,
	}
}

// EventType returns the event type name
func (e *CreatedEvent) EventType() string {
	return EventTypeCustomerCreated
}
