package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Status represents the fulfillment status of a customer order
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// IsValid checks if the status is a valid order Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for states with no outgoing transitions
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusConfirmed || target == StatusProcessing || target == StatusCancelled
	case StatusConfirmed:
		return target == StatusProcessing || target == StatusCancelled
	case StatusProcessing:
		return target == StatusShipped || target == StatusCancelled
	case StatusShipped:
		return target == StatusDelivered || target == StatusCancelled
	case StatusDelivered, StatusCancelled:
		return false
	}
	return false
}

// Item represents a line item in an order. Unit price and product name are
// snapshotted at checkout time so later catalog edits don't rewrite history.
type Item struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	SKU         string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewItem creates a new order line item
func NewItem(orderID, productID uuid.UUID, productName, sku string, quantity int, unitPrice valueobject.Money) (*Item, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	qty := decimal.NewFromInt(int64(quantity))
	return &Item{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductID:   productID,
		ProductName: productName,
		SKU:         sku,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		Subtotal:    unitPrice.Amount().Mul(qty),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Order is the aggregate root for a customer order. It owns the fulfillment
// status machine; payment state lives on the PaymentTransaction aggregate and
// is reflected here only through the PaymentCompleted flag.
type Order struct {
	shared.TenantAggregateRoot
	OrderNumber      string
	CustomerID       uuid.UUID
	CustomerEmail    string
	CustomerName     string
	ShippingAddress  valueobject.Address
	Items            []Item
	Currency         valueobject.Currency
	SubtotalAmount   decimal.Decimal
	ShippingAmount   decimal.Decimal
	TotalAmount      decimal.Decimal
	Status           Status
	PaymentCompleted bool
	RefundRequired   bool
	Notes            string
	ConfirmedAt      *time.Time
	ShippedAt        *time.Time
	DeliveredAt      *time.Time
	CancelledAt      *time.Time
	CancelReason     string
}

// New creates a new pending order
func New(tenantID uuid.UUID, orderNumber string, customerID uuid.UUID, customerEmail, customerName string, shippingAddress valueobject.Address, currency valueobject.Currency) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if customerEmail == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_EMAIL", "Customer email cannot be empty")
	}
	if shippingAddress.IsZero() {
		return nil, shared.NewDomainError("INVALID_ADDRESS", "Shipping address is required")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	o := &Order{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderNumber:         orderNumber,
		CustomerID:          customerID,
		CustomerEmail:       customerEmail,
		CustomerName:        customerName,
		ShippingAddress:     shippingAddress,
		Items:               make([]Item, 0),
		Currency:            currency,
		SubtotalAmount:      decimal.Zero,
		ShippingAmount:      decimal.Zero,
		TotalAmount:         decimal.Zero,
		Status:              StatusPending,
	}

	o.AddDomainEvent(NewCreatedEvent(o))
	return o, nil
}

// AddItem adds a new line item. Only allowed while the order is pending and
// unpaid (checkout assembly).
func (o *Order) AddItem(productID uuid.UUID, productName, sku string, quantity int, unitPrice valueobject.Money) (*Item, error) {
	if o.Status != StatusPending || o.PaymentCompleted {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to a finalized order")
	}
	if unitPrice.Currency() != o.Currency {
		return nil, shared.NewDomainError("CURRENCY_MISMATCH", "Item currency does not match order currency")
	}

	for idx := range o.Items {
		if o.Items[idx].ProductID == productID {
			return nil, shared.NewDomainError("DUPLICATE_PRODUCT", "Product already exists in order")
		}
	}

	item, err := NewItem(o.ID, productID, productName, sku, quantity, unitPrice)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotals()
	o.UpdatedAt = time.Now()
	return item, nil
}

// SetShipping sets the order-level shipping charge
func (o *Order) SetShipping(amount valueobject.Money) error {
	if o.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot change shipping on a non-pending order")
	}
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Shipping amount cannot be negative")
	}
	if amount.Currency() != o.Currency {
		return shared.NewDomainError("CURRENCY_MISMATCH", "Shipping currency does not match order currency")
	}
	o.ShippingAmount = amount.Amount()
	o.recalculateTotals()
	o.UpdatedAt = time.Now()
	return nil
}

// TransitionTo moves the order to the target status, enforcing the guard.
// Illegal transitions are rejected with ErrInvalidTransition.
func (o *Order) TransitionTo(target Status) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown order status: "+target.String())
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.ErrInvalidTransition
	}

	from := o.Status
	now := time.Now()
	o.Status = target
	o.UpdatedAt = now

	switch target {
	case StatusConfirmed:
		o.ConfirmedAt = &now
	case StatusShipped:
		o.ShippedAt = &now
	case StatusDelivered:
		o.DeliveredAt = &now
	case StatusCancelled:
		o.CancelledAt = &now
		// A paid order that gets cancelled needs manual refund review; the
		// gateway is never auto-refunded from here.
		if o.PaymentCompleted {
			o.RefundRequired = true
		}
	}

	o.AddDomainEvent(NewStatusChangedEvent(o, from, target))
	return nil
}

// Cancel cancels the order with a reason
func (o *Order) Cancel(reason string) error {
	if err := o.TransitionTo(StatusCancelled); err != nil {
		return err
	}
	o.CancelReason = reason
	return nil
}

// MarkPaymentCompleted records that the order's payment transaction settled
func (o *Order) MarkPaymentCompleted() {
	if o.PaymentCompleted {
		return
	}
	o.PaymentCompleted = true
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewPaidEvent(o))
}

// TotalMoney returns the order total as a Money value object
func (o *Order) TotalMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(o.TotalAmount, o.Currency)
	return m
}

// ItemCount returns the number of line items
func (o *Order) ItemCount() int {
	return len(o.Items)
}

func (o *Order) recalculateTotals() {
	subtotal := decimal.Zero
	for idx := range o.Items {
		subtotal = subtotal.Add(o.Items[idx].Subtotal)
	}
	o.SubtotalAmount = subtotal
	o.TotalAmount = subtotal.Add(o.ShippingAmount)
}
