package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
)

// CheckoutItem is one requested line at checkout. The price comes from the
// catalog, never from the client.
type CheckoutItem struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=999"`
}

// CheckoutAddress is the shipping address supplied at checkout
type CheckoutAddress struct {
	Line1      string `json:"line1" binding:"required,min=1,max=200"`
	Line2      string `json:"line2" binding:"max=200"`
	City       string `json:"city" binding:"required,min=1,max=100"`
	State      string `json:"state" binding:"max=100"`
	PostalCode string `json:"postal_code" binding:"max=20"`
	Country    string `json:"country" binding:"required,len=2"`
}

// CheckoutRequest creates an order from the storefront
type CheckoutRequest struct {
	Email           string          `json:"email" binding:"required,email"`
	Name            string          `json:"name" binding:"required,min=1,max=200"`
	Phone           string          `json:"phone" binding:"max=50"`
	ShippingAddress CheckoutAddress `json:"shipping_address" binding:"required"`
	Items           []CheckoutItem  `json:"items" binding:"required,min=1,max=100,dive"`
}

// ItemResponse represents an order line in API responses
type ItemResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Response represents an order in API responses
type Response struct {
	ID               uuid.UUID       `json:"id"`
	OrderNumber      string          `json:"order_number"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	CustomerEmail    string          `json:"customer_email"`
	CustomerName     string          `json:"customer_name"`
	ShippingAddress  AddressResponse `json:"shipping_address"`
	Items            []ItemResponse  `json:"items"`
	Currency         string          `json:"currency"`
	SubtotalAmount   decimal.Decimal `json:"subtotal_amount"`
	ShippingAmount   decimal.Decimal `json:"shipping_amount"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Status           string          `json:"status"`
	PaymentCompleted bool            `json:"payment_completed"`
	RefundRequired   bool            `json:"refund_required"`
	CancelReason     string          `json:"cancel_reason,omitempty"`
	ConfirmedAt      *time.Time      `json:"confirmed_at,omitempty"`
	ShippedAt        *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt      *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt      *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Version          int             `json:"version"`
}

// AddressResponse represents an address in API responses
type AddressResponse struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country"`
}

// ListFilter represents filter options for the order list
type ListFilter struct {
	Status     string     `form:"status" binding:"omitempty,oneof=pending confirmed processing shipped delivered cancelled"`
	CustomerID *uuid.UUID `form:"customer_id"`
	Search     string     `form:"search"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// TransitionRequest asks for an order status change
type TransitionRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed processing shipped delivered cancelled"`
	Reason string `json:"reason" binding:"max=500"`
}

// ToResponse converts an order aggregate to a response DTO
func ToResponse(o *order.Order) *Response {
	items := make([]ItemResponse, 0, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items = append(items, ItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			SKU:         item.SKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		})
	}

	return &Response{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerID:    o.CustomerID,
		CustomerEmail: o.CustomerEmail,
		CustomerName:  o.CustomerName,
		ShippingAddress: AddressResponse{
			Line1:      o.ShippingAddress.Line1,
			Line2:      o.ShippingAddress.Line2,
			City:       o.ShippingAddress.City,
			State:      o.ShippingAddress.State,
			PostalCode: o.ShippingAddress.PostalCode,
			Country:    o.ShippingAddress.Country,
		},
		Items:            items,
		Currency:         string(o.Currency),
		SubtotalAmount:   o.SubtotalAmount,
		ShippingAmount:   o.ShippingAmount,
		TotalAmount:      o.TotalAmount,
		Status:           o.Status.String(),
		PaymentCompleted: o.PaymentCompleted,
		RefundRequired:   o.RefundRequired,
		CancelReason:     o.CancelReason,
		ConfirmedAt:      o.ConfirmedAt,
		ShippedAt:        o.ShippedAt,
		DeliveredAt:      o.DeliveredAt,
		CancelledAt:      o.CancelledAt,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
		Version:          o.Version,
	}
}
