package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// OrderModel is the GORM model for orders
type OrderModel struct {
	TenantAggregateModel
	OrderNumber        string           `gorm:"type:varchar(32);not null;uniqueIndex:idx_orders_tenant_number,priority:2"`
	CustomerID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	CustomerEmail      string           `gorm:"type:varchar(100);not null;index"`
	CustomerName       string           `gorm:"type:varchar(100);not null"`
	ShippingLine1      string           `gorm:"type:varchar(200);not null"`
	ShippingLine2      string           `gorm:"type:varchar(200)"`
	ShippingCity       string           `gorm:"type:varchar(100);not null"`
	ShippingState      string           `gorm:"type:varchar(100)"`
	ShippingPostalCode string           `gorm:"type:varchar(20)"`
	ShippingCountry    string           `gorm:"type:varchar(2);not null"`
	Currency           string           `gorm:"type:varchar(3);not null"`
	SubtotalAmount     decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	ShippingAmount     decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	TotalAmount        decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Status             string           `gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentCompleted   bool             `gorm:"not null;default:false"`
	RefundRequired     bool             `gorm:"not null;default:false"`
	Notes              string           `gorm:"type:text"`
	ConfirmedAt        *time.Time       `gorm:"type:timestamptz"`
	ShippedAt          *time.Time       `gorm:"type:timestamptz"`
	DeliveredAt        *time.Time       `gorm:"type:timestamptz"`
	CancelledAt        *time.Time       `gorm:"type:timestamptz"`
	CancelReason       string           `gorm:"type:varchar(500)"`
	Items              []OrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName specifies the table name
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is the GORM model for order line items
type OrderItemModel struct {
	BaseModel
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	SKU         string          `gorm:"type:varchar(64);not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName specifies the table name
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the model to a domain order
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		OrderNumber:   m.OrderNumber,
		CustomerID:    m.CustomerID,
		CustomerEmail: m.CustomerEmail,
		CustomerName:  m.CustomerName,
		ShippingAddress: valueobject.Address{
			Line1:      m.ShippingLine1,
			Line2:      m.ShippingLine2,
			City:       m.ShippingCity,
			State:      m.ShippingState,
			PostalCode: m.ShippingPostalCode,
			Country:    m.ShippingCountry,
		},
		Currency:         valueobject.Currency(m.Currency),
		SubtotalAmount:   m.SubtotalAmount,
		ShippingAmount:   m.ShippingAmount,
		TotalAmount:      m.TotalAmount,
		Status:           order.Status(m.Status),
		PaymentCompleted: m.PaymentCompleted,
		RefundRequired:   m.RefundRequired,
		Notes:            m.Notes,
		ConfirmedAt:      m.ConfirmedAt,
		ShippedAt:        m.ShippedAt,
		DeliveredAt:      m.DeliveredAt,
		CancelledAt:      m.CancelledAt,
		CancelReason:     m.CancelReason,
	}
	m.PopulateTenantAggregateRoot(&o.TenantAggregateRoot)
	o.Items = make([]order.Item, 0, len(m.Items))
	for i := range m.Items {
		o.Items = append(o.Items, m.Items[i].ToDomain())
	}
	return o
}

// FromDomain updates the model from a domain order
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainTenantAggregateRoot(o.TenantAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.CustomerID = o.CustomerID
	m.CustomerEmail = o.CustomerEmail
	m.CustomerName = o.CustomerName
	m.ShippingLine1 = o.ShippingAddress.Line1
	m.ShippingLine2 = o.ShippingAddress.Line2
	m.ShippingCity = o.ShippingAddress.City
	m.ShippingState = o.ShippingAddress.State
	m.ShippingPostalCode = o.ShippingAddress.PostalCode
	m.ShippingCountry = o.ShippingAddress.Country
	m.Currency = string(o.Currency)
	m.SubtotalAmount = o.SubtotalAmount
	m.ShippingAmount = o.ShippingAmount
	m.TotalAmount = o.TotalAmount
	m.Status = string(o.Status)
	m.PaymentCompleted = o.PaymentCompleted
	m.RefundRequired = o.RefundRequired
	m.Notes = o.Notes
	m.ConfirmedAt = o.ConfirmedAt
	m.ShippedAt = o.ShippedAt
	m.DeliveredAt = o.DeliveredAt
	m.CancelledAt = o.CancelledAt
	m.CancelReason = o.CancelReason
	m.Items = make([]OrderItemModel, 0, len(o.Items))
	for i := range o.Items {
		m.Items = append(m.Items, OrderItemModelFromDomain(&o.Items[i]))
	}
}

// OrderModelFromDomain creates a new model from a domain order
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// ToDomain converts the model to a domain order item
func (m *OrderItemModel) ToDomain() order.Item {
	return order.Item{
		ID:          m.ID,
		OrderID:     m.OrderID,
		ProductID:   m.ProductID,
		ProductName: m.ProductName,
		SKU:         m.SKU,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		Subtotal:    m.Subtotal,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// OrderItemModelFromDomain creates a new model from a domain order item
func OrderItemModelFromDomain(item *order.Item) OrderItemModel {
	return OrderItemModel{
		BaseModel: BaseModel{
			ID:        item.ID,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		},
		OrderID:     item.OrderID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		SKU:         item.SKU,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		Subtotal:    item.Subtotal,
	}
}
