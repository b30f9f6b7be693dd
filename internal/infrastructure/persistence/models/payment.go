package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// TransactionModel is the GORM model for payment transactions
type TransactionModel struct {
	TenantAggregateModel
	OrderID              uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderNumber          string          `gorm:"type:varchar(32);not null;index"`
	Gateway              string          `gorm:"type:varchar(20);not null"`
	GatewayOrderID       string          `gorm:"type:varchar(128);index"`
	GatewayTransactionID string          `gorm:"type:varchar(128)"`
	Amount               decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency             string          `gorm:"type:varchar(3);not null"`
	PaidAmount           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status               string          `gorm:"type:varchar(30);not null;default:'pending';index"`
	FailureReason        string          `gorm:"type:varchar(500)"`
	GatewayMetadata      string          `gorm:"type:text"`
	PaidAt               *time.Time      `gorm:"type:timestamptz"`
}

// TableName specifies the table name
func (TransactionModel) TableName() string {
	return "payment_transactions"
}

// ToDomain converts the model to a domain transaction
func (m *TransactionModel) ToDomain() *payment.Transaction {
	tx := &payment.Transaction{
		OrderID:              m.OrderID,
		OrderNumber:          m.OrderNumber,
		Gateway:              payment.GatewayType(m.Gateway),
		GatewayOrderID:       m.GatewayOrderID,
		GatewayTransactionID: m.GatewayTransactionID,
		Amount:               m.Amount,
		Currency:             valueobject.Currency(m.Currency),
		PaidAmount:           m.PaidAmount,
		Status:               payment.TransactionStatus(m.Status),
		FailureReason:        m.FailureReason,
		GatewayMetadata:      m.GatewayMetadata,
		PaidAt:               m.PaidAt,
	}
	m.PopulateTenantAggregateRoot(&tx.TenantAggregateRoot)
	return tx
}

// FromDomain updates the model from a domain transaction
func (m *TransactionModel) FromDomain(tx *payment.Transaction) {
	m.FromDomainTenantAggregateRoot(tx.TenantAggregateRoot)
	m.OrderID = tx.OrderID
	m.OrderNumber = tx.OrderNumber
	m.Gateway = string(tx.Gateway)
	m.GatewayOrderID = tx.GatewayOrderID
	m.GatewayTransactionID = tx.GatewayTransactionID
	m.Amount = tx.Amount
	m.Currency = string(tx.Currency)
	m.PaidAmount = tx.PaidAmount
	m.Status = string(tx.Status)
	m.FailureReason = tx.FailureReason
	m.GatewayMetadata = tx.GatewayMetadata
	m.PaidAt = tx.PaidAt
}

// TransactionModelFromDomain creates a new model from a domain transaction
func TransactionModelFromDomain(tx *payment.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(tx)
	return m
}
