package models

import (
	"github.com/storefront/backend/internal/domain/customer"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// CustomerModel is the GORM model for storefront customers
type CustomerModel struct {
	TenantAggregateModel
	Email              string `gorm:"type:varchar(100);not null;uniqueIndex:idx_customers_tenant_email,priority:2"`
	Name               string `gorm:"type:varchar(100);not null"`
	Phone              string `gorm:"type:varchar(30)"`
	ShippingLine1      string `gorm:"type:varchar(200)"`
	ShippingLine2      string `gorm:"type:varchar(200)"`
	ShippingCity       string `gorm:"type:varchar(100)"`
	ShippingState      string `gorm:"type:varchar(100)"`
	ShippingPostalCode string `gorm:"type:varchar(20)"`
	ShippingCountry    string `gorm:"type:varchar(2)"`
	Status             string `gorm:"type:varchar(20);not null;default:'active'"`
	Notes              string `gorm:"type:text"`
}

// TableName specifies the table name
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the model to a domain customer
func (m *CustomerModel) ToDomain() *customer.Customer {
	c := &customer.Customer{
		Email: m.Email,
		Name:  m.Name,
		Phone: m.Phone,
		DefaultShipping: valueobject.Address{
			Line1:      m.ShippingLine1,
			Line2:      m.ShippingLine2,
			City:       m.ShippingCity,
			State:      m.ShippingState,
			PostalCode: m.ShippingPostalCode,
			Country:    m.ShippingCountry,
		},
		Status: customer.Status(m.Status),
		Notes:  m.Notes,
	}
	m.PopulateTenantAggregateRoot(&c.TenantAggregateRoot)
	return c
}

// FromDomain updates the model from a domain customer
func (m *CustomerModel) FromDomain(c *customer.Customer) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.Email = c.Email
	m.Name = c.Name
	m.Phone = c.Phone
	m.ShippingLine1 = c.DefaultShipping.Line1
	m.ShippingLine2 = c.DefaultShipping.Line2
	m.ShippingCity = c.DefaultShipping.City
	m.ShippingState = c.DefaultShipping.State
	m.ShippingPostalCode = c.DefaultShipping.PostalCode
	m.ShippingCountry = c.DefaultShipping.Country
	m.Status = string(c.Status)
	m.Notes = c.Notes
}

// CustomerModelFromDomain creates a new model from a domain customer
func CustomerModelFromDomain(c *customer.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
