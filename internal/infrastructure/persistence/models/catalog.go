package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// ProductModel is the GORM model for products
type ProductModel struct {
	TenantAggregateModel
	SKU         string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_products_tenant_sku,priority:2"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Description string          `gorm:"type:text"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency    string          `gorm:"type:varchar(3);not null"`
	ImageKey    string          `gorm:"type:varchar(512)"`
	Status      string          `gorm:"type:varchar(20);not null;default:'active';index"`
	SortOrder   int             `gorm:"not null;default:0"`
}

// TableName specifies the table name
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the model to a domain product
func (m *ProductModel) ToDomain() *catalog.Product {
	product := &catalog.Product{
		SKU:         m.SKU,
		Name:        m.Name,
		Description: m.Description,
		CategoryID:  m.CategoryID,
		Price:       m.Price,
		Currency:    valueobject.Currency(m.Currency),
		ImageKey:    m.ImageKey,
		Status:      catalog.ProductStatus(m.Status),
		SortOrder:   m.SortOrder,
	}
	m.PopulateTenantAggregateRoot(&product.TenantAggregateRoot)
	return product
}

// FromDomain updates the model from a domain product
func (m *ProductModel) FromDomain(product *catalog.Product) {
	m.FromDomainTenantAggregateRoot(product.TenantAggregateRoot)
	m.SKU = product.SKU
	m.Name = product.Name
	m.Description = product.Description
	m.CategoryID = product.CategoryID
	m.Price = product.Price
	m.Currency = string(product.Currency)
	m.ImageKey = product.ImageKey
	m.Status = string(product.Status)
	m.SortOrder = product.SortOrder
}

// ProductModelFromDomain creates a new model from a domain product
func ProductModelFromDomain(product *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(product)
	return m
}

// CategoryModel is the GORM model for categories
type CategoryModel struct {
	TenantAggregateModel
	Slug        string `gorm:"type:varchar(100);not null;uniqueIndex:idx_categories_tenant_slug,priority:2"`
	Name        string `gorm:"type:varchar(100);not null"`
	Description string `gorm:"type:text"`
	SortOrder   int    `gorm:"not null;default:0"`
	Status      string `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName specifies the table name
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the model to a domain category
func (m *CategoryModel) ToDomain() *catalog.Category {
	category := &catalog.Category{
		Slug:        m.Slug,
		Name:        m.Name,
		Description: m.Description,
		SortOrder:   m.SortOrder,
		Status:      catalog.CategoryStatus(m.Status),
	}
	m.PopulateTenantAggregateRoot(&category.TenantAggregateRoot)
	return category
}

// FromDomain updates the model from a domain category
func (m *CategoryModel) FromDomain(category *catalog.Category) {
	m.FromDomainTenantAggregateRoot(category.TenantAggregateRoot)
	m.Slug = category.Slug
	m.Name = category.Name
	m.Description = category.Description
	m.SortOrder = category.SortOrder
	m.Status = string(category.Status)
}

// CategoryModelFromDomain creates a new model from a domain category
func CategoryModelFromDomain(category *catalog.Category) *CategoryModel {
	m := &CategoryModel{}
	m.FromDomain(category)
	return m
}
