package models

import (
	"github.com/gaug1c/ecommerce-backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the product snapshot. Stock is
// written only by the guarded stock statements of the product repository.
type ProductModel struct {
	BaseModel
	Name          string           `gorm:"type:varchar(200);not null"`
	Price         decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	DiscountPrice *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ShippingCost  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Stock         int              `gorm:"not null;default:0;check:chk_products_stock_non_negative,stock >= 0"`
	IsActive      bool             `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseEntity:    m.BaseModel.ToDomain(),
		Name:          m.Name,
		Price:         m.Price,
		DiscountPrice: m.DiscountPrice,
		ShippingCost:  m.ShippingCost,
		Stock:         m.Stock,
		IsActive:      m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Product.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.Name = p.Name
	m.Price = p.Price
	m.DiscountPrice = p.DiscountPrice
	m.ShippingCost = p.ShippingCost
	m.Stock = p.Stock
	m.IsActive = p.IsActive
}

// ProductModelFromDomain creates a new persistence model from a domain Product.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
