package catalog

import (
	"github.com/gaug1c/ecommerce-backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the read-side snapshot of a catalog product that checkout and
// cart pricing need. Catalog management itself lives outside this service.
type Product struct {
	shared.BaseEntity
	Name          string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	ShippingCost  *decimal.Decimal
	Stock         int
	IsActive      bool
}

// EffectivePrice returns the unit price a customer pays: the discount price
// when it is set, positive and lower than the list price, else the list price.
func (p *Product) EffectivePrice() decimal.Decimal {
	return EffectivePrice(p.Price, p.DiscountPrice)
}

// ShippingSurcharge returns the per-product shipping surcharge (zero when unset)
func (p *Product) ShippingSurcharge() decimal.Decimal {
	if p.ShippingCost == nil || p.ShippingCost.IsNegative() {
		return decimal.Zero
	}
	return *p.ShippingCost
}

// HasDiscount reports whether the discount price is the one applied
func (p *Product) HasDiscount() bool {
	return !p.EffectivePrice().Equal(p.Price)
}

// CanFulfil reports whether the current stock covers qty units
func (p *Product) CanFulfil(qty int) bool {
	return qty > 0 && p.Stock >= qty
}

// EffectivePrice is the pure pricing rule shared by cart display and checkout.
func EffectivePrice(price decimal.Decimal, discount *decimal.Decimal) decimal.Decimal {
	if discount == nil || !discount.IsPositive() {
		return price
	}
	if discount.LessThan(price) {
		return *discount
	}
	return price
}

// IndexByID builds a lookup map for a product slice
func IndexByID(products []Product) map[uuid.UUID]*Product {
	idx := make(map[uuid.UUID]*Product, len(products))
	for i := range products {
		idx[products[i].ID] = &products[i]
	}
	return idx
}
