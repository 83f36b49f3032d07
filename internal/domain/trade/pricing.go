package trade

import (
	"github.com/gaug1c/ecommerce-backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineQuote is the priced form of one cart line
type LineQuote struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// Quote is the priced cart. ShippingCost is the per-product surcharges plus
// the destination base fee; Total is Subtotal + ShippingCost.
type Quote struct {
	Lines           []LineQuote
	Subtotal        decimal.Decimal
	ProductShipping decimal.Decimal
	CityShipping    decimal.Decimal
	ShippingCost    decimal.Decimal
	Total           decimal.Decimal
}

// PriceCart prices every cart line from the product snapshots. It does not
// look at stock; use CheckStock for that.
func PriceCart(items []CartItem, products map[uuid.UUID]*catalog.Product) (*Quote, error) {
	q := &Quote{
		Lines:           make([]LineQuote, 0, len(items)),
		Subtotal:        decimal.Zero,
		ProductShipping: decimal.Zero,
		CityShipping:    decimal.Zero,
	}
	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok || !p.IsActive {
			return nil, ErrProductUnavailable
		}
		unit := p.EffectivePrice()
		line := LineQuote{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    item.Quantity,
			UnitPrice:   unit,
			Subtotal:    unit.Mul(decimal.NewFromInt(int64(item.Quantity))),
		}
		q.Lines = append(q.Lines, line)
		q.Subtotal = q.Subtotal.Add(line.Subtotal)
		q.ProductShipping = q.ProductShipping.Add(p.ShippingSurcharge())
	}
	q.recalculate()
	return q, nil
}

// ShipTo adds the base delivery fee for city
func (q *Quote) ShipTo(city string) *Quote {
	q.CityShipping = CityShippingFee(city)
	q.recalculate()
	return q
}

// TotalQuantity sums the line quantities
func (q *Quote) TotalQuantity() int {
	n := 0
	for _, l := range q.Lines {
		n += l.Quantity
	}
	return n
}

func (q *Quote) recalculate() {
	q.ShippingCost = q.ProductShipping.Add(q.CityShipping)
	q.Total = q.Subtotal.Add(q.ShippingCost)
}

// CheckStock returns an InsufficientStockError for the first line whose
// quantity exceeds the product's current stock.
func CheckStock(items []CartItem, products map[uuid.UUID]*catalog.Product) error {
	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok || !p.IsActive {
			return ErrProductUnavailable
		}
		if p.Stock < item.Quantity {
			return NewInsufficientStockError(p.ID, p.Name, item.Quantity, p.Stock)
		}
	}
	return nil
}
