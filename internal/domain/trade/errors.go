package trade

import (
	"fmt"

	"github.com/gaug1c/ecommerce-backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Checkout and cart errors
var (
	ErrEmptyCart          = shared.NewDomainError("EMPTY_CART", "Your cart is empty")
	ErrProductUnavailable = shared.NewDomainError("PRODUCT_UNAVAILABLE", "Product is no longer available")
	ErrCartItemNotFound   = shared.NewDomainError("NOT_FOUND", "Item not found in cart")
	ErrOrderNotFound      = shared.NewDomainError("NOT_FOUND", "Order not found")
)

// InsufficientStockError names the product whose stock could not cover the
// requested quantity and the quantity that was available at that moment.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

// NewInsufficientStockError creates an InsufficientStockError
func NewInsufficientStockError(productID uuid.UUID, productName string, requested, available int) *InsufficientStockError {
	if available < 0 {
		available = 0
	}
	return &InsufficientStockError{
		ProductID:   productID,
		ProductName: productName,
		Requested:   requested,
		Available:   available,
	}
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for product: %s. Available stock: %d", e.ProductName, e.Available)
}

// Is makes errors.Is(err, shared.ErrInsufficientStock) hold
func (e *InsufficientStockError) Is(target error) bool {
	return target == shared.ErrInsufficientStock
}
