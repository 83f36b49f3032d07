package trade

import (
	"context"
	"time"

	"github.com/gaug1c/ecommerce-backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CartRepository defines the interface for cart persistence
type CartRepository interface {
	// FindByUserID loads the user's cart with its items; shared.ErrNotFound if none exists
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Cart, error)

	// GetOrCreate loads the user's cart, creating an empty one on first access
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*Cart, error)

	// SaveItem creates or updates a cart line
	SaveItem(ctx context.Context, item *CartItem) error

	// DeleteItem removes one line of the cart
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error

	// Clear removes every line of the cart
	Clear(ctx context.Context, cartID uuid.UUID) error
}

// OrderFilter narrows a customer's order history
type OrderFilter struct {
	shared.Filter
	Status   OrderStatus
	FromDate *time.Time
	ToDate   *time.Time
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDForUser finds an order owned by userID
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Order, error)

	// FindByOrderNumber finds an order owned by userID by its number
	FindByOrderNumber(ctx context.Context, userID uuid.UUID, orderNumber string) (*Order, error)

	// FindForUser lists a user's orders, newest first, with the total count
	FindForUser(ctx context.Context, userID uuid.UUID, filter OrderFilter) ([]Order, int64, error)

	// Create inserts a new order and its items
	Create(ctx context.Context, order *Order) error

	// SaveWithLock updates the order header if its version is unchanged and
	// bumps the version; shared.ErrConcurrencyConflict otherwise
	SaveWithLock(ctx context.Context, order *Order) error
}
