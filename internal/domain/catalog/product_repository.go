package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository is the inventory ledger port. Stock is only ever changed
// through DecrementStock and IncrementStock, never by saving a Product.
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs finds multiple products by their IDs; missing IDs are skipped
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// DecrementStock removes qty units only if at least qty are available.
	// Returns shared.ErrInsufficientStock when the guarded update matches no row.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) error

	// IncrementStock returns qty units to the product unconditionally
	IncrementStock(ctx context.Context, id uuid.UUID, qty int) error
}
