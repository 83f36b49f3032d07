package finance

import (
	"context"

	"github.com/google/uuid"
)

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// FindByID finds a payment by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByOrderID finds the payment of an order
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*Payment, error)

	// FindByReference resolves a payment by internal reference or by the
	// gateway-assigned reference; empty arguments are ignored.
	// ErrPaymentReferenceMismatch when the identifiers name different payments.
	FindByReference(ctx context.Context, reference, providerReference string) (*Payment, error)

	// ExistsForOrder reports whether any payment row exists for the order
	ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)

	// Create inserts a payment; ErrDuplicatePayment when the order already has one
	Create(ctx context.Context, payment *Payment) error

	// SaveWithLock updates the payment if its version is unchanged and bumps
	// the version; shared.ErrConcurrencyConflict otherwise
	SaveWithLock(ctx context.Context, payment *Payment) error
}
