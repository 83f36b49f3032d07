package finance

import "github.com/gaug1c/ecommerce-backend/internal/domain/shared"

// Payment flow errors
var (
	ErrOrderNotPayable      = shared.NewDomainError("ORDER_NOT_PAYABLE", "Order not found or already paid")
	ErrDuplicatePayment     = shared.NewDomainError("DUPLICATE_PAYMENT", "Payment already initiated for this order")
	ErrPaymentNotFound      = shared.NewDomainError("NOT_FOUND", "Payment not found")
	ErrPaymentNotRefundable = shared.NewDomainError("NOT_REFUNDABLE", "Only completed payments can be refunded")
	// ErrPaymentReferenceMismatch rejects callbacks whose identifiers name
	// different payments or a transaction that is not the payment's own
	ErrPaymentReferenceMismatch = shared.NewDomainError("INVALID_PAYLOAD", "Payment identifiers do not match")
)

// PaymentInitiationError reports a gateway failure after which the payment
// row was rolled back. Err keeps the gateway detail for logs.
type PaymentInitiationError struct {
	Err error
}

func (e *PaymentInitiationError) Error() string {
	return "payment initiation failed: " + e.Err.Error()
}

func (e *PaymentInitiationError) Unwrap() error {
	return e.Err
}
