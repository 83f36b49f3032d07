package finance

import (
	"github.com/gaug1c/ecommerce-backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypePayment = "Payment"

// Event type constants
const (
	EventTypePaymentInitiated = "PaymentInitiated"
	EventTypePaymentCompleted = "PaymentCompleted"
	EventTypePaymentFailed    = "PaymentFailed"
	EventTypePaymentRefunded  = "PaymentRefunded"
)

// PaymentEvent is the payload shared by all payment events
type PaymentEvent struct {
	shared.BaseDomainEvent
	PaymentID     uuid.UUID       `json:"payment_id"`
	OrderID       uuid.UUID       `json:"order_id"`
	UserID        uuid.UUID       `json:"user_id"`
	Provider      Provider        `json:"provider"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transaction_id"`
	Status        PaymentStatus   `json:"status"`
}

// RecipientID returns the customer to notify
func (e *PaymentEvent) RecipientID() uuid.UUID {
	return e.UserID
}

func newPaymentEvent(eventType string, p *Payment) *PaymentEvent {
	return &PaymentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypePayment, p.ID),
		PaymentID:       p.ID,
		OrderID:         p.OrderID,
		UserID:          p.UserID,
		Provider:        p.Provider,
		Amount:          p.Amount,
		TransactionID:   p.TransactionID,
		Status:          p.Status,
	}
}

// NewPaymentInitiatedEvent is raised once the gateway accepted the USSD push
func NewPaymentInitiatedEvent(p *Payment) *PaymentEvent {
	return newPaymentEvent(EventTypePaymentInitiated, p)
}

// NewPaymentCompletedEvent is raised when the gateway confirms collection
func NewPaymentCompletedEvent(p *Payment) *PaymentEvent {
	return newPaymentEvent(EventTypePaymentCompleted, p)
}

// NewPaymentFailedEvent is raised when the gateway reports a failure
func NewPaymentFailedEvent(p *Payment) *PaymentEvent {
	return newPaymentEvent(EventTypePaymentFailed, p)
}

// NewPaymentRefundedEvent is raised when a completed payment is refunded
func NewPaymentRefundedEvent(p *Payment) *PaymentEvent {
	return newPaymentEvent(EventTypePaymentRefunded, p)
}
