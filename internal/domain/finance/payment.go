package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/gaug1c/ecommerce-backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the lifecycle of one collection attempt
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted,
		PaymentStatusFailed, PaymentStatusRefunded, PaymentStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// completed only leaves through an explicit refund.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return target == PaymentStatusProcessing || target == PaymentStatusCompleted ||
			target == PaymentStatusFailed || target == PaymentStatusCancelled
	case PaymentStatusProcessing:
		return target == PaymentStatusCompleted || target == PaymentStatusFailed || target == PaymentStatusCancelled
	case PaymentStatusFailed:
		return target == PaymentStatusCompleted
	case PaymentStatusCompleted:
		return target == PaymentStatusRefunded
	case PaymentStatusRefunded, PaymentStatusCancelled:
		return false // Terminal states
	}
	return false
}

// PaymentMethodMobileMoney is the only method collected through the gateway
const PaymentMethodMobileMoney = "mobile_money"

// TransactionReferencePrefix starts every internal payment reference
const TransactionReferencePrefix = "SP-"

// NewTransactionReference returns SP- followed by 32 uppercase hex digits
func NewTransactionReference() string {
	return TransactionReferencePrefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// Payment is one attempt to collect an order's total through the gateway
type Payment struct {
	shared.BaseAggregateRoot
	OrderID           uuid.UUID
	UserID            uuid.UUID
	PaymentMethod     string
	Provider          Provider
	Phone             string
	Amount            decimal.Decimal
	Currency          string
	TransactionID     string  // internal reference sent to the gateway
	ProviderReference *string // gateway-assigned id, learned on initiation
	Status            PaymentStatus
	PaymentDetails    string // last gateway payload, opaque
	RefundedAt        *time.Time
	RefundReason      string
	RefundAmount      *decimal.Decimal
}

// NewPayment creates a pending payment for the full order amount
func NewPayment(orderID, userID uuid.UUID, provider Provider, phone string, amount decimal.Decimal, currency string) (*Payment, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if !provider.IsValid() {
		return nil, shared.NewDomainError("INVALID_PROVIDER", "Provider not supported")
	}
	if l := len(phone); l < 8 || l > 15 {
		return nil, shared.NewDomainError("INVALID_PHONE", "Phone must be between 8 and 15 characters")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	return &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           orderID,
		UserID:            userID,
		PaymentMethod:     PaymentMethodMobileMoney,
		Provider:          provider,
		Phone:             phone,
		Amount:            amount,
		Currency:          currency,
		TransactionID:     NewTransactionReference(),
		Status:            PaymentStatusPending,
	}, nil
}

// AttachGatewayResponse stores the gateway's acknowledgement of the initiation
func (p *Payment) AttachGatewayResponse(providerReference, raw string) {
	if providerReference != "" {
		p.ProviderReference = &providerReference
	}
	p.PaymentDetails = raw
	p.Touch(time.Now())
}

// Identifies reports whether id names this payment, either as our
// reference or as the gateway's transaction id
func (p *Payment) Identifies(id string) bool {
	if id == "" {
		return false
	}
	return id == p.TransactionID || (p.ProviderReference != nil && id == *p.ProviderReference)
}

// StatusQuery asks the gateway about this payment by its own identifiers
func (p *Payment) StatusQuery() StatusQuery {
	q := StatusQuery{Reference: p.TransactionID}
	if p.ProviderReference != nil {
		q.TransactionID = *p.ProviderReference
	}
	return q
}

// MatchesTransaction reports whether the gateway's view of a transaction
// belongs to this payment. Identifiers the gateway left out are not compared.
func (p *Payment) MatchesTransaction(tx *TransactionStatus) bool {
	if tx.Reference != "" && tx.Reference != p.TransactionID {
		return false
	}
	if tx.TransactionID != "" && p.ProviderReference != nil && tx.TransactionID != *p.ProviderReference {
		return false
	}
	return true
}

// IsCompleted reports whether funds were collected
func (p *Payment) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}

// Complete marks the payment as collected
func (p *Payment) Complete(details string) error {
	if err := p.transition(PaymentStatusCompleted); err != nil {
		return err
	}
	p.PaymentDetails = details
	p.AddDomainEvent(NewPaymentCompletedEvent(p))
	return nil
}

// Fail marks the collection attempt as failed
func (p *Payment) Fail(details string) error {
	if err := p.transition(PaymentStatusFailed); err != nil {
		return err
	}
	p.PaymentDetails = details
	p.AddDomainEvent(NewPaymentFailedEvent(p))
	return nil
}

// Refund returns a completed payment in full
func (p *Payment) Refund(reason string) error {
	if p.Status != PaymentStatusCompleted {
		return ErrPaymentNotRefundable
	}
	if err := p.transition(PaymentStatusRefunded); err != nil {
		return err
	}
	now := time.Now()
	amount := p.Amount
	p.RefundedAt = &now
	p.RefundReason = reason
	p.RefundAmount = &amount
	p.AddDomainEvent(NewPaymentRefundedEvent(p))
	return nil
}

func (p *Payment) transition(target PaymentStatus) error {
	if !p.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot change payment status from %s to %s", p.Status, target))
	}
	p.Status = target
	p.Touch(time.Now())
	return nil
}
