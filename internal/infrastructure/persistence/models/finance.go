package models

import (
	"time"

	"github.com/gaug1c/ecommerce-backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentModel is the persistence model for the Payment aggregate root.
// The unique index on order_id is what makes "one payment per order" hold
// under concurrent initiations.
type PaymentModel struct {
	AggregateModel
	OrderID           uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex"`
	UserID            uuid.UUID             `gorm:"type:uuid;not null;index"`
	PaymentMethod     string                `gorm:"type:varchar(30);not null"`
	Provider          finance.Provider      `gorm:"type:varchar(20);not null"`
	Phone             string                `gorm:"type:varchar(20);not null"`
	Amount            decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	Currency          string                `gorm:"type:varchar(10);not null"`
	TransactionID     string                `gorm:"type:varchar(100);not null;uniqueIndex"`
	ProviderReference *string               `gorm:"type:varchar(100);uniqueIndex"`
	Status            finance.PaymentStatus `gorm:"type:varchar(20);not null;index"`
	PaymentDetails    string                `gorm:"type:text"`
	RefundedAt        *time.Time
	RefundReason      string           `gorm:"type:text"`
	RefundAmount      *decimal.Decimal `gorm:"type:decimal(12,2)"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *finance.Payment {
	return &finance.Payment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OrderID:           m.OrderID,
		UserID:            m.UserID,
		PaymentMethod:     m.PaymentMethod,
		Provider:          m.Provider,
		Phone:             m.Phone,
		Amount:            m.Amount,
		Currency:          m.Currency,
		TransactionID:     m.TransactionID,
		ProviderReference: m.ProviderReference,
		Status:            m.Status,
		PaymentDetails:    m.PaymentDetails,
		RefundedAt:        m.RefundedAt,
		RefundReason:      m.RefundReason,
		RefundAmount:      m.RefundAmount,
	}
}

// FromDomain populates the persistence model from a domain Payment.
func (m *PaymentModel) FromDomain(p *finance.Payment) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.OrderID = p.OrderID
	m.UserID = p.UserID
	m.PaymentMethod = p.PaymentMethod
	m.Provider = p.Provider
	m.Phone = p.Phone
	m.Amount = p.Amount
	m.Currency = p.Currency
	m.TransactionID = p.TransactionID
	m.ProviderReference = p.ProviderReference
	m.Status = p.Status
	m.PaymentDetails = p.PaymentDetails
	m.RefundedAt = p.RefundedAt
	m.RefundReason = p.RefundReason
	m.RefundAmount = p.RefundAmount
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *finance.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}
