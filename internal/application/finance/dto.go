package finance

import (
	"encoding/json"
	"time"

	"github.com/gaug1c/ecommerce-backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InitiatePaymentRequest represents a request to collect an order through mobile money
type InitiatePaymentRequest struct {
	Provider string `json:"provider" binding:"required,oneof=AIRTEL MOOV"`
	Phone    string `json:"phone" binding:"required,min=8,max=15"`
}

// RefundPaymentRequest represents a refund request
type RefundPaymentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID                uuid.UUID        `json:"id"`
	OrderID           uuid.UUID        `json:"order_id"`
	UserID            uuid.UUID        `json:"user_id"`
	PaymentMethod     string           `json:"payment_method"`
	Provider          string           `json:"provider"`
	Phone             string           `json:"phone"`
	Amount            decimal.Decimal  `json:"amount"`
	Currency          string           `json:"currency"`
	TransactionID     string           `json:"transaction_id"`
	ProviderReference *string          `json:"provider_reference,omitempty"`
	Status            string           `json:"status"`
	RefundedAt        *time.Time       `json:"refunded_at,omitempty"`
	RefundReason      string           `json:"refund_reason,omitempty"`
	RefundAmount      *decimal.Decimal `json:"refund_amount,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// InitiatePaymentResponse carries the stored payment and the gateway acknowledgement
type InitiatePaymentResponse struct {
	Payment         PaymentResponse `json:"payment"`
	GatewayResponse json.RawMessage `json:"singpay,omitempty"`
}

// PaymentStatusResponse is the payment of an order together with the order's payment status
type PaymentStatusResponse struct {
	Payment            PaymentResponse `json:"payment"`
	OrderPaymentStatus string          `json:"order_payment_status"`
}

// ToPaymentResponse converts a domain payment to its response form
func ToPaymentResponse(p *finance.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID,
		OrderID:           p.OrderID,
		UserID:            p.UserID,
		PaymentMethod:     p.PaymentMethod,
		Provider:          p.Provider.String(),
		Phone:             p.Phone,
		Amount:            p.Amount,
		Currency:          p.Currency,
		TransactionID:     p.TransactionID,
		ProviderReference: p.ProviderReference,
		Status:            p.Status.String(),
		RefundedAt:        p.RefundedAt,
		RefundReason:      p.RefundReason,
		RefundAmount:      p.RefundAmount,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// rawJSON returns body as a JSON value, quoting it when the gateway did not send JSON
func rawJSON(body string) json.RawMessage {
	if body == "" {
		return nil
	}
	if json.Valid([]byte(body)) {
		return json.RawMessage(body)
	}
	quoted, _ := json.Marshal(body)
	return quoted
}
