package handler

import (
	"context"
	"net/http"

	financeapp "github.com/gaug1c/ecommerce-backend/internal/application/finance"
	"github.com/gaug1c/ecommerce-backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentUseCase starts and reports mobile money collections
type PaymentUseCase interface {
	InitiatePayment(ctx context.Context, userID, orderID uuid.UUID, req financeapp.InitiatePaymentRequest) (*financeapp.InitiatePaymentResponse, error)
	GetPaymentStatus(ctx context.Context, userID, orderID uuid.UUID) (*financeapp.PaymentStatusResponse, error)
}

// RefundUseCase refunds completed payments
type RefundUseCase interface {
	Refund(ctx context.Context, userID uuid.UUID, isAdmin bool, paymentID uuid.UUID, req financeapp.RefundPaymentRequest) (*financeapp.PaymentResponse, error)
}

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	BaseHandler
	payments PaymentUseCase
	refunds  RefundUseCase
	currency string
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments PaymentUseCase, refunds RefundUseCase, currency string) *PaymentHandler {
	return &PaymentHandler{payments: payments, refunds: refunds, currency: currency}
}

// Initiate handles POST /v1/payments/orders/:orderId.
// The customer receives a USSD push on the given phone.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	userID, ok := h.CallerID(c)
	if !ok {
		return
	}
	orderID, ok := h.UUIDParam(c, "orderId", "Order not found or already paid")
	if !ok {
		return
	}
	var req financeapp.InitiatePaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.payments.InitiatePayment(c.Request.Context(), userID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Money(c, http.StatusOK, "USSD push envoyé au client", resp, h.currency)
}

// Status handles GET /v1/payments/orders/:orderId/status
func (h *PaymentHandler) Status(c *gin.Context) {
	userID, ok := h.CallerID(c)
	if !ok {
		return
	}
	orderID, ok := h.UUIDParam(c, "orderId", "Payment not found")
	if !ok {
		return
	}
	resp, err := h.payments.GetPaymentStatus(c.Request.Context(), userID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Money(c, http.StatusOK, "Payment status retrieved", resp, h.currency)
}

// Refund handles POST /v1/payments/:paymentId/refund
func (h *PaymentHandler) Refund(c *gin.Context) {
	userID, ok := h.CallerID(c)
	if !ok {
		return
	}
	paymentID, ok := h.UUIDParam(c, "paymentId", "Payment not found")
	if !ok {
		return
	}
	var req financeapp.RefundPaymentRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	resp, err := h.refunds.Refund(c.Request.Context(), userID, middleware.IsAdmin(c), paymentID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Money(c, http.StatusOK, "Payment refunded", resp, h.currency)
}
