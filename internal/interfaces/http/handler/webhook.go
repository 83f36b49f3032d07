package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	financeapp "github.com/gaug1c/ecommerce-backend/internal/application/finance"
	"github.com/gaug1c/ecommerce-backend/internal/domain/finance"
	"github.com/gaug1c/ecommerce-backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// WebhookReconciler applies gateway notifications
type WebhookReconciler interface {
	Reconcile(ctx context.Context, payload financeapp.WebhookPayload) (*financeapp.ReconcileResult, error)
}

var gatewayLabels = map[string]string{
	finance.GatewaySingPay: "SingPay",
}

// WebhookHandler receives unauthenticated gateway callbacks
type WebhookHandler struct {
	BaseHandler
	reconciler WebhookReconciler
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(reconciler WebhookReconciler) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler}
}

// WebhookAck is the data returned to the gateway
type WebhookAck struct {
	PaymentID        string `json:"payment_id"`
	Status           string `json:"status"`
	AlreadyProcessed bool   `json:"already_processed"`
}

// Handle handles POST /webhooks/:gateway. An unreadable body is treated as an
// empty notification so the caller gets the same 400 as a payload without ids.
func (h *WebhookHandler) Handle(c *gin.Context) {
	gateway := strings.ToLower(c.Param("gateway"))
	payload := parseWebhookBody(c.Request.Body)
	payload.Gateway = gateway

	result, err := h.reconciler.Reconcile(c.Request.Context(), payload)
	if err != nil {
		if errors.Is(err, financeapp.ErrReconciliationFailed) {
			h.Error(c, http.StatusInternalServerError, dto.ErrCodeReconciliation, "Webhook processing failed")
			return
		}
		h.HandleError(c, err)
		return
	}

	label, ok := gatewayLabels[gateway]
	if !ok {
		label = gateway
	}
	h.Success(c, label+" webhook processed successfully", WebhookAck{
		PaymentID:        result.PaymentID.String(),
		Status:           result.PaymentStatus.String(),
		AlreadyProcessed: result.AlreadyProcessed,
	})
}

func parseWebhookBody(body io.Reader) financeapp.WebhookPayload {
	var payload financeapp.WebhookPayload
	if body == nil {
		return payload
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return payload
	}
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return payload
	}
	payload.Reference = scalarString(fields["reference"])
	payload.TransactionID = scalarString(fields["transaction_id"])
	payload.Status = scalarString(fields["status"])
	return payload
}

// scalarString renders a JSON string or number, gateways send ids as either
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool, float64:
		return fmt.Sprint(t)
	default:
		return ""
	}
}
