package event

import (
	"context"

	"github.com/gaug1c/ecommerce-backend/internal/domain/finance"
	"github.com/gaug1c/ecommerce-backend/internal/domain/shared"
	"github.com/gaug1c/ecommerce-backend/internal/domain/trade"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// notificationTemplates names the customer message sent for each event
var notificationTemplates = map[string]string{
	trade.EventTypeOrderPlaced:        "order_placed",
	trade.EventTypeOrderCancelled:     "order_cancelled",
	finance.EventTypePaymentCompleted: "payment_received",
	finance.EventTypePaymentFailed:    "payment_failed",
	finance.EventTypePaymentRefunded:  "payment_refunded",
}

// NotificationHandler records the customer notification for order and
// payment events. Delivery channels (SMS, mail) are outside this service;
// the structured log line is what downstream senders consume.
type NotificationHandler struct {
	logger *zap.Logger
}

// NewNotificationHandler creates a notification handler
func NewNotificationHandler(l *zap.Logger) *NotificationHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &NotificationHandler{logger: l.Named("notification")}
}

// EventTypes implements shared.EventHandler
func (h *NotificationHandler) EventTypes() []string {
	return []string{
		trade.EventTypeOrderPlaced,
		trade.EventTypeOrderCancelled,
		finance.EventTypePaymentCompleted,
		finance.EventTypePaymentFailed,
		finance.EventTypePaymentRefunded,
	}
}

// Handle implements shared.EventHandler
func (h *NotificationHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	template, ok := notificationTemplates[evt.EventType()]
	if !ok {
		return nil
	}
	recipient, ok := evt.(shared.RecipientEvent)
	if !ok {
		return nil
	}

	fields := []zap.Field{
		zap.String("template", template),
		zap.String("recipient_id", recipient.RecipientID().String()),
		zap.String("event_id", evt.EventID().String()),
	}
	switch e := evt.(type) {
	case *trade.OrderPlacedEvent:
		fields = append(fields,
			zap.String("order_number", e.OrderNumber),
			zap.String("total_amount", e.TotalAmount.String()))
	case *trade.OrderCancelledEvent:
		fields = append(fields,
			zap.String("order_number", e.OrderNumber),
			zap.String("reason", e.Reason))
	case *finance.PaymentEvent:
		fields = append(fields,
			zap.String("order_id", e.OrderID.String()),
			zap.String("provider", e.Provider.String()),
			zap.String("amount", e.Amount.String()),
			zap.String("reference", e.TransactionID))
	}

	logger.Enrich(ctx, h.logger).Info("Customer notification queued", fields...)
	return nil
}

var _ shared.EventHandler = (*NotificationHandler)(nil)
