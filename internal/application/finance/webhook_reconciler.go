package finance

import (
	"context"
	"errors"
	"fmt"

	appshared "github.com/gaug1c/ecommerce-backend/internal/application/shared"
	"github.com/gaug1c/ecommerce-backend/internal/domain/finance"
	"github.com/gaug1c/ecommerce-backend/internal/domain/shared"
	"github.com/gaug1c/ecommerce-backend/internal/domain/trade"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Webhook errors. The HTTP layer maps them to 400, 404 and 500.
var (
	ErrInvalidWebhookPayload = shared.NewDomainError("INVALID_PAYLOAD", "Invalid callback payload")
	ErrUnknownGateway        = shared.NewDomainError("NOT_FOUND", "Unknown payment gateway")
	ErrReconciliationFailed  = shared.NewDomainError("RECONCILIATION_FAILED", "Unable to reconcile payment")
)

// Webhook outcome labels
const (
	OutcomeCompleted        = "completed"
	OutcomeFailed           = "failed"
	OutcomePending          = "pending"
	OutcomeUnknown          = "unknown"
	OutcomeAlreadyProcessed = "already_processed"
	OutcomeIgnored          = "ignored"
	OutcomeNotFound         = "not_found"
	OutcomeInvalid          = "invalid"
	OutcomeError            = "error"
)

// WebhookPayload is the gateway notification. Its Status is informational
// only; the authoritative status is always fetched from the gateway.
type WebhookPayload struct {
	Gateway       string
	Reference     string
	TransactionID string
	Status        string
}

// ReconcileResult describes what a delivery changed
type ReconcileResult struct {
	Success          bool
	AlreadyProcessed bool
	PaymentID        uuid.UUID
	Outcome          string
	PaymentStatus    finance.PaymentStatus
}

// WebhookReconcilerConfig holds the dependencies of WebhookReconciler
type WebhookReconcilerConfig struct {
	TxScope        appshared.TransactionScope
	PaymentRepo    finance.PaymentRepository
	Gateways       []finance.MobileMoneyGateway
	EventPublisher shared.EventPublisher
	Metrics        *telemetry.BusinessMetrics
	Logger         *zap.Logger
}

// WebhookReconciler applies gateway notifications to payments and orders.
// Deliveries may repeat or arrive out of order; applying one twice changes
// nothing the second time.
type WebhookReconciler struct {
	txScope        appshared.TransactionScope
	paymentRepo    finance.PaymentRepository
	gateways       map[string]finance.MobileMoneyGateway
	eventPublisher shared.EventPublisher
	metrics        *telemetry.BusinessMetrics
	logger         *zap.Logger
}

// NewWebhookReconciler creates a new WebhookReconciler
func NewWebhookReconciler(cfg WebhookReconcilerConfig) *WebhookReconciler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gateways := make(map[string]finance.MobileMoneyGateway, len(cfg.Gateways))
	for _, gw := range cfg.Gateways {
		gateways[gw.Name()] = gw
	}
	return &WebhookReconciler{
		txScope:        cfg.TxScope,
		paymentRepo:    cfg.PaymentRepo,
		gateways:       gateways,
		eventPublisher: cfg.EventPublisher,
		metrics:        cfg.Metrics,
		logger:         logger,
	}
}

// Reconcile processes one webhook delivery
func (r *WebhookReconciler) Reconcile(ctx context.Context, payload WebhookPayload) (*ReconcileResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "webhook", "reconcile",
		telemetry.WithAttribute(telemetry.SpanAttrGateway, payload.Gateway))
	defer span.End()

	result, err := r.reconcile(ctx, payload)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentID, result.PaymentID,
		telemetry.SpanAttrOutcome, result.Outcome)
	telemetry.SetOK(span)
	return result, nil
}

func (r *WebhookReconciler) reconcile(ctx context.Context, payload WebhookPayload) (*ReconcileResult, error) {
	gateway, ok := r.gateways[payload.Gateway]
	if !ok {
		r.metrics.RecordWebhook(OutcomeInvalid)
		return nil, ErrUnknownGateway
	}
	if payload.Reference == "" && payload.TransactionID == "" {
		r.metrics.RecordWebhook(OutcomeInvalid)
		return nil, ErrInvalidWebhookPayload
	}

	r.logger.Info("Payment webhook received",
		zap.String("gateway", payload.Gateway),
		zap.String("reference", payload.Reference),
		zap.String("transaction_id", payload.TransactionID),
		zap.String("reported_status", payload.Status))

	payment, err := r.paymentRepo.FindByReference(ctx, payload.Reference, payload.TransactionID)
	if err != nil {
		if errors.Is(err, finance.ErrPaymentReferenceMismatch) {
			r.logger.Warn("Payment webhook identifiers name different payments",
				zap.String("reference", payload.Reference),
				zap.String("transaction_id", payload.TransactionID))
			r.metrics.RecordWebhook(OutcomeInvalid)
			return nil, finance.ErrPaymentReferenceMismatch
		}
		if errors.Is(err, shared.ErrNotFound) {
			r.logger.Warn("Payment webhook for unknown payment",
				zap.String("reference", payload.Reference),
				zap.String("transaction_id", payload.TransactionID))
			r.metrics.RecordWebhook(OutcomeNotFound)
			return nil, finance.ErrPaymentNotFound
		}
		r.metrics.RecordWebhook(OutcomeError)
		return nil, fmt.Errorf("%w: %v", ErrReconciliationFailed, err)
	}

	if !payloadIdentifies(payment, payload) {
		r.logger.Warn("Payment webhook identifiers do not belong to the payment",
			zap.String("payment_id", payment.ID.String()),
			zap.String("reference", payload.Reference),
			zap.String("transaction_id", payload.TransactionID))
		r.metrics.RecordWebhook(OutcomeInvalid)
		return nil, finance.ErrPaymentReferenceMismatch
	}

	// Authoritative status of the payment's own transaction, fetched outside
	// any transaction
	status, err := gateway.GetStatus(ctx, payment.StatusQuery())
	if err != nil {
		r.logger.Error("Failed to query authoritative payment status",
			zap.String("payment_id", payment.ID.String()),
			zap.Error(err))
		r.metrics.RecordWebhook(OutcomeError)
		return nil, fmt.Errorf("%w: %v", ErrReconciliationFailed, err)
	}
	if !payment.MatchesTransaction(status) {
		r.logger.Error("Gateway returned a transaction of another payment",
			zap.String("payment_id", payment.ID.String()),
			zap.String("gateway_transaction_id", status.TransactionID),
			zap.String("gateway_reference", status.Reference))
		r.metrics.RecordWebhook(OutcomeInvalid)
		return nil, finance.ErrPaymentReferenceMismatch
	}

	if payment.IsCompleted() {
		r.logger.Info("Payment already completed",
			zap.String("payment_id", payment.ID.String()))
		r.metrics.RecordWebhook(OutcomeAlreadyProcessed)
		return alreadyProcessed(payment), nil
	}

	outcome := status.Outcome()
	var target finance.PaymentStatus
	switch outcome {
	case finance.GatewayOutcomeSuccess:
		target = finance.PaymentStatusCompleted
	case finance.GatewayOutcomeFailed:
		target = finance.PaymentStatusFailed
	case finance.GatewayOutcomePending:
		r.metrics.RecordWebhook(OutcomePending)
		return &ReconcileResult{Success: true, PaymentID: payment.ID, Outcome: OutcomePending, PaymentStatus: payment.Status}, nil
	default:
		r.logger.Warn("Unknown gateway payment status",
			zap.String("payment_id", payment.ID.String()),
			zap.String("status", status.Status),
			zap.String("transaction", status.RawResponse))
		r.metrics.RecordWebhook(OutcomeUnknown)
		return &ReconcileResult{Success: true, PaymentID: payment.ID, Outcome: OutcomeUnknown, PaymentStatus: payment.Status}, nil
	}

	if payment.Status == target {
		r.metrics.RecordWebhook(OutcomeAlreadyProcessed)
		return alreadyProcessed(payment), nil
	}
	if !payment.Status.CanTransitionTo(target) {
		r.logger.Warn("Ignoring gateway status for settled payment",
			zap.String("payment_id", payment.ID.String()),
			zap.String("payment_status", payment.Status.String()),
			zap.String("gateway_status", status.Status))
		r.metrics.RecordWebhook(OutcomeIgnored)
		return &ReconcileResult{Success: true, PaymentID: payment.ID, Outcome: OutcomeIgnored, PaymentStatus: payment.Status}, nil
	}

	var events []shared.DomainEvent
	err = r.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		order, err := repos.OrderRepo().FindByID(ctx, payment.OrderID)
		if err != nil {
			return err
		}
		if target == finance.PaymentStatusCompleted {
			if err := payment.Complete(status.RawResponse); err != nil {
				return err
			}
			if err := order.MarkPaid(); err != nil {
				return err
			}
			if order.Status == trade.OrderStatusCancelled {
				r.logger.Warn("Payment collected for a cancelled order, refund required",
					zap.String("payment_id", payment.ID.String()),
					zap.String("order_id", order.ID.String()))
			}
		} else {
			if err := payment.Fail(status.RawResponse); err != nil {
				return err
			}
			if err := order.MarkPaymentFailed(); err != nil {
				return err
			}
		}
		if err := repos.PaymentRepo().SaveWithLock(ctx, payment); err != nil {
			return err
		}
		if err := repos.OrderRepo().SaveWithLock(ctx, order); err != nil {
			return err
		}
		events = append(events, payment.GetDomainEvents()...)
		return nil
	})
	payment.ClearDomainEvents()
	if err != nil {
		return r.afterFailedWrite(ctx, payment.ID, err)
	}

	label := OutcomeCompleted
	if target == finance.PaymentStatusFailed {
		label = OutcomeFailed
	}
	r.metrics.RecordWebhook(label)
	r.logger.Info("Payment reconciled",
		zap.String("payment_id", payment.ID.String()),
		zap.String("order_id", payment.OrderID.String()),
		zap.String("status", payment.Status.String()))

	publishEvents(ctx, r.eventPublisher, r.logger, events)

	return &ReconcileResult{Success: true, PaymentID: payment.ID, Outcome: label, PaymentStatus: payment.Status}, nil
}

// afterFailedWrite handles a rolled-back update. Losing the version race to a
// concurrent delivery that completed the payment counts as processed;
// anything else is reported so the gateway redelivers.
func (r *WebhookReconciler) afterFailedWrite(ctx context.Context, paymentID uuid.UUID, cause error) (*ReconcileResult, error) {
	if errors.Is(cause, shared.ErrConcurrencyConflict) {
		current, err := r.paymentRepo.FindByID(ctx, paymentID)
		if err == nil && current.IsCompleted() {
			r.metrics.RecordWebhook(OutcomeAlreadyProcessed)
			return alreadyProcessed(current), nil
		}
	}
	r.logger.Error("Failed to apply payment webhook",
		zap.String("payment_id", paymentID.String()),
		zap.Error(cause))
	r.metrics.RecordWebhook(OutcomeError)
	return nil, fmt.Errorf("%w: %v", ErrReconciliationFailed, cause)
}

// payloadIdentifies reports whether every identifier of the delivery names
// the payment. A gateway id is accepted unchecked only while the payment has
// not learned its own; the gateway is then queried by our reference.
func payloadIdentifies(p *finance.Payment, payload WebhookPayload) bool {
	if payload.Reference != "" && !p.Identifies(payload.Reference) {
		return false
	}
	if payload.TransactionID != "" && !p.Identifies(payload.TransactionID) {
		return p.ProviderReference == nil
	}
	return true
}

func alreadyProcessed(p *finance.Payment) *ReconcileResult {
	return &ReconcileResult{
		Success:          true,
		AlreadyProcessed: true,
		PaymentID:        p.ID,
		Outcome:          OutcomeAlreadyProcessed,
		PaymentStatus:    p.Status,
	}
}
