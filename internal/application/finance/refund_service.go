package finance

import (
	"context"
	"errors"
	"strings"

	appshared "github.com/gaug1c/ecommerce-backend/internal/application/shared"
	"github.com/gaug1c/ecommerce-backend/internal/domain/finance"
	"github.com/gaug1c/ecommerce-backend/internal/domain/shared"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultRefundReason is recorded when the caller gives none
const DefaultRefundReason = "Refund requested"

// RefundServiceConfig holds the dependencies of RefundService
type RefundServiceConfig struct {
	TxScope        appshared.TransactionScope
	EventPublisher shared.EventPublisher
	Metrics        *telemetry.BusinessMetrics
	Logger         *zap.Logger
}

// RefundService reverses completed payments
type RefundService struct {
	txScope        appshared.TransactionScope
	eventPublisher shared.EventPublisher
	metrics        *telemetry.BusinessMetrics
	logger         *zap.Logger
}

// NewRefundService creates a new RefundService
func NewRefundService(cfg RefundServiceConfig) *RefundService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefundService{
		txScope:        cfg.TxScope,
		eventPublisher: cfg.EventPublisher,
		metrics:        cfg.Metrics,
		logger:         logger,
	}
}

// Refund refunds a completed payment in full. The payment, the order and
// the stock of every ordered product change together or not at all.
// Only the order's owner or an admin may refund.
func (s *RefundService) Refund(ctx context.Context, userID uuid.UUID, isAdmin bool, paymentID uuid.UUID, req RefundPaymentRequest) (*PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "refund",
		telemetry.WithAttribute(telemetry.SpanAttrPaymentID, paymentID))
	defer span.End()

	resp, err := s.refund(ctx, userID, isAdmin, paymentID, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, resp.OrderID)
	telemetry.SetOK(span)
	return resp, nil
}

func (s *RefundService) refund(ctx context.Context, userID uuid.UUID, isAdmin bool, paymentID uuid.UUID, req RefundPaymentRequest) (*PaymentResponse, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = DefaultRefundReason
	}

	var payment *finance.Payment
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		payment, err = repos.PaymentRepo().FindByID(ctx, paymentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return finance.ErrPaymentNotFound
			}
			return err
		}
		order, err := repos.OrderRepo().FindByID(ctx, payment.OrderID)
		if err != nil {
			return err
		}
		if !isAdmin && !order.IsOwnedBy(userID) {
			return finance.ErrPaymentNotFound
		}

		if err := payment.Refund(reason); err != nil {
			return err
		}
		restock := order.HoldsStock()
		if err := order.Refund(); err != nil {
			return err
		}
		if err := repos.PaymentRepo().SaveWithLock(ctx, payment); err != nil {
			return err
		}
		if err := repos.OrderRepo().SaveWithLock(ctx, order); err != nil {
			return err
		}
		if !restock {
			return nil
		}
		for _, item := range order.Items {
			if err := repos.ProductRepo().IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, finance.ErrPaymentNotRefundable) {
			s.metrics.RecordRefund(telemetry.ResultInvalid)
		} else {
			s.metrics.RecordRefund(telemetry.ResultError)
		}
		return nil, err
	}

	s.metrics.RecordRefund(telemetry.ResultSuccess)
	s.logger.Info("Payment refunded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("order_id", payment.OrderID.String()),
		zap.String("amount", payment.Amount.String()),
		zap.Bool("by_admin", isAdmin))

	publishEvents(ctx, s.eventPublisher, s.logger, payment.GetDomainEvents())
	payment.ClearDomainEvents()

	resp := ToPaymentResponse(payment)
	return &resp, nil
}
