package finance

import (
	"context"
	"errors"
	"strings"

	appshared "github.com/gaug1c/ecommerce-backend/internal/application/shared"
	"github.com/gaug1c/ecommerce-backend/internal/domain/finance"
	"github.com/gaug1c/ecommerce-backend/internal/domain/shared"
	"github.com/gaug1c/ecommerce-backend/internal/domain/trade"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultCurrency is used when none is configured
const DefaultCurrency = "FCFA"

// PaymentServiceConfig holds the dependencies of PaymentService
type PaymentServiceConfig struct {
	TxScope        appshared.TransactionScope
	OrderRepo      trade.OrderRepository
	PaymentRepo    finance.PaymentRepository
	Gateway        finance.MobileMoneyGateway
	EventPublisher shared.EventPublisher
	Metrics        *telemetry.BusinessMetrics
	Logger         *zap.Logger
	// CallbackURL is where the gateway posts status notifications
	CallbackURL string
	Currency    string
}

// PaymentService starts mobile-money collections and reports their status
type PaymentService struct {
	txScope        appshared.TransactionScope
	orderRepo      trade.OrderRepository
	paymentRepo    finance.PaymentRepository
	gateway        finance.MobileMoneyGateway
	eventPublisher shared.EventPublisher
	metrics        *telemetry.BusinessMetrics
	logger         *zap.Logger
	callbackURL    string
	currency       string
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(cfg PaymentServiceConfig) *PaymentService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	currency := cfg.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	return &PaymentService{
		txScope:        cfg.TxScope,
		orderRepo:      cfg.OrderRepo,
		paymentRepo:    cfg.PaymentRepo,
		gateway:        cfg.Gateway,
		eventPublisher: cfg.EventPublisher,
		metrics:        cfg.Metrics,
		logger:         logger,
		callbackURL:    cfg.CallbackURL,
		currency:       currency,
	}
}

// InitiatePayment creates the order's payment and asks the gateway to push a
// USSD prompt to the payer. The payment row, the order's pending payment
// status and the gateway acknowledgement are committed together; when the
// gateway call fails nothing is kept.
func (s *PaymentService) InitiatePayment(ctx context.Context, userID, orderID uuid.UUID, req InitiatePaymentRequest) (*InitiatePaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "initiate",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID),
		telemetry.WithAttribute(telemetry.SpanAttrProvider, strings.ToUpper(req.Provider)))
	defer span.End()

	resp, err := s.initiatePayment(ctx, userID, orderID, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrPaymentID, resp.Payment.ID)
	telemetry.SetOK(span)
	return resp, nil
}

func (s *PaymentService) initiatePayment(ctx context.Context, userID, orderID uuid.UUID, req InitiatePaymentRequest) (*InitiatePaymentResponse, error) {
	provider := finance.Provider(strings.ToUpper(strings.TrimSpace(req.Provider)))
	if err := validateInitiation(provider, req.Phone); err != nil {
		s.metrics.RecordPaymentInitiation(provider.String(), telemetry.ResultInvalid)
		return nil, err
	}

	order, err := s.orderRepo.FindByIDForUser(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.metrics.RecordPaymentInitiation(provider.String(), telemetry.ResultNotPayable)
			return nil, finance.ErrOrderNotPayable
		}
		return nil, err
	}
	if !order.IsPayable() {
		s.metrics.RecordPaymentInitiation(provider.String(), telemetry.ResultNotPayable)
		return nil, finance.ErrOrderNotPayable
	}

	exists, err := s.paymentRepo.ExistsForOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		s.metrics.RecordPaymentInitiation(provider.String(), telemetry.ResultDuplicate)
		return nil, finance.ErrDuplicatePayment
	}

	// Fetch the access token before opening the transaction so the only
	// network call made while it is open is the initiation itself.
	if err := s.gateway.Warmup(ctx); err != nil {
		s.logger.Error("Payment gateway authentication failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
		s.metrics.RecordPaymentInitiation(provider.String(), telemetry.ResultGatewayError)
		return nil, &finance.PaymentInitiationError{Err: err}
	}

	var (
		payment *finance.Payment
		gwResp  *finance.InitiatePaymentResponse
	)
	err = s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		payment, err = finance.NewPayment(order.ID, userID, provider, req.Phone, order.TotalAmount, s.currency)
		if err != nil {
			return err
		}
		if err := repos.PaymentRepo().Create(ctx, payment); err != nil {
			return err
		}

		if err := order.MarkPaymentPending(); err != nil {
			return err
		}
		if err := repos.OrderRepo().SaveWithLock(ctx, order); err != nil {
			return err
		}

		gwResp, err = s.gateway.InitiatePayment(ctx, &finance.InitiatePaymentRequest{
			Provider:    provider,
			Amount:      payment.Amount,
			Reference:   payment.TransactionID,
			Phone:       payment.Phone,
			CallbackURL: s.callbackURL,
		})
		if err != nil {
			return &finance.PaymentInitiationError{Err: err}
		}

		payment.AttachGatewayResponse(gwResp.TransactionID, gwResp.RawResponse)
		return repos.PaymentRepo().SaveWithLock(ctx, payment)
	})
	if err != nil {
		var initErr *finance.PaymentInitiationError
		switch {
		case errors.As(err, &initErr):
			s.logger.Error("Payment initiation failed at gateway",
				zap.String("order_id", order.ID.String()),
				zap.String("provider", provider.String()),
				zap.Error(initErr.Err))
			s.metrics.RecordPaymentInitiation(provider.String(), telemetry.ResultGatewayError)
		case errors.Is(err, finance.ErrDuplicatePayment):
			s.metrics.RecordPaymentInitiation(provider.String(), telemetry.ResultDuplicate)
		default:
			s.metrics.RecordPaymentInitiation(provider.String(), telemetry.ResultError)
		}
		return nil, err
	}

	s.metrics.RecordPaymentInitiation(provider.String(), telemetry.ResultSuccess)
	s.logger.Info("Payment initiated",
		zap.String("payment_id", payment.ID.String()),
		zap.String("order_id", order.ID.String()),
		zap.String("reference", payment.TransactionID),
		zap.String("provider", provider.String()),
		zap.String("amount", payment.Amount.String()))

	publishEvents(ctx, s.eventPublisher, s.logger, []shared.DomainEvent{finance.NewPaymentInitiatedEvent(payment)})

	return &InitiatePaymentResponse{
		Payment:         ToPaymentResponse(payment),
		GatewayResponse: rawJSON(gwResp.RawResponse),
	}, nil
}

// GetPaymentStatus returns the payment of an order owned by userID
func (s *PaymentService) GetPaymentStatus(ctx context.Context, userID, orderID uuid.UUID) (*PaymentStatusResponse, error) {
	order, err := s.orderRepo.FindByIDForUser(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, finance.ErrPaymentNotFound
		}
		return nil, err
	}
	payment, err := s.paymentRepo.FindByOrderID(ctx, order.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, finance.ErrPaymentNotFound
		}
		return nil, err
	}
	return &PaymentStatusResponse{
		Payment:            ToPaymentResponse(payment),
		OrderPaymentStatus: order.PaymentStatus.String(),
	}, nil
}

func validateInitiation(provider finance.Provider, phone string) error {
	verr := shared.NewValidationError()
	if !provider.IsValid() {
		verr.Add("provider", "Provider must be AIRTEL or MOOV")
	}
	if l := len(strings.TrimSpace(phone)); l < 8 || l > 15 {
		verr.Add("phone", "Phone must be between 8 and 15 characters")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// publishEvents hands committed events to the bus; failures are logged only
func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, events []shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Warn("Failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err))
	}
}
