package trade

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	appshared "github.com/gaug1c/ecommerce-backend/internal/application/shared"
	"github.com/gaug1c/ecommerce-backend/internal/domain/catalog"
	"github.com/gaug1c/ecommerce-backend/internal/domain/shared"
	"github.com/gaug1c/ecommerce-backend/internal/domain/trade"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutServiceConfig holds the dependencies of CheckoutService
type CheckoutServiceConfig struct {
	TxScope        appshared.TransactionScope
	EventPublisher shared.EventPublisher
	Metrics        *telemetry.BusinessMetrics
	Logger         *zap.Logger
	// Now is overridable in tests
	Now func() time.Time
}

// CheckoutService turns a cart into an order, reserving stock atomically
type CheckoutService struct {
	txScope        appshared.TransactionScope
	eventPublisher shared.EventPublisher
	metrics        *telemetry.BusinessMetrics
	logger         *zap.Logger
	now            func() time.Time
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(cfg CheckoutServiceConfig) *CheckoutService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &CheckoutService{
		txScope:        cfg.TxScope,
		eventPublisher: cfg.EventPublisher,
		metrics:        cfg.Metrics,
		logger:         logger,
		now:            now,
	}
}

// ValidatePlaceOrder checks the checkout form before anything is read.
// Field order: city, phone, payment method, then address and country.
func ValidatePlaceOrder(req PlaceOrderRequest) error {
	verr := shared.NewValidationError()
	if !trade.IsServiceableCity(req.ShippingCity) {
		verr.Add("shipping_city", "We do not deliver to this city. Serviceable cities: "+strings.Join(trade.ServiceableCities(), ", "))
	}
	if !trade.IsValidPhone(req.Phone) {
		verr.Add("phone", "Invalid phone number format for Gabon")
	}
	if !trade.PaymentMethod(req.PaymentMethod).IsValid() {
		verr.Add("payment_method", "Payment method must be one of: card, mobile_money, bank_transfer, cash_on_delivery")
	}
	if strings.TrimSpace(req.ShippingAddress) == "" {
		verr.Add("shipping_address", "Shipping address is required")
	}
	if strings.TrimSpace(req.ShippingCountry) == "" {
		verr.Add("shipping_country", "Shipping country is required")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// PlaceOrder creates an order from the user's cart. Loading the cart,
// pricing, creating the order, decrementing stock and clearing the cart all
// happen in one transaction; any failure leaves no trace.
func (s *CheckoutService) PlaceOrder(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "place_order",
		telemetry.WithAttribute(telemetry.SpanAttrUserID, userID))
	defer span.End()

	resp, err := s.placeOrder(ctx, userID, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, resp.ID,
		telemetry.SpanAttrOrderNumber, resp.OrderNumber,
		telemetry.SpanAttrItemsCount, resp.ItemCount)
	telemetry.SetOK(span)
	return resp, nil
}

func (s *CheckoutService) placeOrder(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (*OrderResponse, error) {
	if err := ValidatePlaceOrder(req); err != nil {
		s.metrics.RecordCheckout(telemetry.ResultInvalid)
		return nil, err
	}

	shipping := trade.ShippingInfo{
		Address:              strings.TrimSpace(req.ShippingAddress),
		City:                 req.ShippingCity,
		PostalCode:           req.ShippingPostalCode,
		Country:              strings.TrimSpace(req.ShippingCountry),
		Phone:                req.Phone,
		DeliveryInstructions: req.DeliveryInstructions,
	}
	method := trade.PaymentMethod(req.PaymentMethod)

	var order *trade.Order
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		cart, err := repos.CartRepo().FindByUserID(ctx, userID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if cart.IsEmpty() {
			return trade.ErrEmptyCart
		}

		list, err := repos.ProductRepo().FindByIDs(ctx, cart.ProductIDs())
		if err != nil {
			return err
		}
		products := catalog.IndexByID(list)

		if err := trade.CheckStock(cart.Items, products); err != nil {
			return err
		}

		quote, err := trade.PriceCart(cart.Items, products)
		if err != nil {
			return err
		}
		quote.ShipTo(shipping.City)

		order, err = trade.NewOrder(userID, trade.NewOrderNumber(s.now()), method, shipping, quote)
		if err != nil {
			return err
		}
		if err := order.CheckTotals(); err != nil {
			return err
		}
		if err := repos.OrderRepo().Create(ctx, order); err != nil {
			return err
		}

		if err := reserveStock(ctx, repos.ProductRepo(), order.Items); err != nil {
			return err
		}

		return repos.CartRepo().Clear(ctx, cart.ID)
	})
	if err != nil {
		s.metrics.RecordCheckout(checkoutResult(err))
		var stockErr *trade.InsufficientStockError
		if errors.As(err, &stockErr) {
			s.logger.Info("Checkout rejected for insufficient stock",
				zap.String("user_id", userID.String()),
				zap.String("product_id", stockErr.ProductID.String()),
				zap.Int("requested", stockErr.Requested),
				zap.Int("available", stockErr.Available))
		}
		return nil, err
	}

	s.metrics.RecordCheckout(telemetry.ResultSuccess)
	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.String("total_amount", order.TotalAmount.String()))

	publishEvents(ctx, s.eventPublisher, s.logger, order.GetDomainEvents())
	order.ClearDomainEvents()

	resp := ToOrderResponse(order)
	return &resp, nil
}

// reserveStock runs the guarded decrement for every line. Rows are touched in
// product id order so concurrent checkouts lock them in the same sequence.
// When a decrement matches nothing the product is re-read to report the
// quantity that is actually left.
func reserveStock(ctx context.Context, products catalog.ProductRepository, items []trade.OrderItem) error {
	lines := make([]trade.OrderItem, len(items))
	copy(lines, items)
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].ProductID.String() < lines[j].ProductID.String()
	})

	for _, line := range lines {
		err := products.DecrementStock(ctx, line.ProductID, line.Quantity)
		if err == nil {
			continue
		}
		if !errors.Is(err, shared.ErrInsufficientStock) {
			return err
		}
		available := 0
		if fresh, ferr := products.FindByID(ctx, line.ProductID); ferr == nil {
			available = fresh.Stock
		}
		return trade.NewInsufficientStockError(line.ProductID, line.ProductName, line.Quantity, available)
	}
	return nil
}

// restoreStock returns every line's quantity to the ledger
func restoreStock(ctx context.Context, products catalog.ProductRepository, items []trade.OrderItem) error {
	for _, line := range items {
		if err := products.IncrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func checkoutResult(err error) string {
	switch {
	case errors.Is(err, trade.ErrEmptyCart):
		return telemetry.ResultEmptyCart
	case errors.Is(err, shared.ErrInsufficientStock):
		return telemetry.ResultInsufficientStock
	case errors.Is(err, shared.ErrInvalidInput):
		return telemetry.ResultInvalid
	default:
		return telemetry.ResultError
	}
}

// publishEvents hands committed events to the bus. Failures are logged only;
// the business operation has already succeeded.
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
