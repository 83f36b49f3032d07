package trade

import (
	"context"
	"errors"

	appshared "github.com/gaug1c/ecommerce-backend/internal/application/shared"
	"github.com/gaug1c/ecommerce-backend/internal/domain/finance"
	"github.com/gaug1c/ecommerce-backend/internal/domain/shared"
	"github.com/gaug1c/ecommerce-backend/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderServiceConfig holds the dependencies of OrderService
type OrderServiceConfig struct {
	OrderRepo      trade.OrderRepository
	PaymentRepo    finance.PaymentRepository
	TxScope        appshared.TransactionScope
	EventPublisher shared.EventPublisher
	Logger         *zap.Logger
}

// OrderService serves a customer's order history, tracking and cancellation
type OrderService struct {
	orderRepo      trade.OrderRepository
	paymentRepo    finance.PaymentRepository
	txScope        appshared.TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(cfg OrderServiceConfig) *OrderService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orderRepo:      cfg.OrderRepo,
		paymentRepo:    cfg.PaymentRepo,
		txScope:        cfg.TxScope,
		eventPublisher: cfg.EventPublisher,
		logger:         logger,
	}
}

// ListOrders returns one page of the user's orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID, filter OrderListFilter) (*OrderListResponse, error) {
	status := trade.OrderStatus(filter.Status)
	if status != "" && !status.IsValid() {
		verr := shared.NewValidationError()
		verr.Add("status", "Unknown order status")
		return nil, verr
	}

	f := trade.OrderFilter{
		Filter:   shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize(),
		Status:   status,
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
	}
	orders, total, err := s.orderRepo.FindForUser(ctx, userID, f)
	if err != nil {
		return nil, err
	}

	page := shared.NewPaginated(orders, total, f.Page, f.PageSize)
	resp := &OrderListResponse{
		Orders:     make([]OrderResponse, len(orders)),
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
	for i := range orders {
		resp.Orders[i] = ToOrderResponse(&orders[i])
	}
	return resp, nil
}

// GetOrder returns one of the user's orders with its items and payment
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.findForUser(ctx, s.orderRepo, userID, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	if s.paymentRepo != nil {
		payment, err := s.paymentRepo.FindByOrderID(ctx, order.ID)
		switch {
		case err == nil:
			resp.Payment = &OrderPaymentSummary{
				ID:            payment.ID,
				Provider:      payment.Provider.String(),
				Status:        payment.Status.String(),
				TransactionID: payment.TransactionID,
			}
		case !errors.Is(err, shared.ErrNotFound):
			return nil, err
		}
	}
	return &resp, nil
}

// TrackOrder returns an order by its number together with the delivery timeline
func (s *OrderService) TrackOrder(ctx context.Context, userID uuid.UUID, orderNumber string) (*OrderTrackingResponse, error) {
	order, err := s.orderRepo.FindByOrderNumber(ctx, userID, orderNumber)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, trade.ErrOrderNotFound
		}
		return nil, err
	}
	return &OrderTrackingResponse{
		Order:    ToOrderResponse(order),
		Timeline: ToTimelineResponse(order.Timeline()),
	}, nil
}

// CancelOrder cancels the user's order and gives its stock back, atomically
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	var order *trade.Order
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		order, err = s.findForUser(ctx, repos.OrderRepo(), userID, orderID)
		if err != nil {
			return err
		}
		if err := order.Cancel(req.Reason); err != nil {
			return err
		}
		if err := repos.OrderRepo().SaveWithLock(ctx, order); err != nil {
			return err
		}
		return restoreStock(ctx, repos.ProductRepo(), order.Items)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order cancelled",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("reason", order.CancellationReason))

	publishEvents(ctx, s.eventPublisher, s.logger, order.GetDomainEvents())
	order.ClearDomainEvents()

	resp := ToOrderResponse(order)
	return &resp, nil
}

func (s *OrderService) findForUser(ctx context.Context, repo trade.OrderRepository, userID, orderID uuid.UUID) (*trade.Order, error) {
	order, err := repo.FindByIDForUser(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, trade.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}
