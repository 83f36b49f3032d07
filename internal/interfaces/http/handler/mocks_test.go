package handler

import (
	"context"

	financeapp "github.com/gaug1c/ecommerce-backend/internal/application/finance"
	tradeapp "github.com/gaug1c/ecommerce-backend/internal/application/trade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCartUseCase implements CartUseCase for testing
type MockCartUseCase struct {
	mock.Mock
}

func (m *MockCartUseCase) cart(args mock.Arguments) (*tradeapp.CartResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.CartResponse), args.Error(1)
}

func (m *MockCartUseCase) GetCart(ctx context.Context, userID uuid.UUID) (*tradeapp.CartResponse, error) {
	return m.cart(m.Called(ctx, userID))
}

func (m *MockCartUseCase) AddItem(ctx context.Context, userID uuid.UUID, req tradeapp.AddCartItemRequest) (*tradeapp.CartResponse, error) {
	return m.cart(m.Called(ctx, userID, req))
}

func (m *MockCartUseCase) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, req tradeapp.UpdateCartItemRequest) (*tradeapp.CartResponse, error) {
	return m.cart(m.Called(ctx, userID, itemID, req))
}

func (m *MockCartUseCase) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*tradeapp.CartResponse, error) {
	return m.cart(m.Called(ctx, userID, itemID))
}

func (m *MockCartUseCase) Clear(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockCartUseCase) Validate(ctx context.Context, userID uuid.UUID) (*tradeapp.CartValidationResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.CartValidationResponse), args.Error(1)
}

// MockCheckoutUseCase implements CheckoutUseCase for testing
type MockCheckoutUseCase struct {
	mock.Mock
}

func (m *MockCheckoutUseCase) PlaceOrder(ctx context.Context, userID uuid.UUID, req tradeapp.PlaceOrderRequest) (*tradeapp.OrderResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.OrderResponse), args.Error(1)
}

// MockOrderUseCase implements OrderUseCase for testing
type MockOrderUseCase struct {
	mock.Mock
}

func (m *MockOrderUseCase) ListOrders(ctx context.Context, userID uuid.UUID, filter tradeapp.OrderListFilter) (*tradeapp.OrderListResponse, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.OrderListResponse), args.Error(1)
}

func (m *MockOrderUseCase) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*tradeapp.OrderResponse, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.OrderResponse), args.Error(1)
}

func (m *MockOrderUseCase) TrackOrder(ctx context.Context, userID uuid.UUID, orderNumber string) (*tradeapp.OrderTrackingResponse, error) {
	args := m.Called(ctx, userID, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.OrderTrackingResponse), args.Error(1)
}

func (m *MockOrderUseCase) CancelOrder(ctx context.Context, userID, orderID uuid.UUID, req tradeapp.CancelOrderRequest) (*tradeapp.OrderResponse, error) {
	args := m.Called(ctx, userID, orderID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.OrderResponse), args.Error(1)
}

// MockPaymentUseCase implements PaymentUseCase for testing
type MockPaymentUseCase struct {
	mock.Mock
}

func (m *MockPaymentUseCase) InitiatePayment(ctx context.Context, userID, orderID uuid.UUID, req financeapp.InitiatePaymentRequest) (*financeapp.InitiatePaymentResponse, error) {
	args := m.Called(ctx, userID, orderID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.InitiatePaymentResponse), args.Error(1)
}

func (m *MockPaymentUseCase) GetPaymentStatus(ctx context.Context, userID, orderID uuid.UUID) (*financeapp.PaymentStatusResponse, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.PaymentStatusResponse), args.Error(1)
}

// MockRefundUseCase implements RefundUseCase for testing
type MockRefundUseCase struct {
	mock.Mock
}

func (m *MockRefundUseCase) Refund(ctx context.Context, userID uuid.UUID, isAdmin bool, paymentID uuid.UUID, req financeapp.RefundPaymentRequest) (*financeapp.PaymentResponse, error) {
	args := m.Called(ctx, userID, isAdmin, paymentID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.PaymentResponse), args.Error(1)
}

// MockWebhookReconciler implements WebhookReconciler for testing
type MockWebhookReconciler struct {
	mock.Mock
}

func (m *MockWebhookReconciler) Reconcile(ctx context.Context, payload financeapp.WebhookPayload) (*financeapp.ReconcileResult, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.ReconcileResult), args.Error(1)
}
