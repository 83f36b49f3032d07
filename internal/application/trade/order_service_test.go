package trade

import (
	"context"
	"testing"

	appshared "github.com/gaug1c/ecommerce-backend/internal/application/shared"
	"github.com/gaug1c/ecommerce-backend/internal/domain/catalog"
	"github.com/gaug1c/ecommerce-backend/internal/domain/finance"
	"github.com/gaug1c/ecommerce-backend/internal/domain/shared"
	"github.com/gaug1c/ecommerce-backend/internal/domain/trade"
	"github.com/gaug1c/ecommerce-backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	products  *testutil.MockProductRepository
	orders    *testutil.MockOrderRepository
	payments  *testutil.MockPaymentRepository
	publisher *testutil.MockEventPublisher
	service   *OrderService
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		products:  new(testutil.MockProductRepository),
		orders:    new(testutil.MockOrderRepository),
		payments:  new(testutil.MockPaymentRepository),
		publisher: new(testutil.MockEventPublisher),
	}
	f.service = NewOrderService(OrderServiceConfig{
		OrderRepo:      f.orders,
		PaymentRepo:    f.payments,
		TxScope:        appshared.NewNoOpTransactionScope(f.products, new(testutil.MockCartRepository), f.orders, f.payments),
		EventPublisher: f.publisher,
	})
	return f
}

func newPlacedOrder(t *testing.T, userID uuid.UUID, lines map[*catalog.Product]int) *trade.Order {
	t.Helper()
	cart := newTestCart(userID, lines)
	products := make([]catalog.Product, 0, len(lines))
	for p := range lines {
		products = append(products, *p)
	}
	quote, err := trade.PriceCart(cart.Items, catalog.IndexByID(products))
	require.NoError(t, err)
	quote.ShipTo("Libreville")
	order, err := trade.NewOrder(userID, "CMD-20240101-ABCDEF123456", trade.PaymentMethodMobileMoney,
		trade.ShippingInfo{Address: "BP 1", City: "Libreville", Phone: "06123456"}, quote)
	require.NoError(t, err)
	order.ClearDomainEvents()
	return order
}

func TestOrderService_ListOrders(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	userID := uuid.New()
	order := newPlacedOrder(t, userID, map[*catalog.Product]int{newTestProduct("A", 1000, 5): 1})

	f.orders.On("FindForUser", ctx, userID, mock.MatchedBy(func(filter trade.OrderFilter) bool {
		return filter.Page == 2 && filter.PageSize == 5 && filter.Status == trade.OrderStatusPending
	})).Return([]trade.Order{*order}, int64(6), nil)

	resp, err := f.service.ListOrders(ctx, userID, OrderListFilter{Status: "pending", Page: 2, PageSize: 5})

	require.NoError(t, err)
	assert.Len(t, resp.Orders, 1)
	assert.Equal(t, int64(6), resp.Total)
	assert.Equal(t, 2, resp.TotalPages)
}

func TestOrderService_ListOrders_UnknownStatus(t *testing.T) {
	f := newOrderFixture()

	_, err := f.service.ListOrders(context.Background(), uuid.New(), OrderListFilter{Status: "lost"})

	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestOrderService_GetOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("with payment", func(t *testing.T) {
		f := newOrderFixture()
		userID := uuid.New()
		order := newPlacedOrder(t, userID, map[*catalog.Product]int{newTestProduct("A", 1000, 5): 1})
		payment, err := finance.NewPayment(order.ID, userID, finance.ProviderAirtel, "074123456", order.TotalAmount, "FCFA")
		require.NoError(t, err)

		f.orders.On("FindByIDForUser", ctx, userID, order.ID).Return(order, nil)
		f.payments.On("FindByOrderID", ctx, order.ID).Return(payment, nil)

		resp, err := f.service.GetOrder(ctx, userID, order.ID)

		require.NoError(t, err)
		require.NotNil(t, resp.Payment)
		assert.Equal(t, "AIRTEL", resp.Payment.Provider)
		assert.Equal(t, "pending", resp.Payment.Status)
	})

	t.Run("other user's order", func(t *testing.T) {
		f := newOrderFixture()
		userID, orderID := uuid.New(), uuid.New()
		f.orders.On("FindByIDForUser", ctx, userID, orderID).Return(nil, shared.ErrNotFound)

		_, err := f.service.GetOrder(ctx, userID, orderID)

		assert.ErrorIs(t, err, trade.ErrOrderNotFound)
	})
}

func TestOrderService_TrackOrder(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	userID := uuid.New()
	order := newPlacedOrder(t, userID, map[*catalog.Product]int{newTestProduct("A", 1000, 5): 1})

	f.orders.On("FindByOrderNumber", ctx, userID, order.OrderNumber).Return(order, nil)

	resp, err := f.service.TrackOrder(ctx, userID, order.OrderNumber)

	require.NoError(t, err)
	require.Len(t, resp.Timeline, 5)
	assert.True(t, resp.Timeline[0].Completed)
	assert.False(t, resp.Timeline[1].Completed)
}

func TestOrderService_CancelOrder_RestoresStock(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	userID := uuid.New()
	a := newTestProduct("A", 1000, 5)
	b := newTestProduct("B", 2000, 5)
	order := newPlacedOrder(t, userID, map[*catalog.Product]int{a: 2, b: 1})

	f.orders.On("FindByIDForUser", ctx, userID, order.ID).Return(order, nil)
	f.orders.On("SaveWithLock", ctx, order).Return(nil)
	f.products.On("IncrementStock", ctx, a.ID, 2).Return(nil)
	f.products.On("IncrementStock", ctx, b.ID, 1).Return(nil)
	f.publisher.On("Publish", ctx, mock.Anything).Return(nil)

	resp, err := f.service.CancelOrder(ctx, userID, order.ID, CancelOrderRequest{})

	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)
	assert.Equal(t, "Cancelled by customer", resp.CancellationReason)
	f.products.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestOrderService_CancelOrder_PaidOrderRejected(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	userID := uuid.New()
	order := newPlacedOrder(t, userID, map[*catalog.Product]int{newTestProduct("A", 1000, 5): 1})
	require.NoError(t, order.MarkPaid())

	f.orders.On("FindByIDForUser", ctx, userID, order.ID).Return(order, nil)

	_, err := f.service.CancelOrder(ctx, userID, order.ID, CancelOrderRequest{Reason: "changed my mind"})

	assert.ErrorIs(t, err, shared.ErrInvalidState)
	f.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	f.products.AssertNotCalled(t, "IncrementStock", mock.Anything, mock.Anything, mock.Anything)
}
