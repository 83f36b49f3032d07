package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	appshared "github.com/gaug1c/ecommerce-backend/internal/application/shared"
	"github.com/gaug1c/ecommerce-backend/internal/domain/catalog"
	"github.com/gaug1c/ecommerce-backend/internal/domain/finance"
	"github.com/gaug1c/ecommerce-backend/internal/domain/shared"
	"github.com/gaug1c/ecommerce-backend/internal/domain/trade"
	"github.com/gaug1c/ecommerce-backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Fixtures
// =============================================================================

type financeFixture struct {
	products  *testutil.MockProductRepository
	orders    *testutil.MockOrderRepository
	payments  *testutil.MockPaymentRepository
	gateway   *testutil.MockGateway
	publisher *testutil.MockEventPublisher
	txScope   appshared.TransactionScope
}

func newFinanceFixture() *financeFixture {
	f := &financeFixture{
		products:  new(testutil.MockProductRepository),
		orders:    new(testutil.MockOrderRepository),
		payments:  new(testutil.MockPaymentRepository),
		gateway:   new(testutil.MockGateway),
		publisher: new(testutil.MockEventPublisher),
	}
	f.txScope = appshared.NewNoOpTransactionScope(f.products, new(testutil.MockCartRepository), f.orders, f.payments)
	return f
}

func (f *financeFixture) paymentService() *PaymentService {
	return NewPaymentService(PaymentServiceConfig{
		TxScope:        f.txScope,
		OrderRepo:      f.orders,
		PaymentRepo:    f.payments,
		Gateway:        f.gateway,
		EventPublisher: f.publisher,
		CallbackURL:    "https://shop.example.ga/webhooks/singpay",
	})
}

// newTestOrder builds a 4000 FCFA order: 2 x 1000 plus the Libreville fee
func newTestOrder(t *testing.T, userID uuid.UUID) *trade.Order {
	t.Helper()
	product := catalog.Product{
		BaseEntity: shared.NewBaseEntity(),
		Name:       "Sac en raphia",
		Price:      decimal.NewFromInt(1000),
		Stock:      5,
		IsActive:   true,
	}
	cart := trade.NewCart(userID)
	item, err := trade.NewCartItem(cart.ID, product.ID, 2)
	require.NoError(t, err)
	cart.Items = append(cart.Items, *item)

	quote, err := trade.PriceCart(cart.Items, catalog.IndexByID([]catalog.Product{product}))
	require.NoError(t, err)
	quote.ShipTo("Libreville")

	order, err := trade.NewOrder(userID, trade.NewOrderNumber(time.Now()), trade.PaymentMethodMobileMoney,
		trade.ShippingInfo{Address: "BP 1", City: "Libreville", Phone: "074123456"}, quote)
	require.NoError(t, err)
	order.ClearDomainEvents()
	return order
}

func newTestPayment(t *testing.T, order *trade.Order) *finance.Payment {
	t.Helper()
	payment, err := finance.NewPayment(order.ID, order.UserID, finance.ProviderAirtel, "074123456", order.TotalAmount, DefaultCurrency)
	require.NoError(t, err)
	ref := "987654"
	payment.ProviderReference = &ref
	return payment
}

// =============================================================================
// InitiatePayment
// =============================================================================

func TestPaymentService_InitiatePayment_Success(t *testing.T) {
	ctx := context.Background()
	f := newFinanceFixture()
	userID := uuid.New()
	order := newTestOrder(t, userID)

	f.orders.On("FindByIDForUser", ctx, userID, order.ID).Return(order, nil)
	f.payments.On("ExistsForOrder", ctx, order.ID).Return(false, nil)
	f.gateway.On("Warmup", ctx).Return(nil)
	f.payments.On("Create", ctx, mock.AnythingOfType("*finance.Payment")).Return(nil)
	f.orders.On("SaveWithLock", ctx, order).Return(nil)
	f.gateway.On("InitiatePayment", ctx, mock.MatchedBy(func(req *finance.InitiatePaymentRequest) bool {
		return req.Provider == finance.ProviderAirtel &&
			req.Amount.Equal(decimal.NewFromInt(4000)) &&
			req.Phone == "074123456" &&
			req.CallbackURL == "https://shop.example.ga/webhooks/singpay" &&
			len(req.Reference) == 35
	})).Return(&finance.InitiatePaymentResponse{
		TransactionID: "987654",
		RawResponse:   `{"transaction_id":987654,"status":"PENDING"}`,
	}, nil)
	f.payments.On("SaveWithLock", ctx, mock.AnythingOfType("*finance.Payment")).Return(nil)
	f.publisher.On("Publish", ctx, mock.Anything).Return(nil)

	resp, err := f.paymentService().InitiatePayment(ctx, userID, order.ID, InitiatePaymentRequest{Provider: "airtel", Phone: "074123456"})

	require.NoError(t, err)
	assert.Equal(t, "pending", resp.Payment.Status)
	assert.Equal(t, "AIRTEL", resp.Payment.Provider)
	assert.True(t, decimal.NewFromInt(4000).Equal(resp.Payment.Amount))
	assert.Equal(t, "FCFA", resp.Payment.Currency)
	require.NotNil(t, resp.Payment.ProviderReference)
	assert.Equal(t, "987654", *resp.Payment.ProviderReference)
	assert.JSONEq(t, `{"transaction_id":987654,"status":"PENDING"}`, string(resp.GatewayResponse))
	assert.Equal(t, trade.PaymentStatusPending, order.PaymentStatus)

	f.gateway.AssertExpectations(t)
	f.payments.AssertExpectations(t)
	f.orders.AssertExpectations(t)
}

func TestPaymentService_InitiatePayment_GatewayFailure(t *testing.T) {
	ctx := context.Background()
	f := newFinanceFixture()
	userID := uuid.New()
	order := newTestOrder(t, userID)
	gatewayErr := errors.New("singpay: 502 bad gateway")

	f.orders.On("FindByIDForUser", ctx, userID, order.ID).Return(order, nil)
	f.payments.On("ExistsForOrder", ctx, order.ID).Return(false, nil)
	f.gateway.On("Warmup", ctx).Return(nil)
	f.payments.On("Create", ctx, mock.Anything).Return(nil)
	f.orders.On("SaveWithLock", ctx, order).Return(nil)
	f.gateway.On("InitiatePayment", ctx, mock.Anything).Return(nil, gatewayErr)

	_, err := f.paymentService().InitiatePayment(ctx, userID, order.ID, InitiatePaymentRequest{Provider: "MOOV", Phone: "062123456"})

	var initErr *finance.PaymentInitiationError
	require.ErrorAs(t, err, &initErr)
	assert.ErrorIs(t, err, gatewayErr)
	f.payments.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestPaymentService_InitiatePayment_TokenFailureBeforeAnyWrite(t *testing.T) {
	ctx := context.Background()
	f := newFinanceFixture()
	userID := uuid.New()
	order := newTestOrder(t, userID)

	f.orders.On("FindByIDForUser", ctx, userID, order.ID).Return(order, nil)
	f.payments.On("ExistsForOrder", ctx, order.ID).Return(false, nil)
	f.gateway.On("Warmup", ctx).Return(finance.ErrGatewayAuth)

	_, err := f.paymentService().InitiatePayment(ctx, userID, order.ID, InitiatePaymentRequest{Provider: "AIRTEL", Phone: "074123456"})

	var initErr *finance.PaymentInitiationError
	require.ErrorAs(t, err, &initErr)
	assert.ErrorIs(t, err, finance.ErrGatewayAuth)
	f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPaymentService_InitiatePayment_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown order", func(t *testing.T) {
		f := newFinanceFixture()
		userID, orderID := uuid.New(), uuid.New()
		f.orders.On("FindByIDForUser", ctx, userID, orderID).Return(nil, shared.ErrNotFound)

		_, err := f.paymentService().InitiatePayment(ctx, userID, orderID, InitiatePaymentRequest{Provider: "AIRTEL", Phone: "074123456"})
		assert.ErrorIs(t, err, finance.ErrOrderNotPayable)
	})

	t.Run("already paid", func(t *testing.T) {
		f := newFinanceFixture()
		userID := uuid.New()
		order := newTestOrder(t, userID)
		require.NoError(t, order.MarkPaid())
		f.orders.On("FindByIDForUser", ctx, userID, order.ID).Return(order, nil)

		_, err := f.paymentService().InitiatePayment(ctx, userID, order.ID, InitiatePaymentRequest{Provider: "AIRTEL", Phone: "074123456"})
		assert.ErrorIs(t, err, finance.ErrOrderNotPayable)
	})

	t.Run("payment exists", func(t *testing.T) {
		f := newFinanceFixture()
		userID := uuid.New()
		order := newTestOrder(t, userID)
		f.orders.On("FindByIDForUser", ctx, userID, order.ID).Return(order, nil)
		f.payments.On("ExistsForOrder", ctx, order.ID).Return(true, nil)

		_, err := f.paymentService().InitiatePayment(ctx, userID, order.ID, InitiatePaymentRequest{Provider: "AIRTEL", Phone: "074123456"})
		assert.ErrorIs(t, err, finance.ErrDuplicatePayment)
		f.gateway.AssertNotCalled(t, "Warmup", mock.Anything)
	})

	t.Run("unique index race", func(t *testing.T) {
		f := newFinanceFixture()
		userID := uuid.New()
		order := newTestOrder(t, userID)
		f.orders.On("FindByIDForUser", ctx, userID, order.ID).Return(order, nil)
		f.payments.On("ExistsForOrder", ctx, order.ID).Return(false, nil)
		f.gateway.On("Warmup", ctx).Return(nil)
		f.payments.On("Create", ctx, mock.Anything).Return(finance.ErrDuplicatePayment)

		_, err := f.paymentService().InitiatePayment(ctx, userID, order.ID, InitiatePaymentRequest{Provider: "AIRTEL", Phone: "074123456"})
		assert.ErrorIs(t, err, finance.ErrDuplicatePayment)
		f.gateway.AssertNotCalled(t, "InitiatePayment", mock.Anything, mock.Anything)
	})

	t.Run("bad provider and phone", func(t *testing.T) {
		f := newFinanceFixture()

		_, err := f.paymentService().InitiatePayment(ctx, uuid.New(), uuid.New(), InitiatePaymentRequest{Provider: "ORANGE", Phone: "123"})

		var verr *shared.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "provider")
		assert.Contains(t, verr.Fields, "phone")
		f.orders.AssertNotCalled(t, "FindByIDForUser", mock.Anything, mock.Anything, mock.Anything)
	})
}

// =============================================================================
// GetPaymentStatus
// =============================================================================

func TestPaymentService_GetPaymentStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		f := newFinanceFixture()
		userID := uuid.New()
		order := newTestOrder(t, userID)
		payment := newTestPayment(t, order)
		f.orders.On("FindByIDForUser", ctx, userID, order.ID).Return(order, nil)
		f.payments.On("FindByOrderID", ctx, order.ID).Return(payment, nil)

		resp, err := f.paymentService().GetPaymentStatus(ctx, userID, order.ID)

		require.NoError(t, err)
		assert.Equal(t, payment.ID, resp.Payment.ID)
		assert.Equal(t, "unpaid", resp.OrderPaymentStatus)
	})

	t.Run("no payment yet", func(t *testing.T) {
		f := newFinanceFixture()
		userID := uuid.New()
		order := newTestOrder(t, userID)
		f.orders.On("FindByIDForUser", ctx, userID, order.ID).Return(order, nil)
		f.payments.On("FindByOrderID", ctx, order.ID).Return(nil, shared.ErrNotFound)

		_, err := f.paymentService().GetPaymentStatus(ctx, userID, order.ID)
		assert.ErrorIs(t, err, finance.ErrPaymentNotFound)
	})

	t.Run("someone else's order", func(t *testing.T) {
		f := newFinanceFixture()
		userID, orderID := uuid.New(), uuid.New()
		f.orders.On("FindByIDForUser", ctx, userID, orderID).Return(nil, shared.ErrNotFound)

		_, err := f.paymentService().GetPaymentStatus(ctx, userID, orderID)
		assert.ErrorIs(t, err, finance.ErrPaymentNotFound)
	})
}
