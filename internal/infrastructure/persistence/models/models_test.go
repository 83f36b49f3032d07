package models

import (
	"testing"
	"time"

	"github.com/gaug1c/ecommerce-backend/internal/domain/finance"
	"github.com/gaug1c/ecommerce-backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModels_TableNames(t *testing.T) {
	assert.Equal(t, "products", ProductModel{}.TableName())
	assert.Equal(t, "carts", CartModel{}.TableName())
	assert.Equal(t, "cart_items", CartItemModel{}.TableName())
	assert.Equal(t, "orders", OrderModel{}.TableName())
	assert.Equal(t, "order_items", OrderItemModel{}.TableName())
	assert.Equal(t, "payments", PaymentModel{}.TableName())
	assert.Len(t, All(), 6)
}

func TestOrderModel_FlattensShippingInfo(t *testing.T) {
	now := time.Now()
	cancelled := now.Add(time.Hour)
	model := &OrderModel{
		AggregateModel: AggregateModel{
			BaseModel: BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			Version:   3,
		},
		UserID:               uuid.New(),
		OrderNumber:          "CMD-20240309-0123456789AB",
		Subtotal:             decimal.NewFromInt(2000),
		ShippingCost:         decimal.NewFromInt(2000),
		TotalAmount:          decimal.NewFromInt(4000),
		Status:               trade.OrderStatusCancelled,
		PaymentStatus:        trade.PaymentStatusUnpaid,
		PaymentMethod:        trade.PaymentMethodMobileMoney,
		ShippingAddress:      "Quartier Louis",
		ShippingCity:         "Libreville",
		ShippingCountry:      "Gabon",
		Phone:                "+24106123456",
		DeliveryInstructions: "Gate on the left",
		CancelledAt:          &cancelled,
		CancellationReason:   "changed my mind",
		Items: []OrderItemModel{{
			ID:          uuid.New(),
			ProductID:   uuid.New(),
			ProductName: "Widget",
			Quantity:    2,
			Price:       decimal.NewFromInt(1000),
			Subtotal:    decimal.NewFromInt(2000),
			CreatedAt:   now,
		}},
	}
	model.Items[0].OrderID = model.ID

	order := model.ToDomain()

	assert.Equal(t, 3, order.Version)
	assert.Equal(t, "Libreville", order.Shipping.City)
	assert.Equal(t, "+24106123456", order.Shipping.Phone)
	assert.Equal(t, "Gate on the left", order.Shipping.DeliveryInstructions)
	assert.Equal(t, &cancelled, order.CancelledAt)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)
	require.NoError(t, order.CheckTotals())

	back := OrderModelFromDomain(order)
	assert.Equal(t, model.ShippingAddress, back.ShippingAddress)
	assert.Equal(t, model.OrderNumber, back.OrderNumber)
	require.Len(t, back.Items, 1)
	assert.Equal(t, model.ID, back.Items[0].OrderID)
}

func TestPaymentModel_KeepsNullableGatewayFields(t *testing.T) {
	p, err := finance.NewPayment(uuid.New(), uuid.New(), finance.ProviderAirtel, "074000000", decimal.NewFromInt(4000), "FCFA")
	require.NoError(t, err)

	m := PaymentModelFromDomain(p)
	assert.Nil(t, m.ProviderReference)
	assert.Nil(t, m.RefundAmount)
	assert.Equal(t, 1, m.Version)

	p.AttachGatewayResponse("987654", `{"transaction":{"id":"987654"}}`)
	m = PaymentModelFromDomain(p)
	require.NotNil(t, m.ProviderReference)
	assert.Equal(t, "987654", *m.ProviderReference)
	assert.Equal(t, p.TransactionID, m.ToDomain().TransactionID)
}
