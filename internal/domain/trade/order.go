package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/gaug1c/ecommerce-backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the fulfilment lifecycle of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusFailed     OrderStatus = "failed"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded, OrderStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusConfirmed || target == OrderStatusProcessing ||
			target == OrderStatusCancelled || target == OrderStatusFailed || target == OrderStatusRefunded
	case OrderStatusConfirmed:
		return target == OrderStatusProcessing || target == OrderStatusCancelled || target == OrderStatusRefunded
	case OrderStatusProcessing:
		return target == OrderStatusShipped || target == OrderStatusCancelled || target == OrderStatusRefunded
	case OrderStatusShipped:
		return target == OrderStatusDelivered || target == OrderStatusRefunded
	case OrderStatusDelivered:
		return target == OrderStatusRefunded
	case OrderStatusCancelled, OrderStatusRefunded, OrderStatusFailed:
		return false // Terminal states
	}
	return false
}

// PaymentStatus is the order-level view of money collection, kept apart
// from the fulfilment status.
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the payment status can move to target.
// failed -> paid covers a late authoritative success from the gateway.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	switch s {
	case PaymentStatusUnpaid:
		return target == PaymentStatusPending || target == PaymentStatusPaid || target == PaymentStatusFailed
	case PaymentStatusPending:
		return target == PaymentStatusPaid || target == PaymentStatusFailed
	case PaymentStatusFailed:
		return target == PaymentStatusPaid
	case PaymentStatusPaid:
		return target == PaymentStatusRefunded
	case PaymentStatusRefunded:
		return false
	}
	return false
}

// PaymentMethod is the method the customer chose at checkout
type PaymentMethod string

const (
	PaymentMethodCard           PaymentMethod = "card"
	PaymentMethodMobileMoney    PaymentMethod = "mobile_money"
	PaymentMethodBankTransfer   PaymentMethod = "bank_transfer"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// IsValid checks if the method is accepted
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodMobileMoney, PaymentMethodBankTransfer, PaymentMethodCashOnDelivery:
		return true
	}
	return false
}

// DefaultShippingCountry is stored when an order is built without a country
const DefaultShippingCountry = "Gabon"

// ShippingInfo holds the delivery details captured at checkout
type ShippingInfo struct {
	Address              string
	City                 string
	PostalCode           string
	Country              string
	Phone                string
	DeliveryInstructions string
}

// OrderItem is an immutable snapshot of a purchased line
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	Price       decimal.Decimal
	Subtotal    decimal.Decimal
	CreatedAt   time.Time
}

// Order is the aggregate created by checkout
type Order struct {
	shared.BaseAggregateRoot
	UserID             uuid.UUID
	OrderNumber        string
	Items              []OrderItem
	Subtotal           decimal.Decimal
	ShippingCost       decimal.Decimal
	TotalAmount        decimal.Decimal
	Status             OrderStatus
	PaymentStatus      PaymentStatus
	PaymentMethod      PaymentMethod
	Shipping           ShippingInfo
	ConfirmedAt        *time.Time
	ProcessingAt       *time.Time
	ShippedAt          *time.Time
	DeliveredAt        *time.Time
	CancelledAt        *time.Time
	RefundedAt         *time.Time
	CancellationReason string
}

// NewOrder builds an order from a priced cart. The quote must already
// include the destination fee.
func NewOrder(userID uuid.UUID, orderNumber string, method PaymentMethod, shipping ShippingInfo, quote *Quote) (*Order, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not accepted")
	}
	if quote == nil || len(quote.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	if strings.TrimSpace(shipping.Country) == "" {
		shipping.Country = DefaultShippingCountry
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		OrderNumber:       orderNumber,
		Items:             make([]OrderItem, 0, len(quote.Lines)),
		Status:            OrderStatusPending,
		PaymentStatus:     PaymentStatusUnpaid,
		PaymentMethod:     method,
		Shipping:          shipping,
	}
	for _, line := range quote.Lines {
		if line.Quantity <= 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
		}
		order.Items = append(order.Items, OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			Price:       line.UnitPrice,
			Subtotal:    line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
			CreatedAt:   order.CreatedAt,
		})
	}
	order.ShippingCost = quote.ShippingCost
	order.recalculateTotals()

	order.AddDomainEvent(NewOrderPlacedEvent(order))
	return order, nil
}

func (o *Order) recalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.Subtotal)
	}
	o.Subtotal = subtotal
	o.TotalAmount = subtotal.Add(o.ShippingCost)
}

// CheckTotals verifies total == Σ item subtotal + shipping and each item
// subtotal == quantity × price.
func (o *Order) CheckTotals() error {
	sum := decimal.Zero
	for _, item := range o.Items {
		if !item.Subtotal.Equal(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))) {
			return fmt.Errorf("order %s: item %s subtotal mismatch", o.OrderNumber, item.ProductID)
		}
		sum = sum.Add(item.Subtotal)
	}
	if !o.TotalAmount.Equal(sum.Add(o.ShippingCost)) {
		return fmt.Errorf("order %s: total %s != items %s + shipping %s", o.OrderNumber, o.TotalAmount, sum, o.ShippingCost)
	}
	return nil
}

// IsOwnedBy reports whether the order belongs to userID
func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.UserID == userID
}

// IsPayable reports whether a payment may still be collected for the order
func (o *Order) IsPayable() bool {
	return o.PaymentStatus == PaymentStatusUnpaid || o.PaymentStatus == PaymentStatusPending
}

// CanBeCancelled reports whether the customer may still cancel the order
func (o *Order) CanBeCancelled() bool {
	return o.Status.CanTransitionTo(OrderStatusCancelled) &&
		o.PaymentStatus != PaymentStatusPaid && o.PaymentStatus != PaymentStatusPending
}

// Cancel moves the order to cancelled. Paid orders must be refunded instead,
// and an order with a collection in flight waits for the gateway verdict.
// Stock restoration is done by the application service.
func (o *Order) Cancel(reason string) error {
	if !o.Status.CanTransitionTo(OrderStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("This order can no longer be cancelled. Current status: %s", o.Status))
	}
	if o.PaymentStatus == PaymentStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "A paid order must be refunded instead of cancelled")
	}
	if o.PaymentStatus == PaymentStatusPending {
		return shared.NewDomainError("INVALID_STATE", "A payment is in progress for this order")
	}
	if strings.TrimSpace(reason) == "" {
		reason = "Cancelled by customer"
	}

	now := time.Now()
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	o.CancellationReason = reason
	o.Touch(now)

	o.AddDomainEvent(NewOrderCancelledEvent(o))
	return nil
}

// MarkPaymentPending records that a payment attempt was started
func (o *Order) MarkPaymentPending() error {
	if o.PaymentStatus == PaymentStatusPending {
		return nil
	}
	return o.transitionPayment(PaymentStatusPending)
}

// MarkPaid records a confirmed payment. Already-paid orders are left alone.
func (o *Order) MarkPaid() error {
	if o.PaymentStatus == PaymentStatusPaid {
		return nil
	}
	return o.transitionPayment(PaymentStatusPaid)
}

// MarkPaymentFailed records a failed collection attempt
func (o *Order) MarkPaymentFailed() error {
	if o.PaymentStatus == PaymentStatusFailed {
		return nil
	}
	return o.transitionPayment(PaymentStatusFailed)
}

// HoldsStock reports whether the order's items are still taken out of
// stock. Cancellation already put them back.
func (o *Order) HoldsStock() bool {
	return o.Status != OrderStatusCancelled && o.Status != OrderStatusRefunded
}

// Refund moves both the fulfilment and payment status to refunded. A
// cancelled order can be refunded when a late gateway success paid it after
// the cancellation.
func (o *Order) Refund() error {
	paidAfterCancel := o.Status == OrderStatusCancelled && o.PaymentStatus == PaymentStatusPaid
	if !paidAfterCancel && !o.Status.CanTransitionTo(OrderStatusRefunded) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot refund order in %s status", o.Status))
	}
	if err := o.transitionPayment(PaymentStatusRefunded); err != nil {
		return err
	}
	now := time.Now()
	o.Status = OrderStatusRefunded
	o.RefundedAt = &now
	o.Touch(now)
	return nil
}

func (o *Order) transitionPayment(target PaymentStatus) error {
	if !o.PaymentStatus.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot change payment status from %s to %s", o.PaymentStatus, target))
	}
	o.PaymentStatus = target
	o.Touch(time.Now())
	return nil
}

// ItemCount returns the number of lines
func (o *Order) ItemCount() int {
	return len(o.Items)
}

// TimelineStep is one milestone of the delivery tracking view
type TimelineStep struct {
	Status    OrderStatus
	Label     string
	Completed bool
	At        *time.Time
}

// Timeline returns the tracking milestones of the order
func (o *Order) Timeline() []TimelineStep {
	reached := func(statuses ...OrderStatus) bool {
		for _, s := range statuses {
			if o.Status == s {
				return true
			}
		}
		return false
	}
	created := o.CreatedAt
	return []TimelineStep{
		{Status: OrderStatusPending, Label: "Order received", Completed: true, At: &created},
		{Status: OrderStatusConfirmed, Label: "Order confirmed",
			Completed: reached(OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered), At: o.ConfirmedAt},
		{Status: OrderStatusProcessing, Label: "Being prepared",
			Completed: reached(OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered), At: o.ProcessingAt},
		{Status: OrderStatusShipped, Label: "Shipped",
			Completed: reached(OrderStatusShipped, OrderStatusDelivered), At: o.ShippedAt},
		{Status: OrderStatusDelivered, Label: "Delivered",
			Completed: reached(OrderStatusDelivered), At: o.DeliveredAt},
	}
}
