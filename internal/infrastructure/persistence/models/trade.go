package models

import (
	"time"

	"github.com/gaug1c/ecommerce-backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartModel is the persistence model for a user's cart. One per user.
type CartModel struct {
	BaseModel
	UserID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Items  []CartItemModel `gorm:"foreignKey:CartID;references:ID"`
}

// TableName returns the table name for GORM
func (CartModel) TableName() string {
	return "carts"
}

// ToDomain converts the persistence model to a domain Cart.
func (m *CartModel) ToDomain() *trade.Cart {
	cart := &trade.Cart{
		BaseEntity: m.BaseModel.ToDomain(),
		UserID:     m.UserID,
		Items:      make([]trade.CartItem, len(m.Items)),
	}
	for i, item := range m.Items {
		cart.Items[i] = *item.ToDomain()
	}
	return cart
}

// FromDomain populates the persistence model from a domain Cart. Items are
// written through the cart item statements, not with the header.
func (m *CartModel) FromDomain(c *trade.Cart) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.UserID = c.UserID
}

// CartItemModel is the persistence model for one cart line
type CartItemModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CartID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_cart_product,priority:1"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_cart_product,priority:2"`
	Quantity  int       `gorm:"not null;check:chk_cart_items_quantity_positive,quantity > 0"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartItemModel) TableName() string {
	return "cart_items"
}

// ToDomain converts the persistence model to a domain CartItem.
func (m *CartItemModel) ToDomain() *trade.CartItem {
	return &trade.CartItem{
		ID:        m.ID,
		CartID:    m.CartID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// CartItemModelFromDomain creates a new persistence model from a domain CartItem.
func CartItemModelFromDomain(i *trade.CartItem) *CartItemModel {
	return &CartItemModel{
		ID:        i.ID,
		CartID:    i.CartID,
		ProductID: i.ProductID,
		Quantity:  i.Quantity,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

// OrderModel is the persistence model for the Order aggregate root.
type OrderModel struct {
	AggregateModel
	UserID               uuid.UUID           `gorm:"type:uuid;not null;index"`
	OrderNumber          string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	Items                []OrderItemModel    `gorm:"foreignKey:OrderID;references:ID"`
	Subtotal             decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	ShippingCost         decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	TotalAmount          decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	Status               trade.OrderStatus   `gorm:"type:varchar(20);not null;index"`
	PaymentStatus        trade.PaymentStatus `gorm:"type:varchar(20);not null"`
	PaymentMethod        trade.PaymentMethod `gorm:"type:varchar(30);not null"`
	ShippingAddress      string              `gorm:"type:text;not null"`
	ShippingCity         string              `gorm:"type:varchar(100);not null"`
	ShippingPostalCode   string              `gorm:"type:varchar(20)"`
	ShippingCountry      string              `gorm:"type:varchar(100);not null"`
	Phone                string              `gorm:"type:varchar(20);not null"`
	DeliveryInstructions string              `gorm:"type:text"`
	ConfirmedAt          *time.Time
	ProcessingAt         *time.Time
	ShippedAt            *time.Time
	DeliveredAt          *time.Time
	CancelledAt          *time.Time
	RefundedAt           *time.Time
	CancellationReason   string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order.
func (m *OrderModel) ToDomain() *trade.Order {
	order := &trade.Order{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		UserID:            m.UserID,
		OrderNumber:       m.OrderNumber,
		Subtotal:          m.Subtotal,
		ShippingCost:      m.ShippingCost,
		TotalAmount:       m.TotalAmount,
		Status:            m.Status,
		PaymentStatus:     m.PaymentStatus,
		PaymentMethod:     m.PaymentMethod,
		Shipping: trade.ShippingInfo{
			Address:              m.ShippingAddress,
			City:                 m.ShippingCity,
			PostalCode:           m.ShippingPostalCode,
			Country:              m.ShippingCountry,
			Phone:                m.Phone,
			DeliveryInstructions: m.DeliveryInstructions,
		},
		ConfirmedAt:        m.ConfirmedAt,
		ProcessingAt:       m.ProcessingAt,
		ShippedAt:          m.ShippedAt,
		DeliveredAt:        m.DeliveredAt,
		CancelledAt:        m.CancelledAt,
		RefundedAt:         m.RefundedAt,
		CancellationReason: m.CancellationReason,
		Items:              make([]trade.OrderItem, len(m.Items)),
	}
	for i, item := range m.Items {
		order.Items[i] = *item.ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain Order.
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.UserID = o.UserID
	m.OrderNumber = o.OrderNumber
	m.Subtotal = o.Subtotal
	m.ShippingCost = o.ShippingCost
	m.TotalAmount = o.TotalAmount
	m.Status = o.Status
	m.PaymentStatus = o.PaymentStatus
	m.PaymentMethod = o.PaymentMethod
	m.ShippingAddress = o.Shipping.Address
	m.ShippingCity = o.Shipping.City
	m.ShippingPostalCode = o.Shipping.PostalCode
	m.ShippingCountry = o.Shipping.Country
	m.Phone = o.Shipping.Phone
	m.DeliveryInstructions = o.Shipping.DeliveryInstructions
	m.ConfirmedAt = o.ConfirmedAt
	m.ProcessingAt = o.ProcessingAt
	m.ShippedAt = o.ShippedAt
	m.DeliveredAt = o.DeliveredAt
	m.CancelledAt = o.CancelledAt
	m.RefundedAt = o.RefundedAt
	m.CancellationReason = o.CancellationReason
	m.Items = make([]OrderItemModel, len(o.Items))
	for i := range o.Items {
		m.Items[i] = *OrderItemModelFromDomain(&o.Items[i])
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for an immutable order line
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    int             `gorm:"not null;check:chk_order_items_quantity_positive,quantity > 0"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem.
func (m *OrderItemModel) ToDomain() *trade.OrderItem {
	return &trade.OrderItem{
		ID:          m.ID,
		OrderID:     m.OrderID,
		ProductID:   m.ProductID,
		ProductName: m.ProductName,
		Quantity:    m.Quantity,
		Price:       m.Price,
		Subtotal:    m.Subtotal,
		CreatedAt:   m.CreatedAt,
	}
}

// OrderItemModelFromDomain creates a new persistence model from a domain OrderItem.
func OrderItemModelFromDomain(i *trade.OrderItem) *OrderItemModel {
	return &OrderItemModel{
		ID:          i.ID,
		OrderID:     i.OrderID,
		ProductID:   i.ProductID,
		ProductName: i.ProductName,
		Quantity:    i.Quantity,
		Price:       i.Price,
		Subtotal:    i.Subtotal,
		CreatedAt:   i.CreatedAt,
	}
}
