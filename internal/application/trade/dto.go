package trade

import (
	"time"

	"github.com/gaug1c/ecommerce-backend/internal/domain/catalog"
	"github.com/gaug1c/ecommerce-backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Cart DTOs ====================

// AddCartItemRequest represents a request to put a product in the cart
type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest represents a request to change a cart line quantity
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// CartItemResponse represents one cart line with its current product data
type CartItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	ProductName      string          `json:"product_name"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	OriginalPrice    decimal.Decimal `json:"original_price"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	ShippingCost     decimal.Decimal `json:"shipping_cost"`
	AvailableStock   int             `json:"available_stock"`
	IsAvailable      bool            `json:"is_available"`
	HasEnoughStock   bool            `json:"has_enough_stock"`
	ProductIsDeleted bool            `json:"product_is_deleted,omitempty"`
}

// CartSummary is computed with the same pricing rules as checkout, without
// the destination fee which is only known at checkout.
type CartSummary struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	ShippingCost  decimal.Decimal `json:"shipping_cost"`
	Total         decimal.Decimal `json:"total"`
	ItemsCount    int             `json:"items_count"`
	TotalQuantity int             `json:"total_quantity"`
}

// CartResponse represents a cart with its summary
type CartResponse struct {
	ID      uuid.UUID          `json:"id"`
	UserID  uuid.UUID          `json:"user_id"`
	Items   []CartItemResponse `json:"items"`
	Summary CartSummary        `json:"summary"`
}

// CartIssue describes one line that cannot be checked out as is
type CartIssue struct {
	ItemID    uuid.UUID `json:"item_id"`
	ProductID uuid.UUID `json:"product_id"`
	Product   string    `json:"product,omitempty"`
	Issue     string    `json:"issue"`
	Requested int       `json:"requested,omitempty"`
	Available int       `json:"available,omitempty"`
}

// CartValidationResponse is the result of a dry-run stock check
type CartValidationResponse struct {
	IsValid bool        `json:"is_valid"`
	Issues  []CartIssue `json:"issues"`
}

// ToCartResponse builds the cart view from the cart and the current product
// snapshots. Lines whose product vanished are reported as unavailable and left
// out of the totals.
func ToCartResponse(cart *trade.Cart, products map[uuid.UUID]*catalog.Product) CartResponse {
	resp := CartResponse{
		ID:     cart.ID,
		UserID: cart.UserID,
		Items:  make([]CartItemResponse, 0, len(cart.Items)),
		Summary: CartSummary{
			Subtotal:     decimal.Zero,
			ShippingCost: decimal.Zero,
			Total:        decimal.Zero,
		},
	}
	for _, item := range cart.Items {
		line := CartItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		p, ok := products[item.ProductID]
		if !ok {
			line.ProductIsDeleted = true
			resp.Items = append(resp.Items, line)
			continue
		}
		unit := p.EffectivePrice()
		line.ProductName = p.Name
		line.UnitPrice = unit
		line.OriginalPrice = p.Price
		line.Subtotal = unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
		line.ShippingCost = p.ShippingSurcharge()
		line.AvailableStock = p.Stock
		line.IsAvailable = p.IsActive
		line.HasEnoughStock = p.CanFulfil(item.Quantity)
		resp.Items = append(resp.Items, line)

		resp.Summary.Subtotal = resp.Summary.Subtotal.Add(line.Subtotal)
		resp.Summary.ShippingCost = resp.Summary.ShippingCost.Add(line.ShippingCost)
		resp.Summary.TotalQuantity += item.Quantity
	}
	resp.Summary.ItemsCount = len(cart.Items)
	resp.Summary.Total = resp.Summary.Subtotal.Add(resp.Summary.ShippingCost)
	return resp
}

// ==================== Order DTOs ====================

// PlaceOrderRequest represents the checkout request body
type PlaceOrderRequest struct {
	ShippingAddress      string `json:"shipping_address"`
	ShippingCity         string `json:"shipping_city"`
	ShippingPostalCode   string `json:"shipping_postal_code"`
	ShippingCountry      string `json:"shipping_country"`
	Phone                string `json:"phone"`
	DeliveryInstructions string `json:"delivery_instructions"`
	PaymentMethod        string `json:"payment_method"`
}

// CancelOrderRequest represents a request to cancel an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// OrderListFilter represents the query string of the order history
type OrderListFilter struct {
	Status   string     `form:"status"`
	FromDate *time.Time `form:"from_date" time_format:"2006-01-02"`
	ToDate   *time.Time `form:"to_date" time_format:"2006-01-02"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
}

// OrderItemResponse represents one immutable order line
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderPaymentSummary is the payment attached to an order, when there is one
type OrderPaymentSummary struct {
	ID            uuid.UUID `json:"id"`
	Provider      string    `json:"provider"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID                   uuid.UUID            `json:"id"`
	OrderNumber          string               `json:"order_number"`
	UserID               uuid.UUID            `json:"user_id"`
	Items                []OrderItemResponse  `json:"items"`
	ItemCount            int                  `json:"item_count"`
	Subtotal             decimal.Decimal      `json:"subtotal"`
	ShippingCost         decimal.Decimal      `json:"shipping_cost"`
	TotalAmount          decimal.Decimal      `json:"total_amount"`
	Status               string               `json:"status"`
	PaymentStatus        string               `json:"payment_status"`
	PaymentMethod        string               `json:"payment_method"`
	ShippingAddress      string               `json:"shipping_address"`
	ShippingCity         string               `json:"shipping_city"`
	ShippingPostalCode   string               `json:"shipping_postal_code,omitempty"`
	ShippingCountry      string               `json:"shipping_country"`
	Phone                string               `json:"phone"`
	DeliveryInstructions string               `json:"delivery_instructions,omitempty"`
	Payment              *OrderPaymentSummary `json:"payment,omitempty"`
	CancellationReason   string               `json:"cancellation_reason,omitempty"`
	ConfirmedAt          *time.Time           `json:"confirmed_at,omitempty"`
	ShippedAt            *time.Time           `json:"shipped_at,omitempty"`
	DeliveredAt          *time.Time           `json:"delivered_at,omitempty"`
	CancelledAt          *time.Time           `json:"cancelled_at,omitempty"`
	RefundedAt           *time.Time           `json:"refunded_at,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

// TimelineStepResponse is one milestone of the tracking view
type TimelineStepResponse struct {
	Status    string     `json:"status"`
	Label     string     `json:"label"`
	Completed bool       `json:"completed"`
	Date      *time.Time `json:"date,omitempty"`
}

// OrderTrackingResponse represents an order with its delivery timeline
type OrderTrackingResponse struct {
	Order    OrderResponse          `json:"order"`
	Timeline []TimelineStepResponse `json:"timeline"`
}

// OrderListResponse is one page of a customer's order history
type OrderListResponse struct {
	Orders     []OrderResponse `json:"orders"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// ToOrderResponse converts a domain order to its response form
func ToOrderResponse(order *trade.Order) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Subtotal:    item.Subtotal,
		}
	}
	return OrderResponse{
		ID:                   order.ID,
		OrderNumber:          order.OrderNumber,
		UserID:               order.UserID,
		Items:                items,
		ItemCount:            order.ItemCount(),
		Subtotal:             order.Subtotal,
		ShippingCost:         order.ShippingCost,
		TotalAmount:          order.TotalAmount,
		Status:               string(order.Status),
		PaymentStatus:        string(order.PaymentStatus),
		PaymentMethod:        string(order.PaymentMethod),
		ShippingAddress:      order.Shipping.Address,
		ShippingCity:         order.Shipping.City,
		ShippingPostalCode:   order.Shipping.PostalCode,
		ShippingCountry:      order.Shipping.Country,
		Phone:                order.Shipping.Phone,
		DeliveryInstructions: order.Shipping.DeliveryInstructions,
		CancellationReason:   order.CancellationReason,
		ConfirmedAt:          order.ConfirmedAt,
		ShippedAt:            order.ShippedAt,
		DeliveredAt:          order.DeliveredAt,
		CancelledAt:          order.CancelledAt,
		RefundedAt:           order.RefundedAt,
		CreatedAt:            order.CreatedAt,
		UpdatedAt:            order.UpdatedAt,
	}
}

// ToTimelineResponse converts the tracking milestones
func ToTimelineResponse(steps []trade.TimelineStep) []TimelineStepResponse {
	out := make([]TimelineStepResponse, len(steps))
	for i, s := range steps {
		out[i] = TimelineStepResponse{
			Status:    string(s.Status),
			Label:     s.Label,
			Completed: s.Completed,
			Date:      s.At,
		}
	}
	return out
}
