package handler

import (
	"context"
	"net/http"

	tradeapp "github.com/gaug1c/ecommerce-backend/internal/application/trade"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CheckoutUseCase turns a cart into an order
type CheckoutUseCase interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, req tradeapp.PlaceOrderRequest) (*tradeapp.OrderResponse, error)
}

// OrderUseCase reads and cancels a customer's orders
type OrderUseCase interface {
	ListOrders(ctx context.Context, userID uuid.UUID, filter tradeapp.OrderListFilter) (*tradeapp.OrderListResponse, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*tradeapp.OrderResponse, error)
	TrackOrder(ctx context.Context, userID uuid.UUID, orderNumber string) (*tradeapp.OrderTrackingResponse, error)
	CancelOrder(ctx context.Context, userID, orderID uuid.UUID, req tradeapp.CancelOrderRequest) (*tradeapp.OrderResponse, error)
}

// OrderHandler handles checkout and order history endpoints
type OrderHandler struct {
	BaseHandler
	checkout CheckoutUseCase
	orders   OrderUseCase
	currency string
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(checkout CheckoutUseCase, orders OrderUseCase, currency string) *OrderHandler {
	return &OrderHandler{checkout: checkout, orders: orders, currency: currency}
}

// Create handles POST /v1/orders
func (h *OrderHandler) Create(c *gin.Context) {
	userID, ok := h.CallerID(c)
	if !ok {
		return
	}
	var req tradeapp.PlaceOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	order, err := h.checkout.PlaceOrder(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Money(c, http.StatusCreated, "Order created", order, h.currency)
}

// List handles GET /v1/orders
func (h *OrderHandler) List(c *gin.Context) {
	userID, ok := h.CallerID(c)
	if !ok {
		return
	}
	var filter tradeapp.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}
	list, err := h.orders.ListOrders(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Money(c, http.StatusOK, "Orders retrieved", list, h.currency)
}

// Get handles GET /v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	userID, ok := h.CallerID(c)
	if !ok {
		return
	}
	orderID, ok := h.UUIDParam(c, "id", "Order not found")
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Money(c, http.StatusOK, "Order retrieved", order, h.currency)
}

// Track handles GET /v1/orders/track/:orderNumber
func (h *OrderHandler) Track(c *gin.Context) {
	userID, ok := h.CallerID(c)
	if !ok {
		return
	}
	tracking, err := h.orders.TrackOrder(c.Request.Context(), userID, c.Param("orderNumber"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Order tracking retrieved", tracking)
}

// Cancel handles POST /v1/orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	userID, ok := h.CallerID(c)
	if !ok {
		return
	}
	orderID, ok := h.UUIDParam(c, "id", "Order not found")
	if !ok {
		return
	}
	var req tradeapp.CancelOrderRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	order, err := h.orders.CancelOrder(c.Request.Context(), userID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Money(c, http.StatusOK, "Order cancelled", order, h.currency)
}
