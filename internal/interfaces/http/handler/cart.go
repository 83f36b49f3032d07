package handler

import (
	"context"
	"net/http"

	tradeapp "github.com/gaug1c/ecommerce-backend/internal/application/trade"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CartUseCase is the cart service as seen by the HTTP layer
type CartUseCase interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*tradeapp.CartResponse, error)
	AddItem(ctx context.Context, userID uuid.UUID, req tradeapp.AddCartItemRequest) (*tradeapp.CartResponse, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, req tradeapp.UpdateCartItemRequest) (*tradeapp.CartResponse, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*tradeapp.CartResponse, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	Validate(ctx context.Context, userID uuid.UUID) (*tradeapp.CartValidationResponse, error)
}

// CartHandler handles the shopping cart endpoints
type CartHandler struct {
	BaseHandler
	carts    CartUseCase
	currency string
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts CartUseCase, currency string) *CartHandler {
	return &CartHandler{carts: carts, currency: currency}
}

// Get handles GET /v1/cart
func (h *CartHandler) Get(c *gin.Context) {
	userID, ok := h.CallerID(c)
	if !ok {
		return
	}
	cart, err := h.carts.GetCart(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Money(c, http.StatusOK, "Cart retrieved", cart, h.currency)
}

// AddItem handles POST /v1/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := h.CallerID(c)
	if !ok {
		return
	}
	var req tradeapp.AddCartItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cart, err := h.carts.AddItem(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Money(c, http.StatusOK, "Product added to cart", cart, h.currency)
}

// UpdateItem handles PUT /v1/cart/items/:itemId
func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID, ok := h.CallerID(c)
	if !ok {
		return
	}
	itemID, ok := h.UUIDParam(c, "itemId", "Item not found in cart")
	if !ok {
		return
	}
	var req tradeapp.UpdateCartItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cart, err := h.carts.UpdateItem(c.Request.Context(), userID, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Money(c, http.StatusOK, "Quantity updated", cart, h.currency)
}

// RemoveItem handles DELETE /v1/cart/items/:itemId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := h.CallerID(c)
	if !ok {
		return
	}
	itemID, ok := h.UUIDParam(c, "itemId", "Item not found in cart")
	if !ok {
		return
	}
	cart, err := h.carts.RemoveItem(c.Request.Context(), userID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Money(c, http.StatusOK, "Product removed from cart", cart, h.currency)
}

// Clear handles DELETE /v1/cart/clear
func (h *CartHandler) Clear(c *gin.Context) {
	userID, ok := h.CallerID(c)
	if !ok {
		return
	}
	if err := h.carts.Clear(c.Request.Context(), userID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Cart cleared", nil)
}

// Validate handles POST /v1/cart/validate
func (h *CartHandler) Validate(c *gin.Context) {
	userID, ok := h.CallerID(c)
	if !ok {
		return
	}
	result, err := h.carts.Validate(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	message := "Cart is valid"
	if !result.IsValid {
		message = "Some items in your cart need attention"
	}
	h.Success(c, message, result)
}
