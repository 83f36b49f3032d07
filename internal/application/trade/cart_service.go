package trade

import (
	"context"
	"errors"

	"github.com/gaug1c/ecommerce-backend/internal/domain/catalog"
	"github.com/gaug1c/ecommerce-backend/internal/domain/shared"
	"github.com/gaug1c/ecommerce-backend/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrProductNotFound is returned when a cart operation names an unknown product
var ErrProductNotFound = shared.NewDomainError("NOT_FOUND", "Product not found")

// CartService manages the customer's cart. It never touches stock; stock is
// only checked here and reserved at checkout.
type CartService struct {
	cartRepo    trade.CartRepository
	productRepo catalog.ProductRepository
	logger      *zap.Logger
}

// NewCartService creates a new CartService
func NewCartService(cartRepo trade.CartRepository, productRepo catalog.ProductRepository, logger *zap.Logger) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// GetCart returns the user's cart, creating it on first access
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// AddItem puts qty units of a product in the cart, merging with an existing line
func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, req AddCartItemRequest) (*CartResponse, error) {
	product, err := s.loadProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	item := cart.GetItemByProduct(product.ID)
	requested := req.Quantity
	if item != nil {
		requested += item.Quantity
	}
	if !product.CanFulfil(requested) {
		return nil, trade.NewInsufficientStockError(product.ID, product.Name, requested, product.Stock)
	}

	if item != nil {
		if err := item.SetQuantity(requested); err != nil {
			return nil, err
		}
	} else {
		item, err = trade.NewCartItem(cart.ID, product.ID, req.Quantity)
		if err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, *item)
	}

	if err := s.cartRepo.SaveItem(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Debug("Cart item added",
		zap.String("user_id", userID.String()),
		zap.String("product_id", product.ID.String()),
		zap.Int("quantity", requested))

	return s.GetCart(ctx, userID)
}

// UpdateItem replaces the quantity of one of the user's cart lines
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, req UpdateCartItemRequest) (*CartResponse, error) {
	cart, item, err := s.findItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	product, err := s.loadProduct(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.CanFulfil(req.Quantity) {
		return nil, trade.NewInsufficientStockError(product.ID, product.Name, req.Quantity, product.Stock)
	}

	if err := item.SetQuantity(req.Quantity); err != nil {
		return nil, err
	}
	if err := s.cartRepo.SaveItem(ctx, item); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, cart.UserID)
}

// RemoveItem deletes one of the user's cart lines
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartResponse, error) {
	cart, item, err := s.findItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.DeleteItem(ctx, cart.ID, item.ID); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// Clear empties the user's cart
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.cartRepo.Clear(ctx, cart.ID)
}

// Validate reports every line that could not be checked out right now.
// Nothing is modified.
func (s *CartService) Validate(ctx context.Context, userID uuid.UUID) (*CartValidationResponse, error) {
	cart, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if cart.IsEmpty() {
		return &CartValidationResponse{
			IsValid: false,
			Issues:  []CartIssue{{Issue: trade.ErrEmptyCart.Message}},
		}, nil
	}

	products, err := s.products(ctx, cart)
	if err != nil {
		return nil, err
	}

	issues := make([]CartIssue, 0)
	for _, item := range cart.Items {
		p, ok := products[item.ProductID]
		switch {
		case !ok:
			issues = append(issues, CartIssue{ItemID: item.ID, ProductID: item.ProductID, Issue: "Product no longer exists"})
		case !p.IsActive:
			issues = append(issues, CartIssue{ItemID: item.ID, ProductID: p.ID, Product: p.Name, Issue: "Product is no longer available"})
		case !p.CanFulfil(item.Quantity):
			issues = append(issues, CartIssue{
				ItemID:    item.ID,
				ProductID: p.ID,
				Product:   p.Name,
				Issue:     "Insufficient stock",
				Requested: item.Quantity,
				Available: p.Stock,
			})
		}
	}

	return &CartValidationResponse{IsValid: len(issues) == 0, Issues: issues}, nil
}

func (s *CartService) findItem(ctx context.Context, userID, itemID uuid.UUID) (*trade.Cart, *trade.CartItem, error) {
	cart, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, trade.ErrCartItemNotFound
		}
		return nil, nil, err
	}
	item := cart.GetItem(itemID)
	if item == nil {
		return nil, nil, trade.ErrCartItemNotFound
	}
	return cart, item, nil
}

func (s *CartService) loadProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, trade.ErrProductUnavailable
	}
	return product, nil
}

func (s *CartService) products(ctx context.Context, cart *trade.Cart) (map[uuid.UUID]*catalog.Product, error) {
	if cart.IsEmpty() {
		return map[uuid.UUID]*catalog.Product{}, nil
	}
	list, err := s.productRepo.FindByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, err
	}
	return catalog.IndexByID(list), nil
}

func (s *CartService) view(ctx context.Context, cart *trade.Cart) (*CartResponse, error) {
	products, err := s.products(ctx, cart)
	if err != nil {
		return nil, err
	}
	resp := ToCartResponse(cart, products)
	return &resp, nil
}
