package persistence

import (
	"context"
	"testing"

	"github.com/gaug1c/ecommerce-backend/internal/domain/catalog"
	"github.com/gaug1c/ecommerce-backend/internal/domain/shared"
	"github.com/gaug1c/ecommerce-backend/internal/domain/trade"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens a migrated in-memory SQLite database. A single connection
// keeps the schema alive and makes transactions run one at a time.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(sqlite.Open(":memory:"), Options{LogLevel: "silent"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price int64, stock int) *catalog.Product {
	t.Helper()

	p := &catalog.Product{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Price:      decimal.NewFromInt(price),
		Stock:      stock,
		IsActive:   true,
	}
	require.NoError(t, db.Create(models.ProductModelFromDomain(p)).Error)
	return p
}

func stockOf(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()

	var model models.ProductModel
	require.NoError(t, db.First(&model, "id = ?", id).Error)
	return model.Stock
}

// seedCart fills userID's cart with qty units of each product
func seedCart(t *testing.T, db *gorm.DB, userID uuid.UUID, qty int, products ...*catalog.Product) *trade.Cart {
	t.Helper()
	ctx := context.Background()
	repo := NewGormCartRepository(db)

	cart, err := repo.GetOrCreate(ctx, userID)
	require.NoError(t, err)
	for _, p := range products {
		item, err := trade.NewCartItem(cart.ID, p.ID, qty)
		require.NoError(t, err)
		require.NoError(t, repo.SaveItem(ctx, item))
	}
	cart, err = repo.FindByUserID(ctx, userID)
	require.NoError(t, err)
	return cart
}

// seedOrder stores a pending order for userID with one line of product
func seedOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, product *catalog.Product, qty int) *trade.Order {
	t.Helper()

	item, err := trade.NewCartItem(uuid.New(), product.ID, qty)
	require.NoError(t, err)
	quote, err := trade.PriceCart([]trade.CartItem{*item}, catalog.IndexByID([]catalog.Product{*product}))
	require.NoError(t, err)
	quote.ShipTo("Libreville")

	order, err := trade.NewOrder(userID, trade.NewOrderNumber(product.CreatedAt), trade.PaymentMethodMobileMoney,
		trade.ShippingInfo{Address: "Quartier Louis", City: "Libreville", Phone: "+24106123456"}, quote)
	require.NoError(t, err)
	require.NoError(t, NewGormOrderRepository(db).Create(context.Background(), order))
	return order
}
