package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/gaug1c/ecommerce-backend/internal/domain/shared"
	"github.com/gaug1c/ecommerce-backend/internal/domain/trade"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrderRepository implements trade.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) first(ctx context.Context, query string, args ...any) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, product_name ASC")
		}).
		Where(query, args...).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByIDForUser finds an order owned by userID
func (r *GormOrderRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*trade.Order, error) {
	return r.first(ctx, "id = ? AND user_id = ?", id, userID)
}

// FindByOrderNumber finds an order owned by userID by its number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, userID uuid.UUID, orderNumber string) (*trade.Order, error) {
	return r.first(ctx, "order_number = ? AND user_id = ?", orderNumber, userID)
}

// FindForUser lists a user's orders, newest first, with the total count
func (r *GormOrderRepository) FindForUser(ctx context.Context, userID uuid.UUID, filter trade.OrderFilter) ([]trade.Order, int64, error) {
	paging := filter.Filter.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Scopes(orderFilterScope(userID, filter)).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.OrderModel
	if err := r.db.WithContext(ctx).
		Scopes(orderFilterScope(userID, filter)).
		Preload("Items").
		Order("created_at DESC").
		Offset(paging.Offset()).
		Limit(paging.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]trade.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, total, nil
}

func orderFilterScope(userID uuid.UUID, filter trade.OrderFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", userID)
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if filter.FromDate != nil {
			db = db.Where("created_at >= ?", *filter.FromDate)
		}
		if filter.ToDate != nil {
			db = db.Where("created_at <= ?", *filter.ToDate)
		}
		return db
	}
}

// Create inserts a new order together with its items
func (r *GormOrderRepository) Create(ctx context.Context, order *trade.Order) error {
	model := models.OrderModelFromDomain(order)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError("ALREADY_EXISTS", "Order number already exists")
		}
		return err
	}
	return nil
}

// SaveWithLock saves the order header with optimistic locking (version check).
// Items are immutable once the order is created.
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, order *trade.Order) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]any{
			"status":              order.Status,
			"payment_status":      order.PaymentStatus,
			"confirmed_at":        order.ConfirmedAt,
			"processing_at":       order.ProcessingAt,
			"shipped_at":          order.ShippedAt,
			"delivered_at":        order.DeliveredAt,
			"cancelled_at":        order.CancelledAt,
			"refunded_at":         order.RefundedAt,
			"cancellation_reason": order.CancellationReason,
			"version":             order.Version + 1,
			"updated_at":          now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	order.IncrementVersion()
	order.UpdatedAt = now
	return nil
}

// Ensure GormOrderRepository implements OrderRepository
var _ trade.OrderRepository = (*GormOrderRepository)(nil)
