package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/gaug1c/ecommerce-backend/internal/domain/finance"
	"github.com/gaug1c/ecommerce-backend/internal/domain/shared"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentRepository implements finance.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) first(db *gorm.DB) (*finance.Payment, error) {
	var model models.PaymentModel
	if err := db.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Payment, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByOrderID finds the payment of an order
func (r *GormPaymentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*finance.Payment, error) {
	return r.first(r.db.WithContext(ctx).Where("order_id = ?", orderID))
}

// FindByReference resolves a payment from a gateway notification. Either
// identifier may be our internal reference or the gateway's own id, so both
// columns are matched against every non-empty value. Identifiers that
// resolve to two different payments are rejected.
func (r *GormPaymentRepository) FindByReference(ctx context.Context, reference, providerReference string) (*finance.Payment, error) {
	refs := make([]string, 0, 2)
	for _, ref := range []string{reference, providerReference} {
		if ref != "" {
			refs = append(refs, ref)
		}
	}
	if len(refs) == 0 {
		return nil, shared.ErrNotFound
	}
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("transaction_id IN ? OR provider_reference IN ?", refs, refs).
		Limit(2).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, shared.ErrNotFound
	case 1:
		return rows[0].ToDomain(), nil
	default:
		return nil, finance.ErrPaymentReferenceMismatch
	}
}

// ExistsForOrder reports whether any payment row exists for the order
func (r *GormPaymentRepository) ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("order_id = ?", orderID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a payment. The unique index on order_id turns a concurrent
// second initiation into ErrDuplicatePayment.
func (r *GormPaymentRepository) Create(ctx context.Context, payment *finance.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return finance.ErrDuplicatePayment
		}
		return err
	}
	return nil
}

// SaveWithLock saves the payment with optimistic locking (version check)
func (r *GormPaymentRepository) SaveWithLock(ctx context.Context, payment *finance.Payment) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("id = ? AND version = ?", payment.ID, payment.Version).
		Updates(map[string]any{
			"status":             payment.Status,
			"provider_reference": payment.ProviderReference,
			"payment_details":    payment.PaymentDetails,
			"refunded_at":        payment.RefundedAt,
			"refund_reason":      payment.RefundReason,
			"refund_amount":      payment.RefundAmount,
			"version":            payment.Version + 1,
			"updated_at":         now,
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return shared.ErrConcurrencyConflict
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	payment.IncrementVersion()
	payment.UpdatedAt = now
	return nil
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ finance.PaymentRepository = (*GormPaymentRepository)(nil)
