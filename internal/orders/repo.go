package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/cellar-backend/pkg/db/models"
	"github.com/angelmondragon/cellar-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists orders.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts an order.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads an order regardless of owner.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDForUser loads an order owned by userID.
func (r *Repository) FindByIDForUser(ctx context.Context, id uuid.UUID, userID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindPendingForCart returns the newest unpaid order created from cartID.
func (r *Repository) FindPendingForCart(ctx context.Context, userID string, cartID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND cart_id = ? AND paid = ?", userID, cartID, false).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SetCheckoutSession records the provider session created for the order and
// when it was opened.
func (r *Repository) SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string, startedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{"checkout_session_id": sessionID, "checkout_started_at": startedAt})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkPaid flips an unpaid order to paid and returns the rows changed; an
// already-paid order yields 0.
func (r *Repository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND paid = ?", id, false).
		Updates(map[string]any{"paid": true, "paid_at": paidAt})
	return res.RowsAffected, res.Error
}

// ListByUser returns orders newest first, with one buffered row.
func (r *Repository) ListByUser(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	var rows []models.Order
	qb := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if err := pagination.ApplyNewestFirst(qb, "", cursor, limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteUnpaidBefore removes unpaid orders whose last checkout session (or
// creation, when none was opened) is older than cutoff.
func (r *Repository) DeleteUnpaidBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("paid = ? AND COALESCE(checkout_started_at, created_at) < ?", false, cutoff).
		Delete(&models.Order{})
	return res.RowsAffected, res.Error
}
