package cart

import (
	"context"

	"github.com/angelmondragon/cellar-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes persistence operations for carts and their lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByUser loads the user's cart without its lines.
func (r *Repository) FindByUser(ctx context.Context, userID string) (*models.Cart, error) {
	var c models.Cart
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByUserWithItems loads the user's cart with lines and wines.
func (r *Repository) FindByUserWithItems(ctx context.Context, userID string) (*models.Cart, error) {
	var c models.Cart
	err := withItems(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByIDWithItems loads a cart by id with lines and wines.
func (r *Repository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var c models.Cart
	if err := withItems(r.db.WithContext(ctx)).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// EnsureForUser returns the user's cart, creating it when absent. Concurrent
// callers converge on the single row guarded by the user_id unique index.
func (r *Repository) EnsureForUser(ctx context.Context, userID string) (*models.Cart, error) {
	candidate := &models.Cart{UserID: userID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(candidate).Error
	if err != nil {
		return nil, err
	}
	return r.FindByUser(ctx, userID)
}

// AddItemQuantity inserts the line or increments its amount in one statement.
func (r *Repository) AddItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int64) error {
	item := &models.CartItem{CartID: cartID, ProductID: productID, Amount: quantity}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"amount":     gorm.Expr("cart_items.amount + excluded.amount"),
				"updated_at": gorm.Expr("excluded.updated_at"),
			}),
		}).
		Create(item).Error
}

// FindItemInCart returns the item only when it belongs to cartID.
func (r *Repository) FindItemInCart(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SetItemAmount overwrites the line quantity.
func (r *Repository) SetItemAmount(ctx context.Context, itemID uuid.UUID, amount int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("amount", amount)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteItem removes a single line.
func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", itemID).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// LoadLines returns each line's amount with the wine's current price.
func (r *Repository) LoadLines(ctx context.Context, cartID uuid.UUID) ([]Line, error) {
	var lines []Line
	err := r.db.WithContext(ctx).
		Table("cart_items").
		Select("cart_items.amount AS amount, wines.price_cents AS unit_price_cents").
		Joins("JOIN wines ON wines.id = cart_items.product_id").
		Where("cart_items.cart_id = ?", cartID).
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// UpdateTotals writes the cached aggregates. It is the only writer of those
// columns.
func (r *Repository) UpdateTotals(ctx context.Context, cartID uuid.UUID, totals Totals) error {
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]any{
			"num_items_in_cart": totals.ItemCount,
			"cart_total_cents":  totals.Subtotal,
			"tax_cents":         totals.Tax,
			"shipping_cents":    totals.Shipping,
			"order_total_cents": totals.OrderTotal,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteCart removes the cart and its lines, returning the number of carts
// deleted (0 when it was already gone).
func (r *Repository) DeleteCart(ctx context.Context, cartID uuid.UUID) (int64, error) {
	if err := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).Where("id = ?", cartID).Delete(&models.Cart{})
	return res.RowsAffected, res.Error
}

func withItems(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.created_at ASC").Order("cart_items.id ASC")
		}).
		Preload("Items.Wine")
}
