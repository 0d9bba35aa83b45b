package cart

import (
	"context"

	"github.com/angelmondragon/cellar-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByUser(ctx context.Context, userID string) (*models.Cart, error)
	FindByUserWithItems(ctx context.Context, userID string) (*models.Cart, error)
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	EnsureForUser(ctx context.Context, userID string) (*models.Cart, error)
	AddItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int64) error
	FindItemInCart(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	SetItemAmount(ctx context.Context, itemID uuid.UUID, amount int64) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	LoadLines(ctx context.Context, cartID uuid.UUID) ([]Line, error)
	UpdateTotals(ctx context.Context, cartID uuid.UUID, totals Totals) error
	DeleteCart(ctx context.Context, cartID uuid.UUID) (int64, error)
}
