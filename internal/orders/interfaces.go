package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/cellar-backend/pkg/db/models"
	"github.com/angelmondragon/cellar-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderRepository defines the persistence surface used by the order and
// checkout services.
type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDForUser(ctx context.Context, id uuid.UUID, userID string) (*models.Order, error)
	FindPendingForCart(ctx context.Context, userID string, cartID uuid.UUID) (*models.Order, error)
	SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string, startedAt time.Time) error
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (int64, error)
	ListByUser(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) ([]models.Order, error)
}
