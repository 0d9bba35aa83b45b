package favorites

import (
	"context"

	"github.com/angelmondragon/cellar-backend/pkg/db/models"
	"github.com/angelmondragon/cellar-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists a user's favorite wines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a favorites repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add inserts the favorite, ignoring duplicates.
func (r *Repository) Add(ctx context.Context, userID string, wineID uuid.UUID) error {
	fav := &models.Favorite{UserID: userID, WineID: wineID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "wine_id"}},
			DoNothing: true,
		}).
		Create(fav).Error
}

// Remove deletes the favorite and reports how many rows were removed.
func (r *Repository) Remove(ctx context.Context, userID string, wineID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND wine_id = ?", userID, wineID).
		Delete(&models.Favorite{})
	return res.RowsAffected, res.Error
}

// ListByUser returns favorites newest first with their wines, with one buffered row.
func (r *Repository) ListByUser(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) ([]models.Favorite, error) {
	var rows []models.Favorite
	qb := r.db.WithContext(ctx).Preload("Wine").Where("user_id = ?", userID)
	if err := pagination.ApplyNewestFirst(qb, "", cursor, limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
