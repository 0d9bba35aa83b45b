package reviews

import (
	"context"

	"github.com/angelmondragon/cellar-backend/pkg/db/models"
	"github.com/angelmondragon/cellar-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists wine reviews.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a review repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert writes the reviewer's review, replacing rating and comment when one
// already exists for the wine.
func (r *Repository) Upsert(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wine_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
		}).
		Create(review).Error
}

// FindByWineAndUser loads a single reviewer's review.
func (r *Repository) FindByWineAndUser(ctx context.Context, wineID uuid.UUID, userID string) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("wine_id = ? AND user_id = ?", wineID, userID).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ListByWine returns reviews newest first, with one buffered row.
func (r *Repository) ListByWine(ctx context.Context, wineID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Review, error) {
	var rows []models.Review
	qb := r.db.WithContext(ctx).Where("wine_id = ?", wineID)
	if err := pagination.ApplyNewestFirst(qb, "", cursor, limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type summaryRow struct {
	Average float64
	Count   int64
}

// Summary returns the average rating and review count of a wine.
func (r *Repository) Summary(ctx context.Context, wineID uuid.UUID) (float64, int64, error) {
	var row summaryRow
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("wine_id = ?", wineID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Average, row.Count, nil
}
