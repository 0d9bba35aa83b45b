package wines

import (
	"context"
	"strings"

	"github.com/angelmondragon/cellar-backend/pkg/db/models"
	"github.com/angelmondragon/cellar-backend/pkg/enums"
	"github.com/angelmondragon/cellar-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads the wine catalog.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wine repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a wine.
func (r *Repository) Create(ctx context.Context, wine *models.Wine) error {
	return r.db.WithContext(ctx).Create(wine).Error
}

// FindActiveByID returns a listed wine, or gorm.ErrRecordNotFound.
func (r *Repository) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Wine, error) {
	var wine models.Wine
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&wine).Error
	if err != nil {
		return nil, err
	}
	return &wine, nil
}

// List returns one page of active wines plus the total match count.
func (r *Repository) List(ctx context.Context, filters ListFilters, sort enums.WineSort, page pagination.Page) ([]models.Wine, int64, error) {
	qb := applyFilters(r.db.WithContext(ctx).Model(&models.Wine{}), filters).Session(&gorm.Session{})

	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Wine
	err := applySort(qb, sort).
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func applyFilters(qb *gorm.DB, f ListFilters) *gorm.DB {
	qb = qb.Where("is_active = ?", true)
	if f.Type != nil {
		qb = qb.Where("type = ?", *f.Type)
	}
	if v := strings.TrimSpace(f.Country); v != "" {
		qb = qb.Where("LOWER(country) = ?", strings.ToLower(v))
	}
	if v := strings.TrimSpace(f.Region); v != "" {
		qb = qb.Where("LOWER(region) = ?", strings.ToLower(v))
	}
	if v := strings.TrimSpace(f.Varietal); v != "" {
		qb = qb.Where("LOWER(varietal) = ?", strings.ToLower(v))
	}
	if f.PriceMinCents != nil {
		qb = qb.Where("price_cents >= ?", *f.PriceMinCents)
	}
	if f.PriceMaxCents != nil {
		qb = qb.Where("price_cents <= ?", *f.PriceMaxCents)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		qb = qb.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(winery) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return qb
}

func applySort(qb *gorm.DB, sort enums.WineSort) *gorm.DB {
	switch sort {
	case enums.WineSortPriceAsc:
		return qb.Order("price_cents ASC").Order("id ASC")
	case enums.WineSortPriceDesc:
		return qb.Order("price_cents DESC").Order("id ASC")
	case enums.WineSortName:
		return qb.Order("LOWER(name) ASC").Order("id ASC")
	default:
		return qb.Order("created_at DESC").Order("id DESC")
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
