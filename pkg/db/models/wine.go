package models

import (
	"time"

	"github.com/angelmondragon/cellar-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Wine is a catalog product. Prices are integer cents.
type Wine struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name        string         `gorm:"column:name;not null"`
	Winery      string         `gorm:"column:winery;not null"`
	Type        enums.WineType `gorm:"column:type;not null;index:idx_wines_type"`
	Varietal    string         `gorm:"column:varietal"`
	Country     string         `gorm:"column:country;index:idx_wines_country"`
	Region      string         `gorm:"column:region"`
	Vintage     *int           `gorm:"column:vintage"`
	PriceCents  int64          `gorm:"column:price_cents;not null"`
	Description string         `gorm:"column:description"`
	ImageURL    string         `gorm:"column:image_url"`
	IsActive    bool           `gorm:"column:is_active;not null;index:idx_wines_is_active"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (w *Wine) BeforeCreate(*gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
