package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Favorite links a user to a liked wine.
type Favorite struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    string    `gorm:"column:user_id;not null;uniqueIndex:ux_favorites_user_wine"`
	WineID    uuid.UUID `gorm:"column:wine_id;type:uuid;not null;uniqueIndex:ux_favorites_user_wine"`
	Wine      *Wine     `gorm:"foreignKey:WineID;references:ID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (f *Favorite) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
