package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is a user's rating of a wine. One review per (wine, user).
type Review struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	WineID    uuid.UUID `gorm:"column:wine_id;type:uuid;not null;uniqueIndex:ux_reviews_wine_user"`
	UserID    string    `gorm:"column:user_id;not null;uniqueIndex:ux_reviews_wine_user"`
	Rating    int       `gorm:"column:rating;not null"`
	Comment   string    `gorm:"column:comment"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
