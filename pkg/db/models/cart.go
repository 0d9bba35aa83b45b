package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cart is the per-user shopping cart. The cached totals are only written by
// the cart recalculator.
type Cart struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID          string     `gorm:"column:user_id;not null;uniqueIndex:ux_carts_user"`
	NumItemsInCart  int64      `gorm:"column:num_items_in_cart;not null"`
	CartTotalCents  int64      `gorm:"column:cart_total_cents;not null"`
	TaxCents        int64      `gorm:"column:tax_cents;not null"`
	ShippingCents   int64      `gorm:"column:shipping_cents;not null"`
	OrderTotalCents int64      `gorm:"column:order_total_cents;not null"`
	Items           []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
