package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order snapshots cart totals at checkout time. CartID is a reference only;
// the cart is deleted once the order is paid.
type Order struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID            string     `gorm:"column:user_id;not null;index:idx_orders_user_created"`
	CartID            uuid.UUID  `gorm:"column:cart_id;type:uuid;not null"`
	SubtotalCents     int64      `gorm:"column:subtotal_cents;not null"`
	TaxCents          int64      `gorm:"column:tax_cents;not null"`
	ShippingCents     int64      `gorm:"column:shipping_cents;not null"`
	TotalCents        int64      `gorm:"column:total_cents;not null"`
	Paid              bool       `gorm:"column:paid;not null"`
	PaidAt            *time.Time `gorm:"column:paid_at"`
	CheckoutSessionID *string    `gorm:"column:checkout_session_id;index:idx_orders_checkout_session"`
	CheckoutStartedAt *time.Time `gorm:"column:checkout_started_at"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime;index:idx_orders_user_created"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
