package orders

import (
	"time"

	"github.com/angelmondragon/cellar-backend/pkg/db/models"
	"github.com/google/uuid"
)

// OrderDTO is the order payload returned to clients.
type OrderDTO struct {
	ID            uuid.UUID  `json:"id"`
	CartID        uuid.UUID  `json:"cart_id"`
	SubtotalCents int64      `json:"subtotal_cents"`
	TaxCents      int64      `json:"tax_cents"`
	ShippingCents int64      `json:"shipping_cents"`
	TotalCents    int64      `json:"total_cents"`
	Paid          bool       `json:"paid"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// FromModel maps an order row to its payload.
func FromModel(o models.Order) OrderDTO {
	return OrderDTO{
		ID:            o.ID,
		CartID:        o.CartID,
		SubtotalCents: o.SubtotalCents,
		TaxCents:      o.TaxCents,
		ShippingCents: o.ShippingCents,
		TotalCents:    o.TotalCents,
		Paid:          o.Paid,
		PaidAt:        o.PaidAt,
		CreatedAt:     o.CreatedAt,
	}
}
