package cart

import (
	"github.com/angelmondragon/cellar-backend/pkg/db/models"
	"github.com/google/uuid"
)

// CartView is the API representation of a cart.
type CartView struct {
	ID     *uuid.UUID `json:"id,omitempty"`
	UserID string     `json:"user_id"`
	Totals
	Items []ItemView `json:"items"`
}

// ItemView is one rendered cart line.
type ItemView struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	Amount         int64     `json:"amount"`
	Name           string    `json:"name"`
	Winery         string    `json:"winery"`
	ImageURL       string    `json:"image_url,omitempty"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	LineTotalCents int64     `json:"line_total_cents"`
}

func emptyView(userID string) *CartView {
	return &CartView{UserID: userID, Items: []ItemView{}}
}

func toView(c *models.Cart) *CartView {
	id := c.ID
	view := &CartView{
		ID:     &id,
		UserID: c.UserID,
		Totals: Totals{
			ItemCount:  c.NumItemsInCart,
			Subtotal:   c.CartTotalCents,
			Tax:        c.TaxCents,
			Shipping:   c.ShippingCents,
			OrderTotal: c.OrderTotalCents,
		},
		Items: make([]ItemView, 0, len(c.Items)),
	}
	for _, item := range c.Items {
		line := ItemView{
			ID:        item.ID,
			ProductID: item.ProductID,
			Amount:    item.Amount,
		}
		if item.Wine != nil {
			line.Name = item.Wine.Name
			line.Winery = item.Wine.Winery
			line.ImageURL = item.Wine.ImageURL
			line.UnitPriceCents = item.Wine.PriceCents
			line.LineTotalCents = item.Wine.PriceCents * item.Amount
		}
		view.Items = append(view.Items, line)
	}
	return view
}
