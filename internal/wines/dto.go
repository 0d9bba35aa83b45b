package wines

import (
	"time"

	"github.com/angelmondragon/cellar-backend/pkg/db/models"
	"github.com/google/uuid"
)

// WineDTO is the catalog payload returned to clients.
type WineDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Winery      string    `json:"winery"`
	Type        string    `json:"type"`
	Varietal    string    `json:"varietal,omitempty"`
	Country     string    `json:"country,omitempty"`
	Region      string    `json:"region,omitempty"`
	Vintage     *int      `json:"vintage,omitempty"`
	PriceCents  int64     `json:"price_cents"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RatingSummary aggregates the reviews of a wine.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// WineDetail is a wine plus its rating summary.
type WineDetail struct {
	WineDTO
	Rating RatingSummary `json:"rating"`
}

// FromModel maps a wine row to its payload.
func FromModel(w models.Wine) WineDTO {
	return WineDTO{
		ID:          w.ID,
		Name:        w.Name,
		Winery:      w.Winery,
		Type:        w.Type.String(),
		Varietal:    w.Varietal,
		Country:     w.Country,
		Region:      w.Region,
		Vintage:     w.Vintage,
		PriceCents:  w.PriceCents,
		Description: w.Description,
		ImageURL:    w.ImageURL,
		CreatedAt:   w.CreatedAt,
	}
}
