package wines

import (
	"github.com/angelmondragon/cellar-backend/pkg/enums"
)

// ListFilters describe the supported filter knobs for the catalog.
type ListFilters struct {
	Type          *enums.WineType `json:"type,omitempty"`
	Country       string          `json:"country,omitempty"`
	Region        string          `json:"region,omitempty"`
	Varietal      string          `json:"varietal,omitempty"`
	PriceMinCents *int64          `json:"price_min_cents,omitempty"`
	PriceMaxCents *int64          `json:"price_max_cents,omitempty"`
	Query         string          `json:"q,omitempty"`
}

// ListInput captures the inputs needed to filter, sort and page wines.
type ListInput struct {
	Filters ListFilters
	Sort    enums.WineSort
	Page    int
	Limit   int
}
