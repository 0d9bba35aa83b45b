package wines

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/angelmondragon/cellar-backend/pkg/errors"
	"github.com/angelmondragon/cellar-backend/pkg/pagination"
	"github.com/angelmondragon/cellar-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ratingSource interface {
	Summary(ctx context.Context, wineID uuid.UUID) (float64, int64, error)
}

// Service exposes catalog browsing.
type Service interface {
	List(ctx context.Context, input ListInput) (*types.OffsetPage[WineDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*WineDetail, error)
}

type service struct {
	repo    *Repository
	ratings ratingSource
}

// NewService builds the catalog service.
func NewService(repo *Repository, ratings ratingSource) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wine repository required")
	}
	if ratings == nil {
		return nil, fmt.Errorf("rating source required")
	}
	return &service{repo: repo, ratings: ratings}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*types.OffsetPage[WineDTO], error) {
	f := input.Filters
	if f.Type != nil && !f.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid wine type %q", *f.Type))
	}
	if (f.PriceMinCents != nil && *f.PriceMinCents < 0) || (f.PriceMaxCents != nil && *f.PriceMaxCents < 0) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price bounds must be non-negative")
	}
	if f.PriceMinCents != nil && f.PriceMaxCents != nil && *f.PriceMinCents > *f.PriceMaxCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price_min_cents must not exceed price_max_cents")
	}
	if input.Sort != "" && !input.Sort.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid sort %q", input.Sort))
	}

	page := pagination.NormalizePage(input.Page, input.Limit)
	rows, total, err := s.repo.List(ctx, f, input.Sort, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wines")
	}

	items := make([]WineDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, FromModel(row))
	}
	return &types.OffsetPage[WineDTO]{
		Items:      items,
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      total,
		TotalPages: page.TotalPages(total),
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*WineDetail, error) {
	wine, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wine not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wine")
	}

	avg, count, err := s.ratings.Summary(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rating summary")
	}

	rounded, _ := decimal.NewFromFloat(avg).Round(2).Float64()
	return &WineDetail{
		WineDTO: FromModel(*wine),
		Rating:  RatingSummary{Average: rounded, Count: count},
	}, nil
}
