package favorites

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/cellar-backend/internal/wines"
	"github.com/angelmondragon/cellar-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cellar-backend/pkg/errors"
	"github.com/angelmondragon/cellar-backend/pkg/pagination"
	"github.com/angelmondragon/cellar-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type wineLookup interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Wine, error)
}

// FavoriteDTO is one favorite with its wine.
type FavoriteDTO struct {
	WineID    uuid.UUID      `json:"wine_id"`
	Wine      *wines.WineDTO `json:"wine,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Service manages a user's favorites.
type Service interface {
	Add(ctx context.Context, userID string, wineID uuid.UUID) error
	Remove(ctx context.Context, userID string, wineID uuid.UUID) error
	List(ctx context.Context, userID string, params pagination.Params) (*types.CursorPage[FavoriteDTO], error)
}

type service struct {
	repo  *Repository
	wines wineLookup
}

// NewService builds the favorites service.
func NewService(repo *Repository, wineRepo wineLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("favorites repository required")
	}
	if wineRepo == nil {
		return nil, fmt.Errorf("wine lookup required")
	}
	return &service{repo: repo, wines: wineRepo}, nil
}

func (s *service) Add(ctx context.Context, userID string, wineID uuid.UUID) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to save favorites")
	}
	if _, err := s.wines.FindActiveByID(ctx, wineID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "wine not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wine")
	}
	if err := s.repo.Add(ctx, userID, wineID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add favorite")
	}
	return nil
}

// Remove is idempotent: removing a wine that is not a favorite succeeds.
func (s *service) Remove(ctx context.Context, userID string, wineID uuid.UUID) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to manage favorites")
	}
	if _, err := s.repo.Remove(ctx, userID, wineID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove favorite")
	}
	return nil
}

func (s *service) List(ctx context.Context, userID string, params pagination.Params) (*types.CursorPage[FavoriteDTO], error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to view favorites")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.ListByUser(ctx, userID, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list favorites")
	}
	rows, next := pagination.Trim(rows, params.Limit, func(f models.Favorite) pagination.Cursor {
		return pagination.Cursor{CreatedAt: f.CreatedAt, ID: f.ID}
	})

	items := make([]FavoriteDTO, 0, len(rows))
	for _, row := range rows {
		item := FavoriteDTO{WineID: row.WineID, CreatedAt: row.CreatedAt}
		if row.Wine != nil {
			dto := wines.FromModel(*row.Wine)
			item.Wine = &dto
		}
		items = append(items, item)
	}
	return &types.CursorPage[FavoriteDTO]{Items: items, NextCursor: next}, nil
}
