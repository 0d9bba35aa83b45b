package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/cellar-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cellar-backend/pkg/errors"
	"github.com/angelmondragon/cellar-backend/pkg/pagination"
	"github.com/angelmondragon/cellar-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 2000
)

type wineLookup interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Wine, error)
}

// ReviewDTO is the review payload returned to clients.
type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	WineID    uuid.UUID `json:"wine_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service exposes wine reviews.
type Service interface {
	Upsert(ctx context.Context, userID string, wineID uuid.UUID, rating int, comment string) (*ReviewDTO, error)
	List(ctx context.Context, wineID uuid.UUID, params pagination.Params) (*types.CursorPage[ReviewDTO], error)
	Summary(ctx context.Context, wineID uuid.UUID) (float64, int64, error)
}

type service struct {
	repo  *Repository
	wines wineLookup
}

// NewService builds the review service.
func NewService(repo *Repository, wines wineLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if wines == nil {
		return nil, fmt.Errorf("wine lookup required")
	}
	return &service{repo: repo, wines: wines}, nil
}

func (s *service) Upsert(ctx context.Context, userID string, wineID uuid.UUID, rating int, comment string) (*ReviewDTO, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to review wines")
	}
	if rating < MinRating || rating > MaxRating {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("comment must be at most %d characters", MaxCommentLength))
	}
	if err := s.ensureWine(ctx, wineID); err != nil {
		return nil, err
	}

	review := &models.Review{WineID: wineID, UserID: userID, Rating: rating, Comment: comment}
	if err := s.repo.Upsert(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save review")
	}

	saved, err := s.repo.FindByWineAndUser(ctx, wineID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload review")
	}
	dto := toDTO(*saved)
	return &dto, nil
}

func (s *service) List(ctx context.Context, wineID uuid.UUID, params pagination.Params) (*types.CursorPage[ReviewDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if err := s.ensureWine(ctx, wineID); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByWine(ctx, wineID, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	rows, next := pagination.Trim(rows, params.Limit, func(r models.Review) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})

	items := make([]ReviewDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toDTO(row))
	}
	return &types.CursorPage[ReviewDTO]{Items: items, NextCursor: next}, nil
}

func (s *service) Summary(ctx context.Context, wineID uuid.UUID) (float64, int64, error) {
	return s.repo.Summary(ctx, wineID)
}

func (s *service) ensureWine(ctx context.Context, wineID uuid.UUID) error {
	if _, err := s.wines.FindActiveByID(ctx, wineID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "wine not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wine")
	}
	return nil
}

func toDTO(r models.Review) ReviewDTO {
	return ReviewDTO{
		ID:        r.ID,
		WineID:    r.WineID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
