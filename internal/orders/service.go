package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/cellar-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cellar-backend/pkg/errors"
	"github.com/angelmondragon/cellar-backend/pkg/logger"
	"github.com/angelmondragon/cellar-backend/pkg/outcome"
	"github.com/angelmondragon/cellar-backend/pkg/pagination"
	"github.com/angelmondragon/cellar-backend/pkg/types"
	"gorm.io/gorm"
)

const (
	MsgSignIn       = "You must be signed in to place an order"
	MsgCartNotFound = "cart not found"
	MsgCartEmpty    = "cart is empty"
	MsgOrderCreated = "Order created"
)

type cartLoader interface {
	FindByUser(ctx context.Context, userID string) (*models.Cart, error)
}

// Service creates pending orders from carts and lists order history.
type Service interface {
	CreateFromCart(ctx context.Context, userID string) (*OrderDTO, outcome.Outcome)
	List(ctx context.Context, userID string, params pagination.Params) (*types.CursorPage[OrderDTO], error)
}

type service struct {
	repo  OrderRepository
	carts cartLoader
	logg  *logger.Logger
}

// NewService builds the order service.
func NewService(repo OrderRepository, carts cartLoader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart loader required")
	}
	if logg == nil {
		logg = logger.Discard()
	}
	return &service{repo: repo, carts: carts, logg: logg}, nil
}

// CreateFromCart snapshots the caller's cart totals into an unpaid order. A
// pending order whose totals still match the cart is returned instead of
// creating a duplicate.
func (s *service) CreateFromCart(ctx context.Context, userID string) (*OrderDTO, outcome.Outcome) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, outcome.Failure(pkgerrors.CodeUnauthorized, MsgSignIn)
	}
	ctx = s.logg.WithUserID(ctx, userID)

	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, outcome.Failure(pkgerrors.CodeNotFound, MsgCartNotFound)
		}
		return nil, s.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart"))
	}
	if c.NumItemsInCart == 0 {
		return nil, outcome.Failure(pkgerrors.CodeValidation, MsgCartEmpty)
	}

	pending, err := s.repo.FindPendingForCart(ctx, userID, c.ID)
	switch {
	case err == nil && matchesCart(pending, c):
		dto := FromModel(*pending)
		return &dto, outcome.Success(MsgOrderCreated)
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, s.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending order"))
	}

	order := &models.Order{
		UserID:        userID,
		CartID:        c.ID,
		SubtotalCents: c.CartTotalCents,
		TaxCents:      c.TaxCents,
		ShippingCents: c.ShippingCents,
		TotalCents:    c.OrderTotalCents,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, s.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order"))
	}

	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order.created")
	dto := FromModel(*order)
	return &dto, outcome.Success(MsgOrderCreated)
}

func (s *service) List(ctx context.Context, userID string, params pagination.Params) (*types.CursorPage[OrderDTO], error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to view orders")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.ListByUser(ctx, userID, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	rows, next := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})

	items := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, FromModel(row))
	}
	return &types.CursorPage[OrderDTO]{Items: items, NextCursor: next}, nil
}

func (s *service) fail(ctx context.Context, err error) outcome.Outcome {
	s.logg.Error(ctx, "order.create_failed", err)
	return outcome.FromError(err)
}

func matchesCart(o *models.Order, c *models.Cart) bool {
	return o.SubtotalCents == c.CartTotalCents &&
		o.TaxCents == c.TaxCents &&
		o.ShippingCents == c.ShippingCents &&
		o.TotalCents == c.OrderTotalCents
}
