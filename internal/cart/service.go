package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/cellar-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cellar-backend/pkg/errors"
	"github.com/angelmondragon/cellar-backend/pkg/logger"
	"github.com/angelmondragon/cellar-backend/pkg/metrics"
	"github.com/angelmondragon/cellar-backend/pkg/outcome"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MsgSignInToAdd  = "You must be signed in to add items to your cart"
	MsgSignInToView = "You must be signed in to view your cart"
	MsgSignIn       = "You must be signed in to change your cart"
	MsgCartNotFound = "cart not found"
	MsgItemNotFound = "cart item not found"
	MsgWineNotFound = "wine not found"
	MsgBadQuantity  = "quantity must be at least 1"
	MsgItemAdded    = "Item added to cart"
	MsgItemUpdated  = "Cart item updated"
	MsgItemRemoved  = "Item removed from cart"
	MsgCartLoaded   = "Cart loaded"
)

const (
	opAdd    = "add"
	opUpdate = "update"
	opRemove = "remove"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type wineLookup interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Wine, error)
}

// Service exposes the cart lifecycle operations. Every operation reports an
// outcome instead of an error.
type Service interface {
	AddToCart(ctx context.Context, userID string, productID uuid.UUID, quantity int64) outcome.Outcome
	UpdateCartItemQuantity(ctx context.Context, userID string, itemID uuid.UUID, quantity int64) outcome.Outcome
	RemoveCartItem(ctx context.Context, userID string, itemID uuid.UUID) outcome.Outcome
	GetCart(ctx context.Context, userID string) (*CartView, outcome.Outcome)
}

type service struct {
	repo    CartRepository
	tx      txRunner
	wines   wineLookup
	recalc  *Recalculator
	cache   *ViewCache
	metrics *metrics.CartMetrics
	logg    *logger.Logger
}

// NewService builds a cart service. cache and cartMetrics are optional.
func NewService(repo CartRepository, tx txRunner, wines wineLookup, recalc *Recalculator, cache *ViewCache, cartMetrics *metrics.CartMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if wines == nil {
		return nil, fmt.Errorf("wine lookup required")
	}
	if recalc == nil {
		return nil, fmt.Errorf("recalculator required")
	}
	if logg == nil {
		logg = logger.Discard()
	}
	return &service{
		repo:    repo,
		tx:      tx,
		wines:   wines,
		recalc:  recalc,
		cache:   cache,
		metrics: cartMetrics,
		logg:    logg,
	}, nil
}

func (s *service) AddToCart(ctx context.Context, userID string, productID uuid.UUID, quantity int64) (out outcome.Outcome) {
	defer func() { s.observe(opAdd, out) }()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return outcome.Failure(pkgerrors.CodeUnauthorized, MsgSignInToAdd)
	}
	if quantity < 1 {
		return outcome.Failure(pkgerrors.CodeValidation, MsgBadQuantity)
	}
	if productID == uuid.Nil {
		return outcome.Failure(pkgerrors.CodeValidation, "product id is required")
	}

	ctx = s.logg.WithUserID(ctx, userID)
	if _, err := s.wines.FindActiveByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return outcome.Failure(pkgerrors.CodeNotFound, MsgWineNotFound)
		}
		return s.fail(ctx, opAdd, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wine"))
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		c, err := repo.EnsureForUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure cart")
		}
		if err := repo.AddItemQuantity(ctx, c.ID, productID, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
		}
		if _, err := s.recalc.Recompute(ctx, tx, c.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute totals")
		}
		return nil
	})
	if err != nil {
		return s.fail(ctx, opAdd, err)
	}

	s.cache.Invalidate(ctx, userID)
	return outcome.Success(MsgItemAdded)
}

func (s *service) UpdateCartItemQuantity(ctx context.Context, userID string, itemID uuid.UUID, quantity int64) (out outcome.Outcome) {
	defer func() { s.observe(opUpdate, out) }()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return outcome.Failure(pkgerrors.CodeUnauthorized, MsgSignIn)
	}
	if quantity < 1 {
		return outcome.Failure(pkgerrors.CodeValidation, MsgBadQuantity)
	}

	ctx = s.logg.WithUserID(ctx, userID)
	err := s.mutateOwnedItem(ctx, userID, itemID, func(repo CartRepository, item *models.CartItem) error {
		return repo.SetItemAmount(ctx, item.ID, quantity)
	})
	if err != nil {
		return s.fail(ctx, opUpdate, err)
	}

	s.cache.Invalidate(ctx, userID)
	return outcome.Success(MsgItemUpdated)
}

func (s *service) RemoveCartItem(ctx context.Context, userID string, itemID uuid.UUID) (out outcome.Outcome) {
	defer func() { s.observe(opRemove, out) }()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return outcome.Failure(pkgerrors.CodeUnauthorized, MsgSignIn)
	}

	ctx = s.logg.WithUserID(ctx, userID)
	err := s.mutateOwnedItem(ctx, userID, itemID, func(repo CartRepository, item *models.CartItem) error {
		return repo.DeleteItem(ctx, item.ID)
	})
	if err != nil {
		return s.fail(ctx, opRemove, err)
	}

	s.cache.Invalidate(ctx, userID)
	return outcome.Success(MsgItemRemoved)
}

// mutateOwnedItem resolves the caller's cart, loads the item scoped to it,
// applies fn and recomputes totals in one transaction.
func (s *service) mutateOwnedItem(ctx context.Context, userID string, itemID uuid.UUID, fn func(repo CartRepository, item *models.CartItem) error) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		c, err := repo.FindByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, MsgCartNotFound)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		item, err := repo.FindItemInCart(ctx, c.ID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, MsgItemNotFound)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}
		if err := fn(repo, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mutate cart item")
		}
		if _, err := s.recalc.Recompute(ctx, tx, c.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute totals")
		}
		return nil
	})
}

func (s *service) GetCart(ctx context.Context, userID string) (*CartView, outcome.Outcome) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, outcome.Failure(pkgerrors.CodeUnauthorized, MsgSignInToView)
	}
	if view, ok := s.cache.Load(ctx, userID); ok {
		return view, outcome.Success(MsgCartLoaded)
	}

	ctx = s.logg.WithUserID(ctx, userID)
	c, err := s.repo.FindByUserWithItems(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyView(userID), outcome.Success(MsgCartLoaded)
		}
		return nil, s.fail(ctx, "get", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart"))
	}

	view := toView(c)
	s.cache.Store(ctx, userID, view)
	return view, outcome.Success(MsgCartLoaded)
}

func (s *service) fail(ctx context.Context, op string, err error) outcome.Outcome {
	out := outcome.FromError(err)
	ctx = s.logg.WithFields(ctx, map[string]any{"operation": op, "outcome": string(out.Kind)})
	if meta := pkgerrors.MetadataFor(out.Kind); meta.HTTPStatus >= 500 {
		s.logg.Error(ctx, "cart.operation_failed", err)
	} else {
		s.logg.Warn(ctx, "cart.operation_rejected")
	}
	return out
}

func (s *service) observe(op string, out outcome.Outcome) {
	s.metrics.Observe(op, Label(out))
}

// Label renders an outcome as a metrics label.
func Label(out outcome.Outcome) string {
	if out.OK {
		return "OK"
	}
	return string(out.Kind)
}
