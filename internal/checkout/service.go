package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/cellar-backend/internal/cart"
	"github.com/angelmondragon/cellar-backend/internal/orders"
	"github.com/angelmondragon/cellar-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cellar-backend/pkg/errors"
	"github.com/angelmondragon/cellar-backend/pkg/logger"
	"github.com/angelmondragon/cellar-backend/pkg/metrics"
	"github.com/angelmondragon/cellar-backend/pkg/outcome"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MsgOrderNotFound       = "order not found"
	MsgCartNotFound        = "cart not found"
	MsgCartEmpty           = "cart is empty"
	MsgCartMismatch        = "order was not created from this cart"
	MsgCartChanged         = "cart changed since the order was created"
	MsgOrderPaid           = "order is already paid"
	MsgProviderUnavailable = "payment provider unavailable"
	MsgSessionRequired     = "session id is required"
	MsgPaymentNotCompleted = "payment not completed"
	MsgPaymentPending      = "payment is still processing"
	MsgBadMetadata         = "checkout session metadata is invalid"
	MsgAlreadyFinalized    = "cart already finalized"
	MsgSessionCreated      = "Checkout session created"
	MsgPaymentConfirmed    = "Payment confirmed"
)

const (
	lineTax      = "Tax"
	lineShipping = "Shipping"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Session is returned to the storefront to mount the embedded checkout.
type Session struct {
	SessionID    string    `json:"session_id"`
	ClientSecret string    `json:"client_secret"`
	OrderID      uuid.UUID `json:"order_id"`
}

// Service starts checkout sessions and finalizes paid carts.
type Service interface {
	StartCheckout(ctx context.Context, orderID, cartID uuid.UUID) (*Session, outcome.Outcome)
	StartCheckoutForUser(ctx context.Context, userID string, orderID, cartID uuid.UUID) (*Session, outcome.Outcome)
	ConfirmPayment(ctx context.Context, sessionID string) outcome.Outcome
}

// ServiceParams wires the checkout service.
type ServiceParams struct {
	Orders    orders.OrderRepository
	Carts     cart.CartRepository
	Tx        txRunner
	Provider  PaymentProvider
	Cache     *cart.ViewCache
	Metrics   *metrics.CheckoutMetrics
	Logger    *logger.Logger
	ReturnURL string
	Currency  string
	Clock     func() time.Time
}

type service struct {
	orders    orders.OrderRepository
	carts     cart.CartRepository
	tx        txRunner
	provider  PaymentProvider
	cache     *cart.ViewCache
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
	returnURL string
	currency  string
	now       func() time.Time
}

// NewService validates params and builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order repository required")
	}
	if params.Carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment provider required")
	}
	if !strings.Contains(params.ReturnURL, SessionIDPlaceholder) {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("return url must contain %s", SessionIDPlaceholder))
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Discard()
	}
	now := params.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		orders:    params.Orders,
		carts:     params.Carts,
		tx:        params.Tx,
		provider:  params.Provider,
		cache:     params.Cache,
		metrics:   params.Metrics,
		logg:      logg,
		returnURL: params.ReturnURL,
		currency:  strings.ToLower(strings.TrimSpace(params.Currency)),
		now:       now,
	}, nil
}

// ReturnURL joins the public base URL and return path and appends the
// session id placeholder the provider fills in on redirect.
func ReturnURL(baseURL, path string) (string, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return "", fmt.Errorf("parse public url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("public url %q must be absolute", baseURL)
	}
	if path == "" {
		path = "/checkout/return"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	// the placeholder braces must survive unescaped
	return u.String() + path + "?session_id=" + SessionIDPlaceholder, nil
}

func (s *service) StartCheckoutForUser(ctx context.Context, userID string, orderID, cartID uuid.UUID) (*Session, outcome.Outcome) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, outcome.Failure(pkgerrors.CodeUnauthorized, "You must be signed in to check out")
	}
	if _, err := s.orders.FindByIDForUser(ctx, orderID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, outcome.Failure(pkgerrors.CodeNotFound, MsgOrderNotFound)
		}
		return nil, s.failSession(ctx, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order"))
	}
	return s.StartCheckout(s.logg.WithUserID(ctx, userID), orderID, cartID)
}

func (s *service) StartCheckout(ctx context.Context, orderID, cartID uuid.UUID) (sess *Session, out outcome.Outcome) {
	defer func() { s.metrics.ObserveSession(cart.Label(out)) }()

	ctx = s.logg.WithFields(ctx, map[string]any{"order_id": orderID.String(), "cart_id": cartID.String()})

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, outcome.Failure(pkgerrors.CodeNotFound, MsgOrderNotFound)
		}
		return nil, s.failSession(ctx, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order"))
	}
	if order.Paid {
		return nil, outcome.Failure(pkgerrors.CodeStateConflict, MsgOrderPaid)
	}

	c, err := s.carts.FindByIDWithItems(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, outcome.Failure(pkgerrors.CodeNotFound, MsgCartNotFound)
		}
		return nil, s.failSession(ctx, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart"))
	}
	if order.CartID != c.ID {
		return nil, outcome.Failure(pkgerrors.CodeValidation, MsgCartMismatch)
	}
	if len(c.Items) == 0 {
		return nil, outcome.Failure(pkgerrors.CodeValidation, MsgCartEmpty)
	}

	lines, err := BuildManifest(c)
	if err != nil {
		return nil, s.failSession(ctx, err)
	}
	if ManifestTotal(lines) != order.TotalCents {
		return nil, outcome.Failure(pkgerrors.CodeStateConflict, MsgCartChanged)
	}

	started := time.Now()
	created, err := s.provider.CreateSession(ctx, SessionRequest{
		Lines: lines,
		Metadata: map[string]string{
			MetadataOrderID: order.ID.String(),
			MetadataCartID:  c.ID.String(),
		},
		ReturnURL: s.returnURL,
		Currency:  s.currency,
	})
	s.metrics.ObserveProviderCall("create_session", time.Since(started))
	if err != nil || created == nil || created.ID == "" {
		if err == nil {
			err = errors.New("provider returned no session")
		}
		s.logg.Error(ctx, "checkout.provider_create_failed", err)
		return nil, outcome.Failure(pkgerrors.CodeDependency, MsgProviderUnavailable)
	}

	if err := s.orders.SetCheckoutSession(ctx, order.ID, created.ID, s.now()); err != nil {
		return nil, s.failSession(ctx, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record checkout session"))
	}

	s.logg.Info(s.logg.WithSessionID(ctx, created.ID), "checkout.session_created")
	return &Session{
		SessionID:    created.ID,
		ClientSecret: created.ClientSecret,
		OrderID:      order.ID,
	}, outcome.Success(MsgSessionCreated)
}

// BuildManifest renders one line per cart item plus non-zero tax and
// shipping lines, so the manifest sums to the cart's order total.
func BuildManifest(c *models.Cart) ([]ManifestLine, error) {
	lines := make([]ManifestLine, 0, len(c.Items)+2)
	for _, item := range c.Items {
		if item.Wine == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("cart item %s has no wine", item.ID))
		}
		lines = append(lines, ManifestLine{
			Name:            manifestName(item.Wine),
			Quantity:        item.Amount,
			UnitAmountCents: item.Wine.PriceCents,
		})
	}
	if c.TaxCents > 0 {
		lines = append(lines, ManifestLine{Name: lineTax, Quantity: 1, UnitAmountCents: c.TaxCents})
	}
	if c.ShippingCents > 0 {
		lines = append(lines, ManifestLine{Name: lineShipping, Quantity: 1, UnitAmountCents: c.ShippingCents})
	}
	return lines, nil
}

func manifestName(w *models.Wine) string {
	name := w.Name
	if w.Vintage != nil {
		name = fmt.Sprintf("%s %d", name, *w.Vintage)
	}
	if w.Winery != "" {
		name = w.Winery + " " + name
	}
	return name
}

func (s *service) ConfirmPayment(ctx context.Context, sessionID string) (out outcome.Outcome) {
	defer func() { s.metrics.ObserveConfirmation(cart.Label(out)) }()

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return outcome.Failure(pkgerrors.CodeValidation, MsgSessionRequired)
	}
	ctx = s.logg.WithSessionID(ctx, sessionID)

	started := time.Now()
	sess, err := s.provider.GetSession(ctx, sessionID)
	s.metrics.ObserveProviderCall("get_session", time.Since(started))
	if err != nil || sess == nil {
		if err == nil {
			err = errors.New("provider returned no session")
		}
		s.logg.Error(ctx, "checkout.provider_get_failed", err)
		return outcome.Failure(pkgerrors.CodeDependency, MsgProviderUnavailable)
	}
	if !sess.Complete() {
		s.logg.Warn(s.logg.WithField(ctx, "status", sess.Status), "checkout.payment_incomplete")
		return outcome.Failure(pkgerrors.CodeStateConflict, MsgPaymentNotCompleted)
	}
	if !sess.Paid() {
		s.logg.Warn(s.logg.WithField(ctx, "payment_status", sess.PaymentStatus), "checkout.payment_pending")
		return outcome.Failure(pkgerrors.CodeStateConflict, MsgPaymentPending)
	}

	orderID, cartID, err := parseMetadata(sess.Metadata)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "checkout.bad_metadata")
		return outcome.Failure(pkgerrors.CodeValidation, MsgBadMetadata)
	}
	ctx = s.logg.WithOrderID(s.logg.WithCartID(ctx, cartID.String()), orderID.String())

	var (
		userID   string
		cartGone bool
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.orders.WithTx(tx)
		order, err := orderRepo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, MsgOrderNotFound)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.CartID != cartID {
			return pkgerrors.New(pkgerrors.CodeValidation, MsgBadMetadata)
		}
		userID = order.UserID

		paid, err := orderRepo.MarkPaid(ctx, order.ID, s.now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		if paid == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, MsgAlreadyFinalized)
		}

		deleted, err := s.carts.WithTx(tx).DeleteCart(ctx, cartID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
		}
		// a second paid order for an already consumed cart stays paid
		cartGone = deleted == 0
		return nil
	})
	if err != nil {
		out = outcome.FromError(err)
		if out.Is(pkgerrors.CodeDependency) || out.Is(pkgerrors.CodeInternal) {
			s.logg.Error(ctx, "checkout.confirm_failed", err)
		} else {
			s.logg.Warn(ctx, "checkout.confirm_rejected")
		}
		return out
	}

	s.cache.Invalidate(ctx, userID)
	if cartGone {
		s.logg.Warn(s.logg.WithUserID(ctx, userID), "checkout.paid_without_cart")
		return outcome.Failure(pkgerrors.CodeNotFound, MsgAlreadyFinalized)
	}
	s.logg.Info(s.logg.WithUserID(ctx, userID), "checkout.payment_confirmed")
	return outcome.Success(MsgPaymentConfirmed)
}

func parseMetadata(md map[string]string) (uuid.UUID, uuid.UUID, error) {
	orderID, err := uuid.Parse(strings.TrimSpace(md[MetadataOrderID]))
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%s: %w", MetadataOrderID, err)
	}
	cartID, err := uuid.Parse(strings.TrimSpace(md[MetadataCartID]))
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%s: %w", MetadataCartID, err)
	}
	return orderID, cartID, nil
}

func (s *service) failSession(ctx context.Context, err error) outcome.Outcome {
	s.logg.Error(ctx, "checkout.start_failed", err)
	return outcome.FromError(err)
}
