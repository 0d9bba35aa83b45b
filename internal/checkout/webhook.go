package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/cellar-backend/pkg/errors"
	"github.com/angelmondragon/cellar-backend/pkg/logger"
	"github.com/stripe/stripe-go/v84"
)

const providerStripe = "stripe"

type eventStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	WebhookEventKey(provider, eventID string) string
}

// IdempotencyGuard remembers processed webhook event ids.
type IdempotencyGuard struct {
	store eventStore
	ttl   time.Duration
}

func NewIdempotencyGuard(store eventStore, ttl time.Duration) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &IdempotencyGuard{store: store, ttl: ttl}, nil
}

// CheckAndMark marks eventID as seen and reports whether it already was.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	set, err := g.store.SetNX(ctx, g.store.WebhookEventKey(providerStripe, eventID), "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

// Delete forgets eventID so a redelivery is processed again.
func (g *IdempotencyGuard) Delete(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	return g.store.Del(ctx, g.store.WebhookEventKey(providerStripe, eventID))
}

// WebhookService routes verified Stripe events to the checkout service.
type WebhookService struct {
	checkout Service
	logg     *logger.Logger
}

func NewWebhookService(checkout Service, logg *logger.Logger) (*WebhookService, error) {
	if checkout == nil {
		return nil, errors.New("checkout service required")
	}
	if logg == nil {
		logg = logger.Discard()
	}
	return &WebhookService{checkout: checkout, logg: logg}, nil
}

// HandleEvent confirms completed checkout sessions. A session completed with
// an async payment still settling is acked and finalized by the later
// async_payment_succeeded event. An error asks the provider to redeliver.
func (w *WebhookService) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event required")
	}
	ctx = w.logg.WithFields(ctx, map[string]any{"event_id": event.ID, "event_type": string(event.Type)})

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
	default:
		w.logg.Debug(ctx, "stripe.event_ignored")
		return nil
	}

	if event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event data missing")
	}
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
	}

	out := w.checkout.ConfirmPayment(ctx, sess.ID)
	switch {
	case out.OK:
		return nil
	case out.Is(pkgerrors.CodeDependency), out.Is(pkgerrors.CodeInternal):
		return out.Err()
	default:
		w.logg.Warn(w.logg.WithField(ctx, "outcome", string(out.Kind)), "stripe.event_acknowledged")
		return nil
	}
}
