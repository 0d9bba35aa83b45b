package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/angelmondragon/cellar-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/cellar-backend/pkg/redis"
)

const defaultViewTTL = 10 * time.Minute

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartViewKey(userID string) string
}

// ViewCache keeps rendered carts in Redis. Cache failures are logged and
// never fail the calling operation; a nil *ViewCache is a no-op.
type ViewCache struct {
	store cacheStore
	ttl   time.Duration
	logg  *logger.Logger
}

// NewViewCache builds the cache on the provided store.
func NewViewCache(store cacheStore, ttl time.Duration, logg *logger.Logger) *ViewCache {
	if store == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultViewTTL
	}
	return &ViewCache{store: store, ttl: ttl, logg: logg}
}

// Load returns the cached view for userID.
func (c *ViewCache) Load(ctx context.Context, userID string) (*CartView, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.store.Get(ctx, c.store.CartViewKey(userID))
	if err != nil {
		if !errors.Is(err, pkgredis.ErrNil) {
			c.warn(ctx, "cart.cache_read_failed", err)
		}
		return nil, false
	}
	var view CartView
	if err := json.Unmarshal([]byte(raw), &view); err != nil {
		c.warn(ctx, "cart.cache_decode_failed", err)
		return nil, false
	}
	return &view, true
}

// Store caches the rendered view.
func (c *ViewCache) Store(ctx context.Context, userID string, view *CartView) {
	if c == nil || view == nil {
		return
	}
	payload, err := json.Marshal(view)
	if err != nil {
		c.warn(ctx, "cart.cache_encode_failed", err)
		return
	}
	if err := c.store.Set(ctx, c.store.CartViewKey(userID), payload, c.ttl); err != nil {
		c.warn(ctx, "cart.cache_write_failed", err)
	}
}

// Invalidate drops the cached view for userID.
func (c *ViewCache) Invalidate(ctx context.Context, userID string) {
	if c == nil || userID == "" {
		return
	}
	if err := c.store.Del(ctx, c.store.CartViewKey(userID)); err != nil {
		c.warn(ctx, "cart.cache_invalidate_failed", err)
	}
}

func (c *ViewCache) warn(ctx context.Context, msg string, err error) {
	if c.logg == nil {
		return
	}
	c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), msg)
}
