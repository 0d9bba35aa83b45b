package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return Wrap(raw), mr
}

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)

	allowed, count, err := client.FixedWindowAllow(ctx, "cart:user-1", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, time.Minute, mr.TTL(client.RateLimitKey("cart:user-1")))

	allowed, count, err = client.FixedWindowAllow(ctx, "cart:user-1", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(2), count)

	allowed, _, err = client.FixedWindowAllow(ctx, "cart:user-1", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	mr.FastForward(time.Minute + time.Second)
	allowed, count, err = client.FixedWindowAllow(ctx, "cart:user-1", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(1), count)
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	key := client.CartViewKey("user-1")
	require.NoError(t, client.Set(ctx, key, `{"id":"x"}`, time.Minute))

	got, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"x"}`, got)

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	assert.True(t, errors.Is(err, ErrNil))
}

func TestSetNXOnlyOnce(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	key := client.WebhookEventKey("stripe", "evt_1")
	ok, err := client.SetNX(ctx, key, "1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.SetNX(ctx, key, "1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "cellar:idempotency:scope:id", client.IdempotencyKey("scope", "id"))
	assert.Equal(t, "cellar:rate_limit:scope", client.RateLimitKey("scope"))
	assert.Equal(t, "cellar:cart_view:user-1", client.CartViewKey(" user-1 "))
	assert.Equal(t, "cellar:webhook_event:stripe:evt_1", client.WebhookEventKey("stripe", "evt_1"))
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	assert.Error(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}
