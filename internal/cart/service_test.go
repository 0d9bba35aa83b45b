package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/angelmondragon/cellar-backend/internal/storetest"
	"github.com/angelmondragon/cellar-backend/internal/wines"
	"github.com/angelmondragon/cellar-backend/pkg/db"
	"github.com/angelmondragon/cellar-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cellar-backend/pkg/errors"
	"github.com/angelmondragon/cellar-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/cellar-backend/pkg/redis"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	client  *db.Client
	repo    *Repository
	recalc  *Recalculator
	svc     Service
	redis   *miniredis.Miniredis
	cache   *pkgredis.Client
	metrics *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	client := storetest.NewClient(t)
	repo := NewRepository(client.DB())
	recalc, err := NewRecalculator(repo, DefaultPolicy())
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	cacheClient := pkgredis.Wrap(raw)

	reg := prometheus.NewRegistry()
	svc, err := NewService(
		repo,
		client,
		wines.NewRepository(client.DB()),
		recalc,
		NewViewCache(cacheClient, time.Minute, nil),
		metrics.NewCartMetrics(reg),
		nil,
	)
	require.NoError(t, err)

	return &fixture{
		db:      client.DB(),
		client:  client,
		repo:    repo,
		recalc:  recalc,
		svc:     svc,
		redis:   mr,
		cache:   cacheClient,
		metrics: reg,
	}
}

func (f *fixture) cart(t *testing.T, userID string) *models.Cart {
	t.Helper()
	c, err := f.repo.FindByUserWithItems(context.Background(), userID)
	require.NoError(t, err)
	return c
}

func (f *fixture) countRows(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func TestAddToCartRequiresSignIn(t *testing.T) {
	f := newFixture(t)
	wine := storetest.SeedWine(t, f.db, 1000)

	out := f.svc.AddToCart(context.Background(), "  ", wine.ID, 1)

	assert.False(t, out.OK)
	assert.Equal(t, pkgerrors.CodeUnauthorized, out.Kind)
	assert.Equal(t, MsgSignInToAdd, out.Message)
	assert.Zero(t, f.countRows(t, &models.Cart{}))
	assert.Zero(t, f.countRows(t, &models.CartItem{}))
}

func TestAddToCartCreatesCartAndTotals(t *testing.T) {
	f := newFixture(t)
	wine := storetest.SeedWine(t, f.db, 1000)

	out := f.svc.AddToCart(context.Background(), "user-1", wine.ID, 2)
	require.True(t, out.OK, out.Message)
	assert.Equal(t, MsgItemAdded, out.Message)

	c := f.cart(t, "user-1")
	require.Len(t, c.Items, 1)
	assert.Equal(t, int64(2), c.Items[0].Amount)
	assert.Equal(t, int64(2), c.NumItemsInCart)
	assert.Equal(t, int64(2000), c.CartTotalCents)
	assert.Equal(t, int64(200), c.TaxCents)
	assert.Equal(t, int64(500), c.ShippingCents)
	assert.Equal(t, int64(2700), c.OrderTotalCents)
}

func TestAddToCartIsAdditiveOnSameProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wine := storetest.SeedWine(t, f.db, 1000)

	require.True(t, f.svc.AddToCart(ctx, "user-1", wine.ID, 2).OK)
	require.True(t, f.svc.AddToCart(ctx, "user-1", wine.ID, 3).OK)

	c := f.cart(t, "user-1")
	require.Len(t, c.Items, 1)
	assert.Equal(t, int64(5), c.Items[0].Amount)
	assert.Equal(t, int64(5), c.NumItemsInCart)
	assert.Equal(t, int64(5000), c.CartTotalCents)
	assert.Equal(t, int64(1), f.countRows(t, &models.Cart{}))
}

func TestAddToCartRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inactive := storetest.SeedWine(t, f.db, 1000, storetest.Inactive())

	out := f.svc.AddToCart(ctx, "user-1", inactive.ID, 1)
	assert.Equal(t, pkgerrors.CodeNotFound, out.Kind)

	out = f.svc.AddToCart(ctx, "user-1", uuid.New(), 1)
	assert.Equal(t, pkgerrors.CodeNotFound, out.Kind)
	assert.Equal(t, MsgWineNotFound, out.Message)

	out = f.svc.AddToCart(ctx, "user-1", inactive.ID, 0)
	assert.Equal(t, pkgerrors.CodeValidation, out.Kind)

	assert.Zero(t, f.countRows(t, &models.CartItem{}))
}

func TestAddToCartConcurrentCallsSumIntoOneLine(t *testing.T) {
	f := newFixture(t)
	wine := storetest.SeedWine(t, f.db, 700)

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- f.svc.AddToCart(context.Background(), "user-1", wine.ID, 1).OK
		}()
	}
	wg.Wait()
	close(results)
	for ok := range results {
		require.True(t, ok)
	}

	c := f.cart(t, "user-1")
	require.Len(t, c.Items, 1)
	assert.Equal(t, int64(workers), c.Items[0].Amount)
	assert.Equal(t, int64(workers), c.NumItemsInCart)
	assert.Equal(t, int64(workers*700), c.CartTotalCents)
}

func TestCartItemConstraints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wine := storetest.SeedWine(t, f.db, 900)
	require.True(t, f.svc.AddToCart(ctx, "user-1", wine.ID, 1).OK)
	c := f.cart(t, "user-1")

	dup := models.CartItem{CartID: c.ID, ProductID: wine.ID, Amount: 1}
	assert.Error(t, f.db.Create(&dup).Error)

	other := storetest.SeedWine(t, f.db, 900)
	zero := models.CartItem{CartID: c.ID, ProductID: other.ID, Amount: 0}
	assert.Error(t, f.db.Create(&zero).Error)

	assert.Equal(t, int64(1), f.countRows(t, &models.CartItem{}))
}

func TestUpdateCartItemQuantityIsAbsolute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wine := storetest.SeedWine(t, f.db, 1000)
	require.True(t, f.svc.AddToCart(ctx, "user-1", wine.ID, 5).OK)
	itemID := f.cart(t, "user-1").Items[0].ID

	out := f.svc.UpdateCartItemQuantity(ctx, "user-1", itemID, 2)
	require.True(t, out.OK, out.Message)

	c := f.cart(t, "user-1")
	assert.Equal(t, int64(2), c.Items[0].Amount)
	assert.Equal(t, int64(2), c.NumItemsInCart)
	assert.Equal(t, int64(2000), c.CartTotalCents)
	assert.Equal(t, int64(2700), c.OrderTotalCents)

	out = f.svc.UpdateCartItemQuantity(ctx, "user-1", itemID, 0)
	assert.Equal(t, pkgerrors.CodeValidation, out.Kind)
	assert.Equal(t, int64(2), f.cart(t, "user-1").Items[0].Amount)
}

func TestRemoveCartItemRecomputes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cheap := storetest.SeedWine(t, f.db, 1000)
	dear := storetest.SeedWine(t, f.db, 2000)
	require.True(t, f.svc.AddToCart(ctx, "user-1", cheap.ID, 1).OK)
	require.True(t, f.svc.AddToCart(ctx, "user-1", dear.ID, 1).OK)

	var dearItem models.CartItem
	for _, item := range f.cart(t, "user-1").Items {
		if item.ProductID == dear.ID {
			dearItem = item
		}
	}
	require.NotEqual(t, uuid.Nil, dearItem.ID)

	out := f.svc.RemoveCartItem(ctx, "user-1", dearItem.ID)
	require.True(t, out.OK, out.Message)

	c := f.cart(t, "user-1")
	require.Len(t, c.Items, 1)
	assert.Equal(t, int64(1000), c.CartTotalCents)
	assert.Equal(t, int64(100), c.TaxCents)
	assert.Equal(t, int64(500), c.ShippingCents)
	assert.Equal(t, int64(1600), c.OrderTotalCents)
}

func TestRemoveLastItemZeroesTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wine := storetest.SeedWine(t, f.db, 1000)
	require.True(t, f.svc.AddToCart(ctx, "user-1", wine.ID, 3).OK)

	out := f.svc.RemoveCartItem(ctx, "user-1", f.cart(t, "user-1").Items[0].ID)
	require.True(t, out.OK)

	c := f.cart(t, "user-1")
	assert.Empty(t, c.Items)
	assert.Zero(t, c.NumItemsInCart)
	assert.Zero(t, c.CartTotalCents)
	assert.Zero(t, c.TaxCents)
	assert.Zero(t, c.ShippingCents)
	assert.Zero(t, c.OrderTotalCents)
}

func TestMutationsEnforceOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wine := storetest.SeedWine(t, f.db, 1000)
	require.True(t, f.svc.AddToCart(ctx, "owner", wine.ID, 2).OK)
	require.True(t, f.svc.AddToCart(ctx, "intruder", wine.ID, 1).OK)
	ownerItem := f.cart(t, "owner").Items[0]

	out := f.svc.UpdateCartItemQuantity(ctx, "intruder", ownerItem.ID, 9)
	assert.Equal(t, pkgerrors.CodeNotFound, out.Kind)
	assert.Equal(t, MsgItemNotFound, out.Message)

	out = f.svc.RemoveCartItem(ctx, "intruder", ownerItem.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, out.Kind)

	out = f.svc.RemoveCartItem(ctx, "no-cart-user", ownerItem.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, out.Kind)
	assert.Equal(t, MsgCartNotFound, out.Message)

	c := f.cart(t, "owner")
	require.Len(t, c.Items, 1)
	assert.Equal(t, int64(2), c.Items[0].Amount)
	assert.Equal(t, int64(2000), c.CartTotalCents)
}

func TestMutationsRequireSignIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, pkgerrors.CodeUnauthorized, f.svc.UpdateCartItemQuantity(ctx, "", uuid.New(), 1).Kind)
	assert.Equal(t, pkgerrors.CodeUnauthorized, f.svc.RemoveCartItem(ctx, "", uuid.New()).Kind)
	_, out := f.svc.GetCart(ctx, "")
	assert.Equal(t, pkgerrors.CodeUnauthorized, out.Kind)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wine := storetest.SeedWine(t, f.db, 1234)
	require.True(t, f.svc.AddToCart(ctx, "user-1", wine.ID, 3).OK)
	c := f.cart(t, "user-1")

	first, err := f.recalc.Recompute(ctx, f.db, c.ID)
	require.NoError(t, err)
	second, err := f.recalc.Recompute(ctx, f.db, c.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	after := f.cart(t, "user-1")
	assert.Equal(t, c.OrderTotalCents, after.OrderTotalCents)
	assert.Equal(t, first.OrderTotal, after.OrderTotalCents)
}

func TestRecomputePicksUpPriceChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wine := storetest.SeedWine(t, f.db, 1000)
	require.True(t, f.svc.AddToCart(ctx, "user-1", wine.ID, 1).OK)

	require.NoError(t, f.db.Model(&models.Wine{}).Where("id = ?", wine.ID).Update("price_cents", 3000).Error)
	totals, err := f.recalc.Recompute(ctx, f.db, f.cart(t, "user-1").ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), totals.Subtotal)
	assert.Equal(t, int64(3800), totals.OrderTotal)
}

func TestGetCartCachesAndInvalidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wine := storetest.SeedWine(t, f.db, 1500, storetest.Named("Barolo"))

	view, out := f.svc.GetCart(ctx, "user-1")
	require.True(t, out.OK)
	assert.Nil(t, view.ID)
	assert.Empty(t, view.Items)

	require.True(t, f.svc.AddToCart(ctx, "user-1", wine.ID, 2).OK)
	assert.False(t, f.redis.Exists(f.cache.CartViewKey("user-1")))

	view, out = f.svc.GetCart(ctx, "user-1")
	require.True(t, out.OK)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Barolo", view.Items[0].Name)
	assert.Equal(t, int64(3000), view.Items[0].LineTotalCents)
	assert.Equal(t, int64(3800), view.OrderTotal)
	assert.True(t, f.redis.Exists(f.cache.CartViewKey("user-1")))

	cached, out := f.svc.GetCart(ctx, "user-1")
	require.True(t, out.OK)
	assert.Equal(t, view.OrderTotal, cached.OrderTotal)

	require.True(t, f.svc.UpdateCartItemQuantity(ctx, "user-1", view.Items[0].ID, 1).OK)
	assert.False(t, f.redis.Exists(f.cache.CartViewKey("user-1")))
}

func TestCartOperationsAreCounted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wine := storetest.SeedWine(t, f.db, 1000)

	f.svc.AddToCart(ctx, "user-1", wine.ID, 1)
	f.svc.AddToCart(ctx, "", wine.ID, 1)

	families, err := f.metrics.Gather()
	require.NoError(t, err)

	got := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "cart_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			got[labels["operation"]+"/"+labels["outcome"]] = m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, map[string]float64{"add/OK": 1, "add/UNAUTHORIZED": 1}, got)
}
