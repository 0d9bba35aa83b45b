package orders

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/cellar-backend/internal/cart"
	"github.com/angelmondragon/cellar-backend/internal/storetest"
	"github.com/angelmondragon/cellar-backend/internal/wines"
	"github.com/angelmondragon/cellar-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/cellar-backend/pkg/errors"
	"github.com/angelmondragon/cellar-backend/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ordersFixture struct {
	client *db.Client
	carts  cart.Service
	repo   *Repository
	svc    Service
}

func newOrdersFixture(t *testing.T) *ordersFixture {
	t.Helper()
	client := storetest.NewClient(t)
	cartRepo := cart.NewRepository(client.DB())
	recalc, err := cart.NewRecalculator(cartRepo, cart.DefaultPolicy())
	require.NoError(t, err)
	carts, err := cart.NewService(cartRepo, client, wines.NewRepository(client.DB()), recalc, nil, nil, nil)
	require.NoError(t, err)

	repo := NewRepository(client.DB())
	svc, err := NewService(repo, cartRepo, nil)
	require.NoError(t, err)
	return &ordersFixture{client: client, carts: carts, repo: repo, svc: svc}
}

func TestCreateFromCartSnapshotsTotals(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	wine := storetest.SeedWine(t, f.client.DB(), 1995)
	require.True(t, f.carts.AddToCart(ctx, "user-1", wine.ID, 2).OK)

	order, out := f.svc.CreateFromCart(ctx, "user-1")
	require.True(t, out.OK, out.Message)
	assert.Equal(t, int64(3990), order.SubtotalCents)
	assert.Equal(t, int64(399), order.TaxCents)
	assert.Equal(t, int64(500), order.ShippingCents)
	assert.Equal(t, int64(4889), order.TotalCents)
	assert.False(t, order.Paid)

	again, out := f.svc.CreateFromCart(ctx, "user-1")
	require.True(t, out.OK)
	assert.Equal(t, order.ID, again.ID)

	require.True(t, f.carts.AddToCart(ctx, "user-1", wine.ID, 1).OK)
	changed, out := f.svc.CreateFromCart(ctx, "user-1")
	require.True(t, out.OK)
	assert.NotEqual(t, order.ID, changed.ID)
	assert.Equal(t, int64(5985), changed.SubtotalCents)
}

func TestCreateFromCartRejects(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()

	_, out := f.svc.CreateFromCart(ctx, "")
	assert.Equal(t, pkgerrors.CodeUnauthorized, out.Kind)

	_, out = f.svc.CreateFromCart(ctx, "user-1")
	assert.Equal(t, pkgerrors.CodeNotFound, out.Kind)

	wine := storetest.SeedWine(t, f.client.DB(), 1000)
	require.True(t, f.carts.AddToCart(ctx, "user-1", wine.ID, 1).OK)
	view, _ := f.carts.GetCart(ctx, "user-1")
	require.True(t, f.carts.RemoveCartItem(ctx, "user-1", view.Items[0].ID).OK)

	_, out = f.svc.CreateFromCart(ctx, "user-1")
	assert.Equal(t, pkgerrors.CodeValidation, out.Kind)
	assert.Equal(t, MsgCartEmpty, out.Message)
}

func TestMarkPaidOnlyOnce(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	wine := storetest.SeedWine(t, f.client.DB(), 1000)
	require.True(t, f.carts.AddToCart(ctx, "user-1", wine.ID, 1).OK)
	order, out := f.svc.CreateFromCart(ctx, "user-1")
	require.True(t, out.OK)

	n, err := f.repo.MarkPaid(ctx, order.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = f.repo.MarkPaid(ctx, order.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, n)

	stored, err := f.repo.FindByIDForUser(ctx, order.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, stored.Paid)
	assert.NotNil(t, stored.PaidAt)

	_, err = f.repo.FindByIDForUser(ctx, order.ID, "someone-else")
	assert.Error(t, err)
}

func TestListOrdersPaginates(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	wine := storetest.SeedWine(t, f.client.DB(), 1000)

	var ids []string
	for i := 0; i < 3; i++ {
		require.True(t, f.carts.AddToCart(ctx, "user-1", wine.ID, 1).OK)
		order, out := f.svc.CreateFromCart(ctx, "user-1")
		require.True(t, out.OK)
		ids = append(ids, order.ID.String())
		time.Sleep(2 * time.Millisecond)
	}

	page, err := f.svc.List(ctx, "user-1", pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[2], page.Items[0].ID.String())
	assert.Equal(t, ids[1], page.Items[1].ID.String())
	require.NotEmpty(t, page.NextCursor)

	page, err = f.svc.List(ctx, "user-1", pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ids[0], page.Items[0].ID.String())

	page, err = f.svc.List(ctx, "user-2", pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}
