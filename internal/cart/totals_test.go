package cart

import (
	"testing"

	"github.com/angelmondragon/cellar-backend/pkg/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTotalsTaxRoundsHalfUp(t *testing.T) {
	t.Parallel()

	cases := []struct {
		subtotal int64
		tax      int64
	}{
		{subtotal: 999, tax: 100},
		{subtotal: 1000, tax: 100},
		{subtotal: 1005, tax: 101},
		{subtotal: 1004, tax: 100},
		{subtotal: 1, tax: 0},
		{subtotal: 5, tax: 1},
	}
	for _, tc := range cases {
		got := ComputeTotals([]Line{{Amount: 1, UnitPriceCents: tc.subtotal}}, DefaultPolicy())
		assert.Equal(t, tc.tax, got.Tax, "subtotal %d", tc.subtotal)
		assert.Equal(t, tc.subtotal+tc.tax+500, got.OrderTotal, "subtotal %d", tc.subtotal)
	}
}

func TestComputeTotalsShippingThreshold(t *testing.T) {
	t.Parallel()

	empty := ComputeTotals(nil, DefaultPolicy())
	assert.Equal(t, Totals{}, empty)

	one := ComputeTotals([]Line{{Amount: 1, UnitPriceCents: 1}}, DefaultPolicy())
	assert.Equal(t, int64(500), one.Shipping)
	assert.Equal(t, int64(501), one.OrderTotal)
}

func TestComputeTotalsSumsLines(t *testing.T) {
	t.Parallel()

	got := ComputeTotals([]Line{
		{Amount: 2, UnitPriceCents: 1500},
		{Amount: 3, UnitPriceCents: 2000},
	}, DefaultPolicy())

	assert.Equal(t, int64(5), got.ItemCount)
	assert.Equal(t, int64(9000), got.Subtotal)
	assert.Equal(t, int64(900), got.Tax)
	assert.Equal(t, int64(500), got.Shipping)
	assert.Equal(t, int64(10400), got.OrderTotal)
	assert.Equal(t, got.Subtotal+got.Tax+got.Shipping, got.OrderTotal)
}

func TestComputeTotalsIsOrderIndependent(t *testing.T) {
	t.Parallel()

	a := Line{Amount: 1, UnitPriceCents: 1234}
	b := Line{Amount: 4, UnitPriceCents: 999}
	assert.Equal(t, ComputeTotals([]Line{a, b}, DefaultPolicy()), ComputeTotals([]Line{b, a}, DefaultPolicy()))
}

func TestPolicyFromConfig(t *testing.T) {
	t.Parallel()

	policy, err := PolicyFromConfig(config.CheckoutConfig{TaxRateRaw: "0.0825", FlatShippingCents: 0})
	require.NoError(t, err)
	assert.True(t, policy.TaxRate.Equal(decimal.RequireFromString("0.0825")))

	got := ComputeTotals([]Line{{Amount: 1, UnitPriceCents: 1000}}, policy)
	assert.Equal(t, int64(83), got.Tax)
	assert.Equal(t, int64(0), got.Shipping)

	_, err = PolicyFromConfig(config.CheckoutConfig{TaxRateRaw: "abc"})
	assert.Error(t, err)
	_, err = PolicyFromConfig(config.CheckoutConfig{TaxRateRaw: "0.1", FlatShippingCents: -1})
	assert.Error(t, err)
}
