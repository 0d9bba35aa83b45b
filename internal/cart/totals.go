package cart

import (
	"context"
	"fmt"

	"github.com/angelmondragon/cellar-backend/pkg/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultTaxRate           = "0.10"
	defaultFlatShippingCents = 500
)

// Line is one cart line as seen by the totals computation.
type Line struct {
	Amount         int64
	UnitPriceCents int64
}

// Policy carries the pricing knobs applied on top of the subtotal.
type Policy struct {
	TaxRate           decimal.Decimal
	FlatShippingCents int64
}

// DefaultPolicy is 10% tax and a flat 500 cent shipping fee.
func DefaultPolicy() Policy {
	return Policy{
		TaxRate:           decimal.RequireFromString(defaultTaxRate),
		FlatShippingCents: defaultFlatShippingCents,
	}
}

// PolicyFromConfig builds the policy from checkout configuration.
func PolicyFromConfig(cfg config.CheckoutConfig) (Policy, error) {
	rate, err := cfg.TaxRate()
	if err != nil {
		return Policy{}, err
	}
	if cfg.FlatShippingCents < 0 {
		return Policy{}, fmt.Errorf("flat shipping must be non-negative")
	}
	return Policy{TaxRate: rate, FlatShippingCents: cfg.FlatShippingCents}, nil
}

// Totals are the cached aggregates of a cart, all in cents.
type Totals struct {
	ItemCount  int64 `json:"num_items_in_cart"`
	Subtotal   int64 `json:"cart_total_cents"`
	Tax        int64 `json:"tax_cents"`
	Shipping   int64 `json:"shipping_cents"`
	OrderTotal int64 `json:"order_total_cents"`
}

// ComputeTotals derives the cart aggregates from its lines. Tax is rounded
// half-up to the cent; shipping applies only to a non-empty subtotal.
func ComputeTotals(lines []Line, policy Policy) Totals {
	var t Totals
	for _, line := range lines {
		t.ItemCount += line.Amount
		t.Subtotal += line.Amount * line.UnitPriceCents
	}
	if t.Subtotal > 0 {
		t.Tax = decimal.NewFromInt(t.Subtotal).Mul(policy.TaxRate).Round(0).IntPart()
		t.Shipping = policy.FlatShippingCents
	}
	t.OrderTotal = t.Subtotal + t.Tax + t.Shipping
	return t
}

// Recalculator rewrites a cart's cached totals from its current lines.
type Recalculator struct {
	repo   CartRepository
	policy Policy
}

// NewRecalculator binds the recalculator to the cart repository.
func NewRecalculator(repo CartRepository, policy Policy) (*Recalculator, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	return &Recalculator{repo: repo, policy: policy}, nil
}

// Recompute reloads the lines of cartID inside tx and persists fresh totals.
// Running it twice without a mutation in between writes the same values.
func (r *Recalculator) Recompute(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) (Totals, error) {
	repo := r.repo.WithTx(tx)
	lines, err := repo.LoadLines(ctx, cartID)
	if err != nil {
		return Totals{}, fmt.Errorf("load cart lines: %w", err)
	}
	totals := ComputeTotals(lines, r.policy)
	if err := repo.UpdateTotals(ctx, cartID, totals); err != nil {
		return Totals{}, fmt.Errorf("update cart totals: %w", err)
	}
	return totals, nil
}

// Policy returns the pricing policy in effect.
func (r *Recalculator) Policy() Policy {
	return r.policy
}
