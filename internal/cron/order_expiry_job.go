package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/cellar-backend/pkg/logger"
	"github.com/angelmondragon/cellar-backend/pkg/metrics"
)

const (
	orderExpiryJobName    = "expire-unpaid-orders"
	defaultUnpaidOrderTTL = 7 * 24 * time.Hour
	// Stripe checkout sessions live at most 24h, so an order whose last
	// session opened before the cutoff cannot still be paid.
	minUnpaidOrderTTL = 24 * time.Hour
)

type unpaidOrderPurger interface {
	DeleteUnpaidBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type OrderExpiryJobParams struct {
	Logger  *logger.Logger
	Orders  unpaidOrderPurger
	Metrics *metrics.JobMetrics
	TTL     time.Duration
	Clock   func() time.Time
}

// NewOrderExpiryJob removes pending orders nobody paid for within TTL of their
// last checkout session. The shopper's cart is untouched, so a new order can
// be created from it.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	ttl := params.TTL
	if ttl == 0 {
		ttl = defaultUnpaidOrderTTL
	}
	if ttl < minUnpaidOrderTTL {
		return nil, fmt.Errorf("unpaid order ttl must be at least %s", minUnpaidOrderTTL)
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Discard()
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &orderExpiryJob{logg: logg, orders: params.Orders, metrics: params.Metrics, ttl: ttl, now: now}, nil
}

type orderExpiryJob struct {
	logg    *logger.Logger
	orders  unpaidOrderPurger
	metrics *metrics.JobMetrics
	ttl     time.Duration
	now     func() time.Time
}

func (j *orderExpiryJob) Name() string { return orderExpiryJobName }

func (j *orderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	removed, err := j.orders.DeleteUnpaidBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete unpaid orders: %w", err)
	}
	j.metrics.AddAffected(orderExpiryJobName, removed)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"removed": removed,
	}), "cron.unpaid_orders_expired")
	return nil
}
