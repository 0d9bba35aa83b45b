package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/cellar-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/cellar-backend/api/controllers/cart"
	checkoutcontrollers "github.com/angelmondragon/cellar-backend/api/controllers/checkout"
	ordercontrollers "github.com/angelmondragon/cellar-backend/api/controllers/orders"
	webhookcontrollers "github.com/angelmondragon/cellar-backend/api/controllers/webhooks"
	"github.com/angelmondragon/cellar-backend/api/middleware"
	"github.com/angelmondragon/cellar-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/cellar-backend/internal/checkout"
	"github.com/angelmondragon/cellar-backend/internal/favorites"
	"github.com/angelmondragon/cellar-backend/internal/orders"
	"github.com/angelmondragon/cellar-backend/internal/reviews"
	"github.com/angelmondragon/cellar-backend/internal/wines"
	"github.com/angelmondragon/cellar-backend/pkg/config"
	"github.com/angelmondragon/cellar-backend/pkg/logger"
	"github.com/angelmondragon/cellar-backend/pkg/metrics"
	"github.com/angelmondragon/cellar-backend/pkg/redis"
	"github.com/angelmondragon/cellar-backend/pkg/stripe"
)

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	registry *prometheus.Registry,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	wineService wines.Service,
	reviewService reviews.Service,
	favoriteService favorites.Service,
	cartService cart.Service,
	orderService orders.Service,
	checkoutService checkoutsvc.Service,
	stripeClient *stripe.Client,
	stripeWebhookService *checkoutsvc.WebhookService,
	stripeWebhookGuard *checkoutsvc.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, metrics.NewHTTPMetrics(registry)),
		middleware.CORS(cfg.App.StorefrontURL),
	)

	cartPolicy := middleware.RateLimitPolicy{
		Name:   "cart",
		Window: cfg.RateLimit.CartWindow,
		Limit:  cfg.RateLimit.CartLimit,
	}
	checkoutPolicy := middleware.RateLimitPolicy{
		Name:   "checkout",
		Window: cfg.RateLimit.CheckoutWindow,
		Limit:  cfg.RateLimit.CheckoutLimit,
	}

	var (
		idempotencyStore redis.IdempotencyStore
		limiter          rateLimiter
		webhookHandler   webhookcontrollers.StripeEventHandler
		webhookGuard     webhookcontrollers.EventGuard
		webhookSigner    webhookcontrollers.SigningSecretSource
	)
	if redisClient != nil {
		idempotencyStore = redisClient
		limiter = redisClient
	}
	if stripeWebhookService != nil {
		webhookHandler = stripeWebhookService
	}
	if stripeWebhookGuard != nil {
		webhookGuard = stripeWebhookGuard
	}
	if stripeClient != nil {
		webhookSigner = stripeClient
	}

	readiness := map[string]controllers.Pinger{}
	if dbP != nil {
		readiness["db"] = dbP
	}
	if redisClient != nil {
		readiness["redis"] = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Get("/checkout/return", checkoutcontrollers.Return(checkoutService, cfg.App.StorefrontURL, logg))

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(webhookHandler, webhookSigner, webhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(cfg.JWT, logg))

		r.Route("/wines", func(r chi.Router) {
			r.Get("/", controllers.WineList(wineService, logg))
			r.Get("/{wineId}", controllers.WineDetail(wineService, logg))
			r.Get("/{wineId}/reviews", controllers.ReviewList(reviewService, logg))
			r.With(middleware.RequireIdentity(cfg.JWT, logg)).Put("/{wineId}/reviews", controllers.ReviewUpsert(reviewService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(cartService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(cartPolicy, limiter, logg))
				r.Post("/items", cartcontrollers.CartAddItem(cartService, logg))
				r.Patch("/items/{itemId}", cartcontrollers.CartUpdateItem(cartService, logg))
				r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(cartService, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireIdentity(cfg.JWT, logg))

			r.Route("/favorites", func(r chi.Router) {
				r.Get("/", controllers.FavoriteList(favoriteService, logg))
				r.Post("/{wineId}", controllers.FavoriteAdd(favoriteService, logg))
				r.Delete("/{wineId}", controllers.FavoriteRemove(favoriteService, logg))
			})

			r.Get("/orders", ordercontrollers.List(orderService, logg))
			r.With(middleware.Idempotency(idempotencyStore, logg)).Post("/orders", ordercontrollers.Create(orderService, logg))

			r.Route("/checkout", func(r chi.Router) {
				r.Use(middleware.RateLimit(checkoutPolicy, limiter, logg))
				r.With(middleware.Idempotency(idempotencyStore, logg)).Post("/sessions", checkoutcontrollers.StartSession(checkoutService, logg))
				r.Post("/confirm", checkoutcontrollers.Confirm(checkoutService, logg))
			})
		})
	})

	return r
}
