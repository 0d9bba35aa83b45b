package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/cellar-backend/api"
	"github.com/angelmondragon/cellar-backend/api/routes"
	"github.com/angelmondragon/cellar-backend/internal/cart"
	"github.com/angelmondragon/cellar-backend/internal/checkout"
	"github.com/angelmondragon/cellar-backend/internal/favorites"
	"github.com/angelmondragon/cellar-backend/internal/orders"
	"github.com/angelmondragon/cellar-backend/internal/reviews"
	"github.com/angelmondragon/cellar-backend/internal/wines"
	"github.com/angelmondragon/cellar-backend/pkg/config"
	"github.com/angelmondragon/cellar-backend/pkg/db"
	"github.com/angelmondragon/cellar-backend/pkg/logger"
	"github.com/angelmondragon/cellar-backend/pkg/metrics"
	"github.com/angelmondragon/cellar-backend/pkg/migrate"
	"github.com/angelmondragon/cellar-backend/pkg/redis"
	"github.com/angelmondragon/cellar-backend/pkg/stripe"
)

const webhookEventTTL = 72 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		return err
	}
	provider, err := checkout.NewStripeProvider(stripeClient)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	policy, err := cart.PolicyFromConfig(cfg.Checkout)
	if err != nil {
		return err
	}
	returnURL, err := checkout.ReturnURL(cfg.App.PublicURL, cfg.Checkout.ReturnPath)
	if err != nil {
		return err
	}

	wineRepo := wines.NewRepository(dbClient.DB())
	reviewRepo := reviews.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	viewCache := cart.NewViewCache(redisClient, cfg.Checkout.CartViewTTL, logg)

	wineService, err := wines.NewService(wineRepo, reviewRepo)
	if err != nil {
		return err
	}
	reviewService, err := reviews.NewService(reviewRepo, wineRepo)
	if err != nil {
		return err
	}
	favoriteService, err := favorites.NewService(favorites.NewRepository(dbClient.DB()), wineRepo)
	if err != nil {
		return err
	}
	recalc, err := cart.NewRecalculator(cartRepo, policy)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cartRepo, dbClient, wineRepo, recalc, viewCache, metrics.NewCartMetrics(registry), logg)
	if err != nil {
		return err
	}
	orderService, err := orders.NewService(orderRepo, cartRepo, logg)
	if err != nil {
		return err
	}
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Orders:    orderRepo,
		Carts:     cartRepo,
		Tx:        dbClient,
		Provider:  provider,
		Cache:     viewCache,
		Metrics:   metrics.NewCheckoutMetrics(registry),
		Logger:    logg,
		ReturnURL: returnURL,
		Currency:  stripeClient.Currency(),
	})
	if err != nil {
		return err
	}
	webhookService, err := checkout.NewWebhookService(checkoutService, logg)
	if err != nil {
		return err
	}
	webhookGuard, err := checkout.NewIdempotencyGuard(redisClient, webhookEventTTL)
	if err != nil {
		return err
	}

	handler := routes.NewRouter(
		cfg,
		logg,
		registry,
		dbClient,
		redisClient,
		wineService,
		reviewService,
		favoriteService,
		cartService,
		orderService,
		checkoutService,
		stripeClient,
		webhookService,
		webhookGuard,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logg.Info(logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
	}), "starting api server")

	return api.NewServer(addr, handler, logg).Run(ctx)
}
