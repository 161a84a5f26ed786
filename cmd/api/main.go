package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/hazelpoint/rewards-backend/api/routes"
	"github.com/hazelpoint/rewards-backend/internal/rewards"
	orderswebhook "github.com/hazelpoint/rewards-backend/internal/webhooks/orders"
	"github.com/hazelpoint/rewards-backend/pkg/config"
	"github.com/hazelpoint/rewards-backend/pkg/db"
	"github.com/hazelpoint/rewards-backend/pkg/logger"
	"github.com/hazelpoint/rewards-backend/pkg/mailchimp"
	"github.com/hazelpoint/rewards-backend/pkg/migrate"
	"github.com/hazelpoint/rewards-backend/pkg/outbox"
	"github.com/hazelpoint/rewards-backend/pkg/redis"
	"github.com/hazelpoint/rewards-backend/pkg/shopify"
)

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	shopifyClient, err := shopify.NewClient(context.Background(), cfg.Shopify, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap shopify client", err)
		os.Exit(1)
	}

	// Mailchimp is only dialed by the worker; the API validates its config up
	// front so a bad key fails loud at boot, not at first signup.
	if _, err := mailchimp.NewClient(context.Background(), cfg.Mailchimp, logg); err != nil {
		logg.Error(context.Background(), "failed to validate mailchimp config", err)
		os.Exit(1)
	}

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	rewardsSvc, err := rewards.NewService(rewards.ServiceParams{
		Repo:      rewards.NewRepository(dbClient.DB()),
		Tx:        dbClient,
		Discounts: shopifyClient,
		Spend:     shopifyClient,
		Outbox:    outboxSvc,
		Config:    cfg.Rewards,
		Tiers:     rewards.DefaultTiers(),
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create rewards service", err)
		os.Exit(1)
	}

	guard, err := orderswebhook.NewIdempotencyGuard(redisClient, cfg.Redis.IdempotencyTTL, "orders.paid")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Rewards:   rewardsSvc,
			Purchases: rewardsSvc,
			Secrets:   shopifyClient,
			Guard:     guard,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
