package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hazelpoint/rewards-backend/internal/subscribers"
	"github.com/hazelpoint/rewards-backend/pkg/config"
	"github.com/hazelpoint/rewards-backend/pkg/db"
	"github.com/hazelpoint/rewards-backend/pkg/logger"
	"github.com/hazelpoint/rewards-backend/pkg/mailchimp"
	"github.com/hazelpoint/rewards-backend/pkg/metrics"
	"github.com/hazelpoint/rewards-backend/pkg/migrate"
	"github.com/hazelpoint/rewards-backend/pkg/outbox"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
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

	listClient, err := mailchimp.NewClient(context.Background(), cfg.Mailchimp, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap mailchimp client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	service, err := subscribers.NewService(subscribers.ServiceParams{
		Repo:    outbox.NewRepository(dbClient.DB()),
		List:    listClient,
		Config:  cfg.Outbox,
		Metrics: metrics.NewSubscriberMetrics(registry),
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscriber worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting subscriber worker")

	metricsAddr := os.Getenv("METRICS_PORT")
	if metricsAddr == "" {
		metricsAddr = "9091"
	}
	metricsServer := &http.Server{Addr: ":" + metricsAddr, Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{})}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()
	defer metricsServer.Close()

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "subscriber worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "subscriber worker shutting down gracefully")
}
