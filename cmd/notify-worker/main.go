package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/notify"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/watcher"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/config"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/logger"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/metrics"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "notify-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "notify-worker",
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

	var dispatcher notify.Dispatcher = notify.Noop{}
	if cfg.Notify.Enabled() {
		rfidMetrics := metrics.NewRFIDMetrics(prometheus.DefaultRegisterer)
		gateway, err := notify.NewGateway(cfg.Notify, logg, rfidMetrics)
		if err != nil {
			logg.Error(context.Background(), "failed to create notify gateway", err)
			os.Exit(1)
		}
		dispatcher = gateway
	} else {
		logg.Warn(context.Background(), "message gateway not configured, running in dry mode")
	}

	w, err := watcher.New(dbClient, dispatcher, logg, cfg.Watcher)
	if err != nil {
		logg.Error(context.Background(), "failed to create watcher", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Watcher.PollInterval.String(),
	})
	logg.Info(ctx, "starting notify worker")

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "notify worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "notify worker shutting down gracefully")
}
