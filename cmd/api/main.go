package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/routes"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/audit"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/catalog"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/notify"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/orders"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/readers"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/registry"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/schema"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/tracking"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/config"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/logger"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/metrics"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/migrate"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/redis"
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

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, scan rate limiting disabled")
	}

	rfidMetrics := metrics.NewRFIDMetrics(prometheus.DefaultRegisterer)

	auditRec, err := audit.NewRecorder(dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit recorder", err)
		os.Exit(1)
	}

	statusFallback, err := cfg.Tracking.StatusFallbackMap()
	if err != nil {
		logg.Error(context.Background(), "invalid status fallback config", err)
		os.Exit(1)
	}
	catalogSvc, err := catalog.NewService(dbClient, auditRec, statusFallback)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	var dispatcher notify.Dispatcher = notify.Noop{}
	if cfg.Notify.Enabled() {
		gateway, err := notify.NewGateway(cfg.Notify, logg, rfidMetrics)
		if err != nil {
			logg.Error(context.Background(), "failed to create notify gateway", err)
			os.Exit(1)
		}
		dispatcher = gateway
	} else {
		logg.Warn(context.Background(), "message gateway not configured, notifications disabled")
	}

	prober, err := schema.NewDBProber(dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create schema prober", err)
		os.Exit(1)
	}

	trackingSvc, err := tracking.NewService(
		dbClient,
		prober,
		catalogSvc,
		auditRec,
		dispatcher,
		rfidMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create tracking service", err)
		os.Exit(1)
	}

	readersSvc, err := readers.NewService(dbClient, cfg.ReaderKeys, auditRec)
	if err != nil {
		logg.Error(context.Background(), "failed to create readers service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(dbClient, catalogSvc, auditRec)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	registrySvc, err := registry.NewService(dbClient, auditRec)
	if err != nil {
		logg.Error(context.Background(), "failed to create registry service", err)
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
		Handler: routes.NewRouter(
			cfg, logg, dbClient, redisClient,
			trackingSvc, readersSvc, catalogSvc, ordersSvc, registrySvc, auditRec,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
