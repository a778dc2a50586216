package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cargoflow/tracking-system/internal/api"
	"github.com/cargoflow/tracking-system/internal/broadcast"
	"github.com/cargoflow/tracking-system/internal/core/service"
	"github.com/cargoflow/tracking-system/internal/infrastructure/config"
	mongodb "github.com/cargoflow/tracking-system/internal/infrastructure/db/mongo"
	redisdb "github.com/cargoflow/tracking-system/internal/infrastructure/db/redis"
	"github.com/cargoflow/tracking-system/internal/infrastructure/queue"
	"github.com/cargoflow/tracking-system/internal/simulator"
	"github.com/cargoflow/tracking-system/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.Init(logger.Options{})
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- MongoDB ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	shipmentRepo := mongodb.NewShipmentRepository(db)
	alertRepo := mongodb.NewAlertRepository(db)
	if err := shipmentRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure shipment indexes")
	}
	if err := alertRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure alert indexes")
	}

	// --- Redis (broadcast bridge + readiness probe); optional ---
	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, running single-instance broadcast")
		rdb = nil
	} else {
		defer func() { _ = rdb.Close() }()
	}

	// --- Broadcast hub ---
	hub := broadcast.NewHub(log)
	if rdb != nil && cfg.Redis.BridgeChannel != "" {
		bridge := broadcast.NewBridge(rdb, hub, cfg.Redis.BridgeChannel, log)
		go func() {
			if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("broadcast bridge stopped")
			}
		}()
	}

	// --- Core services ---
	policy := service.NewAlertPolicy(cfg.Ingest.AlertSampleRate, nil)
	ingestSvc := service.NewIngestService(shipmentRepo, alertRepo, policy, hub, log)
	shipmentSvc := service.NewShipmentService(shipmentRepo, log)
	alertSvc := service.NewAlertService(alertRepo, log)

	dispatcher := queue.NewDispatcher(cfg.Ingest.BatchWorkers, ingestSvc, log)
	dispatcher.Start(ctx)

	// --- Embedded simulator (optional; usually runs as its own binary) ---
	if cfg.Simulator.Enabled {
		sim := simulator.New(shipmentRepo, simulator.ServiceSubmitter{Service: ingestSvc}, log,
			simulator.WithInterval(cfg.Simulator.TickInterval))
		go func() { _ = sim.Run(ctx) }()
	}

	// --- HTTP server ---
	e := api.NewRouter(api.Deps{
		DB:         db,
		RDB:        rdb,
		Ingest:     ingestSvc,
		Shipments:  shipmentSvc,
		Alerts:     alertSvc,
		Dispatcher: dispatcher,
		Hub:        hub,
		JWTSecret:  cfg.JWTSecret,
		Log:        log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("tracking server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
