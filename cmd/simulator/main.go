package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cargoflow/tracking-system/internal/core/ports"
	"github.com/cargoflow/tracking-system/internal/infrastructure/config"
	mongodb "github.com/cargoflow/tracking-system/internal/infrastructure/db/mongo"
	"github.com/cargoflow/tracking-system/internal/simulator"
	"github.com/cargoflow/tracking-system/pkg/logger"
)

// webhookSubmitter delivers simulated reports over HTTP, the same path a
// real carrier integration would use.
type webhookSubmitter struct {
	url    string
	client *http.Client
}

type webhookPayload struct {
	ShipmentID string   `json:"shipment_id"`
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	Speed      *float64 `json:"speed,omitempty"`
	Status     string   `json:"status,omitempty"`
}

func (w *webhookSubmitter) Submit(ctx context.Context, report ports.PositionReportInput) error {
	body, err := json.Marshal(webhookPayload{
		ShipmentID: report.ShipmentID,
		Lat:        report.Lat,
		Lng:        report.Lng,
		Speed:      report.Speed,
		Status:     report.Status,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

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

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	submitter := &webhookSubmitter{
		url:    cfg.Simulator.WebhookURL,
		client: &http.Client{Timeout: 10 * time.Second},
	}

	sim := simulator.New(mongodb.NewShipmentRepository(db), submitter, log,
		simulator.WithInterval(cfg.Simulator.TickInterval))

	log.Info().
		Str("webhook", cfg.Simulator.WebhookURL).
		Dur("interval", cfg.Simulator.TickInterval).
		Msg("trajectory simulator started")

	if err := sim.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("simulator stopped")
	}
}
