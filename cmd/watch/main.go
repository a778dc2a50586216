// Command watch tails a tracking server from the terminal. It keeps a
// local fleet table through the same merge-plus-resync protocol the web
// dashboard uses and prints a summary on every change.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cargoflow/tracking-system/internal/reconcile"
	"github.com/cargoflow/tracking-system/pkg/logger"
)

func main() {
	var (
		server   = flag.String("server", "http://localhost:8080", "tracking server base URL")
		region   = flag.String("region", "", "limit the table to one region")
		resync   = flag.Duration("resync", reconcile.DefaultResyncInterval, "full snapshot interval")
		interval = flag.Duration("print", 5*time.Second, "print interval")
	)
	flag.Parse()

	log := logger.Init(logger.Options{Level: "info", Pretty: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wsURL := strings.Replace(*server, "http", "ws", 1) + "/ws"

	rec := reconcile.New(
		&reconcile.HTTPSnapshotter{
			BaseURL: *server,
			Region:  *region,
			Client:  &http.Client{Timeout: 10 * time.Second},
		},
		&reconcile.WSStream{URL: wsURL},
		reconcile.Config{ResyncInterval: *resync},
		log,
	)

	go func() {
		if err := rec.Run(ctx); err != nil && ctx.Err() == nil {
			log.Fatal().Err(err).Msg("reconciler stopped")
		}
	}()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			shipments := rec.Shipments()
			alerts := rec.Alerts()
			for _, s := range shipments {
				log.Info().
					Str("shipment_id", s.ShipmentID).
					Str("status", string(s.Status)).
					Float64("lat", s.CurrentLocation.Lat).
					Float64("lng", s.CurrentLocation.Lng).
					Float64("speed", s.Speed).
					Msg("shipment")
			}
			log.Info().
				Int("shipments", len(shipments)).
				Int("alerts", len(alerts)).
				Msg("fleet summary")
		}
	}
}
