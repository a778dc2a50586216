// Package simulator advances active shipments along their precomputed
// routes, submitting position reports through the same ingestion entry
// point real devices use.
package simulator

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cargoflow/tracking-system/internal/core/domain"
	"github.com/cargoflow/tracking-system/internal/core/ports"
)

// DefaultTickInterval is the pause between simulation pulses.
const DefaultTickInterval = 10 * time.Second

// Submitter delivers one report to the ingestion entry point. In-process
// wiring calls the ingest service directly; the standalone binary posts to
// the webhook.
type Submitter interface {
	Submit(ctx context.Context, report ports.PositionReportInput) error
}

// ServiceSubmitter submits reports straight into the ingest service.
type ServiceSubmitter struct {
	Service ports.IngestService
}

func (s ServiceSubmitter) Submit(ctx context.Context, report ports.PositionReportInput) error {
	return s.Service.Ingest(ctx, report)
}

// Simulator owns a per-shipment cursor into each route. Cursors are
// process-local: after a restart they are rebuilt from the shipment's
// stored location by nearest-waypoint recompute, so progress does not
// visibly reset.
type Simulator struct {
	shipments ports.ShipmentRepository
	submit    Submitter
	interval  time.Duration
	speed     func() float64
	log       zerolog.Logger

	mu      sync.Mutex
	cursors map[string]int
}

// Option tweaks simulator construction.
type Option func(*Simulator)

// WithSpeed overrides the reported speed source (default 400 to 450).
func WithSpeed(speed func() float64) Option {
	return func(s *Simulator) { s.speed = speed }
}

// WithInterval overrides the tick interval.
func WithInterval(d time.Duration) Option {
	return func(s *Simulator) { s.interval = d }
}

// New builds a simulator over the given store and submitter.
func New(shipments ports.ShipmentRepository, submit Submitter, log zerolog.Logger, opts ...Option) *Simulator {
	s := &Simulator{
		shipments: shipments,
		submit:    submit,
		interval:  DefaultTickInterval,
		speed:     func() float64 { return 400 + rand.Float64()*50 },
		log:       log,
		cursors:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ticks until ctx is cancelled. Continuous operation is favored over
// any single shipment's completeness: per-report failures never halt the
// loop.
func (s *Simulator) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("simulator running")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick fetches the active fleet and advances every shipment in parallel.
// The shipment list is refreshed each cycle to catch new arrivals.
func (s *Simulator) Tick(ctx context.Context) {
	active, err := s.shipments.List(ctx, ports.ListShipmentsFilter{
		Statuses: []domain.ShipmentStatus{domain.StatusInTransit, domain.StatusDelayed},
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("tick: failed to list active shipments, skipping cycle")
		return
	}

	g := new(errgroup.Group)
	for _, shipment := range active {
		shipment := shipment
		g.Go(func() error {
			s.advance(ctx, shipment)
			return nil
		})
	}
	_ = g.Wait()

	s.log.Debug().Int("active", len(active)).Msg("simulation pulse complete")
}

// advance moves one shipment a single waypoint forward and submits the
// resulting report. Submit failures are logged and swallowed.
func (s *Simulator) advance(ctx context.Context, shipment *domain.Shipment) {
	route := shipment.Route
	if len(route) == 0 {
		return
	}

	s.mu.Lock()
	idx, ok := s.cursors[shipment.ShipmentID]
	if !ok {
		idx = nearestWaypoint(route, shipment.CurrentLocation)
		s.cursors[shipment.ShipmentID] = idx
	}
	if idx >= len(route)-1 {
		s.mu.Unlock()
		return
	}
	idx++
	s.cursors[shipment.ShipmentID] = idx
	s.mu.Unlock()

	point := route[idx]
	speed := s.speed()
	report := ports.PositionReportInput{
		ShipmentID: shipment.ShipmentID,
		Lat:        point.Lat,
		Lng:        point.Lng,
		Speed:      &speed,
		Timestamp:  time.Now().UTC(),
	}
	// Redundant with the ingestion path's forced terminal transition, but
	// explicit for any consumer inspecting the raw report.
	if idx == len(route)-1 {
		report.Status = string(domain.StatusDelivered)
	}

	if err := s.submit.Submit(ctx, report); err != nil {
		s.log.Warn().Err(err).
			Str("shipment_id", shipment.ShipmentID).
			Int("waypoint", idx).
			Msg("report submission failed")
	}
}

// CursorFor exposes the current cursor for one shipment; used by tests
// and the simulator's status log line.
func (s *Simulator) CursorFor(shipmentID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.cursors[shipmentID]
	return idx, ok
}

// nearestWaypoint returns the index of the route point closest to loc.
// Squared equirectangular distance is enough here: consecutive waypoints
// are close together and only relative order matters.
func nearestWaypoint(route []domain.GeoPoint, loc domain.GeoPoint) int {
	best := 0
	bestDist := distSq(route[0], loc)
	for i := 1; i < len(route); i++ {
		if d := distSq(route[i], loc); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

func distSq(a, b domain.GeoPoint) float64 {
	dLat := a.Lat - b.Lat
	dLng := a.Lng - b.Lng
	return dLat*dLat + dLng*dLng
}
