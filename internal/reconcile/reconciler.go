// Package reconcile maintains a viewer's local shipment table by merging
// pushed broadcast events with a periodic full-snapshot fallback, bounding
// staleness to one resync interval even if the push channel silently fails.
package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cargoflow/tracking-system/internal/broadcast"
	"github.com/cargoflow/tracking-system/internal/core/domain"
)

const (
	DefaultResyncInterval   = 30 * time.Second
	DefaultMaxAlerts        = 100
	DefaultReconnectBackoff = 2 * time.Second
)

// Snapshotter fetches the full shipment table.
type Snapshotter interface {
	Snapshot(ctx context.Context) ([]*domain.Shipment, error)
}

// Stream is one subscription attempt against the broadcast channel. The
// returned channel closes when the transport drops; the reconciler then
// resubscribes.
type Stream interface {
	Subscribe(ctx context.Context) (<-chan broadcast.Event, error)
}

// Config tunes the reconciler. Zero values fall back to the defaults.
type Config struct {
	ResyncInterval   time.Duration
	MaxAlerts        int
	ReconnectBackoff time.Duration
}

// Reconciler owns one viewer's local state. Position events merge into the
// table by shipment id; alert events prepend to a bounded list; the timer
// replaces the table wholesale from a fresh snapshot.
type Reconciler struct {
	snap   Snapshotter
	stream Stream
	cfg    Config
	log    zerolog.Logger

	mu        sync.RWMutex
	shipments map[string]*domain.Shipment
	alerts    []*domain.Alert
}

// New builds a reconciler; Run starts it.
func New(snap Snapshotter, stream Stream, cfg Config, log zerolog.Logger) *Reconciler {
	if cfg.ResyncInterval <= 0 {
		cfg.ResyncInterval = DefaultResyncInterval
	}
	if cfg.MaxAlerts <= 0 {
		cfg.MaxAlerts = DefaultMaxAlerts
	}
	if cfg.ReconnectBackoff <= 0 {
		cfg.ReconnectBackoff = DefaultReconnectBackoff
	}
	return &Reconciler{
		snap:      snap,
		stream:    stream,
		cfg:       cfg,
		log:       log,
		shipments: make(map[string]*domain.Shipment),
	}
}

// Run fetches the initial snapshot, consumes push events and resyncs on
// the timer until ctx is cancelled. A failed fetch leaves the previous
// table intact and retries on the next tick.
func (r *Reconciler) Run(ctx context.Context) error {
	if err := r.Resync(ctx); err != nil {
		r.log.Warn().Err(err).Msg("initial snapshot failed, starting empty")
	}

	go r.consume(ctx)

	ticker := time.NewTicker(r.cfg.ResyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Resync(ctx); err != nil {
				r.log.Warn().Err(err).Msg("snapshot resync failed, keeping previous table")
			}
		}
	}
}

// consume keeps a subscription alive, resubscribing with backoff after
// every drop. Events missed while disconnected are recovered by the next
// timer-driven snapshot, not retransmitted.
func (r *Reconciler) consume(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		events, err := r.stream.Subscribe(ctx)
		if err != nil {
			r.log.Warn().Err(err).Dur("backoff", r.cfg.ReconnectBackoff).Msg("subscribe failed, retrying")
			if !sleep(ctx, r.cfg.ReconnectBackoff) {
				return
			}
			continue
		}

		for ev := range events {
			r.Apply(ev)
		}

		r.log.Info().Msg("event stream ended, reconnecting")
		if !sleep(ctx, r.cfg.ReconnectBackoff) {
			return
		}
	}
}

// Apply merges one broadcast event into local state.
func (r *Reconciler) Apply(ev broadcast.Event) {
	switch ev.Type {
	case broadcast.EventPositionUpdate:
		if ev.Position == nil {
			return
		}
		r.mu.Lock()
		if s, ok := r.shipments[ev.Position.ShipmentID]; ok {
			// Identifier-keyed merge: only the fields the ingestion path
			// mutates. Unknown ids appear with the next snapshot.
			s.CurrentLocation = ev.Position.CurrentLocation
			s.Status = ev.Position.Status
			s.Speed = ev.Position.Speed
			s.UpdatedAt = ev.Position.Timestamp
		}
		r.mu.Unlock()

	case broadcast.EventAlertCreated:
		if ev.Alert == nil {
			return
		}
		r.mu.Lock()
		r.alerts = append([]*domain.Alert{ev.Alert}, r.alerts...)
		if len(r.alerts) > r.cfg.MaxAlerts {
			r.alerts = r.alerts[:r.cfg.MaxAlerts]
		}
		r.mu.Unlock()
	}
}

// Resync replaces the local table wholesale with a fresh snapshot.
func (r *Reconciler) Resync(ctx context.Context) error {
	shipments, err := r.snap.Snapshot(ctx)
	if err != nil {
		return err
	}

	table := make(map[string]*domain.Shipment, len(shipments))
	for _, s := range shipments {
		table[s.ShipmentID] = s
	}

	r.mu.Lock()
	r.shipments = table
	r.mu.Unlock()

	r.log.Debug().Int("shipments", len(table)).Msg("snapshot applied")
	return nil
}

// Shipment returns the viewer's current copy of one shipment.
func (r *Reconciler) Shipment(id string) (domain.Shipment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shipments[id]
	if !ok {
		return domain.Shipment{}, false
	}
	return *s, true
}

// Shipments returns a copy of the local shipment table.
func (r *Reconciler) Shipments() []domain.Shipment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Shipment, 0, len(r.shipments))
	for _, s := range r.shipments {
		out = append(out, *s)
	}
	return out
}

// Alerts returns a copy of the bounded local alert list, newest first.
func (r *Reconciler) Alerts() []domain.Alert {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Alert, 0, len(r.alerts))
	for _, a := range r.alerts {
		out = append(out, *a)
	}
	return out
}

// sleep waits d or until ctx is done; reports whether the wait completed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
