package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cargoflow/tracking-system/internal/broadcast"
	"github.com/cargoflow/tracking-system/internal/core/domain"
	"github.com/cargoflow/tracking-system/internal/core/ports"
)

type stubSnapshotter struct {
	mu        sync.Mutex
	shipments []*domain.Shipment
	err       error
	calls     int
}

func (s *stubSnapshotter) Snapshot(context.Context) ([]*domain.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*domain.Shipment, len(s.shipments))
	for i, sh := range s.shipments {
		clone := *sh
		out[i] = &clone
	}
	return out, nil
}

func (s *stubSnapshotter) set(shipments []*domain.Shipment, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shipments = shipments
	s.err = err
}

type stubStream struct {
	events chan broadcast.Event
}

func (s *stubStream) Subscribe(context.Context) (<-chan broadcast.Event, error) {
	return s.events, nil
}

func shipmentFixture(id string, status domain.ShipmentStatus) *domain.Shipment {
	return &domain.Shipment{
		ShipmentID:      id,
		Carrier:         "CMA CGM",
		Status:          status,
		CurrentLocation: domain.GeoPoint{Lat: 1, Lng: 2},
		Speed:           400,
	}
}

func newTestReconciler(snap Snapshotter) *Reconciler {
	return New(snap, &stubStream{events: make(chan broadcast.Event)}, Config{}, zerolog.Nop())
}

func TestReconciler_ApplyMergesKnownShipments(t *testing.T) {
	snap := &stubSnapshotter{shipments: []*domain.Shipment{shipmentFixture("SHP-1", domain.StatusInTransit)}}
	rec := newTestReconciler(snap)
	if err := rec.Resync(context.Background()); err != nil {
		t.Fatalf("Resync returned error: %v", err)
	}

	at := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	rec.Apply(broadcast.Event{
		Type: broadcast.EventPositionUpdate,
		Position: &ports.PositionUpdate{
			ShipmentID:      "SHP-1",
			CurrentLocation: domain.GeoPoint{Lat: 5, Lng: 6},
			Status:          domain.StatusDelayed,
			Speed:           380,
			Timestamp:       at,
		},
	})

	got, ok := rec.Shipment("SHP-1")
	if !ok {
		t.Fatalf("shipment missing after merge")
	}
	if got.CurrentLocation.Lat != 5 || got.Status != domain.StatusDelayed || got.Speed != 380 {
		t.Fatalf("merge did not apply: %+v", got)
	}
	if !got.UpdatedAt.Equal(at) {
		t.Fatalf("merge must carry the event timestamp, got %v", got.UpdatedAt)
	}
	// Fields the ingestion path never mutates stay untouched.
	if got.Carrier != "CMA CGM" {
		t.Fatalf("merge touched an immutable field: %+v", got)
	}
}

func TestReconciler_ApplyIgnoresUnknownShipments(t *testing.T) {
	rec := newTestReconciler(&stubSnapshotter{})

	rec.Apply(broadcast.Event{
		Type:     broadcast.EventPositionUpdate,
		Position: &ports.PositionUpdate{ShipmentID: "SHP-GHOST"},
	})

	if _, ok := rec.Shipment("SHP-GHOST"); ok {
		t.Fatalf("unknown ids must wait for the next snapshot, not self-insert")
	}
}

func TestReconciler_AlertListIsBounded(t *testing.T) {
	rec := New(&stubSnapshotter{}, &stubStream{events: make(chan broadcast.Event)},
		Config{MaxAlerts: 5}, zerolog.Nop())

	for i := 0; i < 8; i++ {
		rec.Apply(broadcast.Event{
			Type:  broadcast.EventAlertCreated,
			Alert: &domain.Alert{ID: fmt.Sprintf("alert-%d", i)},
		})
	}

	alerts := rec.Alerts()
	if len(alerts) != 5 {
		t.Fatalf("expected alert list bounded at 5, got %d", len(alerts))
	}
	if alerts[0].ID != "alert-7" || alerts[4].ID != "alert-3" {
		t.Fatalf("expected newest-first retention, got %v ... %v", alerts[0].ID, alerts[4].ID)
	}
}

func TestReconciler_ResyncReplacesTableWholesale(t *testing.T) {
	snap := &stubSnapshotter{shipments: []*domain.Shipment{
		shipmentFixture("SHP-1", domain.StatusInTransit),
		shipmentFixture("SHP-2", domain.StatusInTransit),
	}}
	rec := newTestReconciler(snap)
	if err := rec.Resync(context.Background()); err != nil {
		t.Fatalf("Resync returned error: %v", err)
	}

	// SHP-2 disappears upstream; SHP-3 arrives.
	snap.set([]*domain.Shipment{
		shipmentFixture("SHP-1", domain.StatusDelayed),
		shipmentFixture("SHP-3", domain.StatusInTransit),
	}, nil)
	if err := rec.Resync(context.Background()); err != nil {
		t.Fatalf("Resync returned error: %v", err)
	}

	if _, ok := rec.Shipment("SHP-2"); ok {
		t.Fatalf("stale shipment survived the wholesale replace")
	}
	if _, ok := rec.Shipment("SHP-3"); !ok {
		t.Fatalf("new shipment missing after resync")
	}
	if got, _ := rec.Shipment("SHP-1"); got.Status != domain.StatusDelayed {
		t.Fatalf("resync must overwrite local state, got %s", got.Status)
	}
}

func TestReconciler_FailedResyncKeepsPreviousTable(t *testing.T) {
	snap := &stubSnapshotter{shipments: []*domain.Shipment{shipmentFixture("SHP-1", domain.StatusInTransit)}}
	rec := newTestReconciler(snap)
	if err := rec.Resync(context.Background()); err != nil {
		t.Fatalf("Resync returned error: %v", err)
	}

	snap.set(nil, errors.New("server unreachable"))
	if err := rec.Resync(context.Background()); err == nil {
		t.Fatalf("expected resync error")
	}

	if _, ok := rec.Shipment("SHP-1"); !ok {
		t.Fatalf("failed resync must keep the previous table")
	}
}

func TestReconciler_RunRecoversMissedEventsViaResync(t *testing.T) {
	// The stream never delivers anything; the shipment still converges
	// through the periodic snapshot.
	snap := &stubSnapshotter{shipments: []*domain.Shipment{shipmentFixture("SHP-1", domain.StatusInTransit)}}
	stream := &stubStream{events: make(chan broadcast.Event)}
	rec := New(snap, stream, Config{ResyncInterval: 10 * time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = rec.Run(ctx) }()

	snap.set([]*domain.Shipment{shipmentFixture("SHP-1", domain.StatusDelivered)}, nil)

	deadline := time.After(2 * time.Second)
	for {
		if got, ok := rec.Shipment("SHP-1"); ok && got.Status == domain.StatusDelivered {
			return
		}
		select {
		case <-deadline:
			got, _ := rec.Shipment("SHP-1")
			t.Fatalf("table never converged via resync, last state: %+v", got)
		case <-time.After(5 * time.Millisecond):
		}
	}
}
