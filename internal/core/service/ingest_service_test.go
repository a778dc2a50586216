package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cargoflow/tracking-system/internal/core/domain"
	"github.com/cargoflow/tracking-system/internal/core/ports"
)

type stubShipmentRepo struct {
	shipments map[string]*domain.Shipment
	applyErr  error
	applied   []ports.PositionMutation
}

func newStubShipmentRepo(shipments ...*domain.Shipment) *stubShipmentRepo {
	r := &stubShipmentRepo{shipments: make(map[string]*domain.Shipment)}
	for _, s := range shipments {
		r.shipments[s.ShipmentID] = s
	}
	return r
}

func cloneShipment(s *domain.Shipment) *domain.Shipment {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

func (r *stubShipmentRepo) Create(_ context.Context, s *domain.Shipment) error {
	if _, exists := r.shipments[s.ShipmentID]; exists {
		return domain.ErrDuplicateShipment
	}
	r.shipments[s.ShipmentID] = cloneShipment(s)
	return nil
}

func (r *stubShipmentRepo) FindByID(_ context.Context, id string) (*domain.Shipment, error) {
	s, ok := r.shipments[id]
	if !ok {
		return nil, domain.ErrShipmentNotFound
	}
	return cloneShipment(s), nil
}

func (r *stubShipmentRepo) List(_ context.Context, filter ports.ListShipmentsFilter) ([]*domain.Shipment, error) {
	var out []*domain.Shipment
	for _, s := range r.shipments {
		if filter.Region != "" && s.Region != filter.Region {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, st := range filter.Statuses {
				if s.Status == st {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, cloneShipment(s))
	}
	return out, nil
}

func (r *stubShipmentRepo) ApplyPosition(_ context.Context, id string, m ports.PositionMutation) error {
	if r.applyErr != nil {
		return r.applyErr
	}
	s, ok := r.shipments[id]
	if !ok {
		return domain.ErrShipmentNotFound
	}
	s.CurrentLocation = m.Location
	s.Status = m.Status
	s.Speed = m.Speed
	s.UpdatedAt = m.Timestamp
	r.applied = append(r.applied, m)
	return nil
}

func (r *stubShipmentRepo) CountByStatus(_ context.Context) (int64, map[domain.ShipmentStatus]int64, error) {
	byStatus := make(map[domain.ShipmentStatus]int64)
	for _, s := range r.shipments {
		byStatus[s.Status]++
	}
	return int64(len(r.shipments)), byStatus, nil
}

type stubAlertRepo struct {
	alerts    []*domain.Alert
	insertErr error
}

func (r *stubAlertRepo) Insert(_ context.Context, a *domain.Alert) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	clone := *a
	r.alerts = append([]*domain.Alert{&clone}, r.alerts...)
	return nil
}

func (r *stubAlertRepo) ListRecent(_ context.Context, limit int) ([]*domain.Alert, error) {
	if limit > len(r.alerts) {
		limit = len(r.alerts)
	}
	return r.alerts[:limit], nil
}

func (r *stubAlertRepo) MarkRead(_ context.Context, id string) (*domain.Alert, error) {
	for _, a := range r.alerts {
		if a.ID == id {
			a.Read = true
			return a, nil
		}
	}
	return nil, domain.ErrAlertNotFound
}

func (r *stubAlertRepo) DeleteAll(_ context.Context) (int64, error) {
	n := int64(len(r.alerts))
	r.alerts = nil
	return n, nil
}

type recordingBroadcaster struct {
	positions []ports.PositionUpdate
	alerts    []*domain.Alert
}

func (b *recordingBroadcaster) PublishPosition(update ports.PositionUpdate) {
	b.positions = append(b.positions, update)
}

func (b *recordingBroadcaster) PublishAlert(alert *domain.Alert) {
	b.alerts = append(b.alerts, alert)
}

func testShipment() *domain.Shipment {
	return &domain.Shipment{
		ShipmentID: "SHP-2026-001",
		Carrier:    "Maersk Line",
		VesselName: "Emma Maersk",
		Mode:       domain.ModeSea,
		CurrentLocation: domain.GeoPoint{Lat: 31.2304, Lng: 121.4737},
		Route: []domain.GeoPoint{
			{Lat: 31.2304, Lng: 121.4737},
			{Lat: 25.0, Lng: 100.0},
			{Lat: 10.0, Lng: 80.0},
			{Lat: 1.2644, Lng: 103.8220},
		},
		Status: domain.StatusInTransit,
		Speed:  420,
		Region: "Asia-Pacific",
	}
}

// neverSample makes ordinary location updates never persist an alert, so
// tests isolate the transition behaviour.
func neverSample() float64 { return 0.99 }

// alwaysSample pins every sampling decision to "persist".
func alwaysSample() float64 { return 0.0 }

func newTestIngest(repo *stubShipmentRepo, alerts *stubAlertRepo, hub *recordingBroadcaster, randFloat func() float64) ports.IngestService {
	policy := NewAlertPolicy(DefaultSampleRate, randFloat)
	return NewIngestService(repo, alerts, policy, hub, zerolog.Nop())
}

func TestIngest_UnknownShipment(t *testing.T) {
	repo := newStubShipmentRepo()
	alerts := &stubAlertRepo{}
	hub := &recordingBroadcaster{}
	svc := newTestIngest(repo, alerts, hub, neverSample)

	err := svc.Ingest(context.Background(), ports.PositionReportInput{
		ShipmentID: "SHP-MISSING", Lat: 10, Lng: 20,
	})
	if !errors.Is(err, domain.ErrShipmentNotFound) {
		t.Fatalf("expected ErrShipmentNotFound, got %v", err)
	}
	if len(hub.positions) != 0 || len(hub.alerts) != 0 {
		t.Fatalf("expected no broadcasts for unknown shipment")
	}
	if len(alerts.alerts) != 0 {
		t.Fatalf("expected no alert records for unknown shipment")
	}
}

func TestIngest_InvalidInput(t *testing.T) {
	repo := newStubShipmentRepo(testShipment())
	hub := &recordingBroadcaster{}
	svc := newTestIngest(repo, &stubAlertRepo{}, hub, neverSample)

	cases := []ports.PositionReportInput{
		{ShipmentID: "", Lat: 10, Lng: 20},
		{ShipmentID: "SHP-2026-001", Lat: 91, Lng: 20},
		{ShipmentID: "SHP-2026-001", Lat: -91, Lng: 20},
		{ShipmentID: "SHP-2026-001", Lat: 10, Lng: 181},
		{ShipmentID: "SHP-2026-001", Lat: 10, Lng: -181},
		{ShipmentID: "SHP-2026-001", Lat: 10, Lng: 20, Status: "Teleporting"},
	}
	for _, in := range cases {
		if err := svc.Ingest(context.Background(), in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("input %+v: expected ErrInvalidInput, got %v", in, err)
		}
	}
	if len(repo.applied) != 0 {
		t.Fatalf("invalid input must be rejected before any mutation")
	}
	if len(hub.positions) != 0 {
		t.Fatalf("invalid input must not broadcast")
	}
}

func TestIngest_PositionUpdateBroadcastsEveryReport(t *testing.T) {
	repo := newStubShipmentRepo(testShipment())
	alerts := &stubAlertRepo{}
	hub := &recordingBroadcaster{}
	svc := newTestIngest(repo, alerts, hub, neverSample)

	speed := 433.0
	err := svc.Ingest(context.Background(), ports.PositionReportInput{
		ShipmentID: "SHP-2026-001", Lat: 25.0, Lng: 100.0, Speed: &speed,
	})
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}

	if len(hub.positions) != 1 {
		t.Fatalf("expected 1 position broadcast, got %d", len(hub.positions))
	}
	got := hub.positions[0]
	if got.ShipmentID != "SHP-2026-001" || got.CurrentLocation.Lat != 25.0 || got.Speed != 433.0 {
		t.Fatalf("unexpected broadcast payload: %+v", got)
	}
	if got.Status != domain.StatusInTransit {
		t.Fatalf("expected status preserved, got %s", got.Status)
	}
	if len(hub.alerts) != 0 || len(alerts.alerts) != 0 {
		t.Fatalf("sampled-out report must not create an alert")
	}

	stored, _ := repo.FindByID(context.Background(), "SHP-2026-001")
	if stored.CurrentLocation.Lat != 25.0 || stored.Speed != 433.0 {
		t.Fatalf("shipment state not updated: %+v", stored)
	}
}

func TestIngest_StatusTransitionAlwaysAlerts(t *testing.T) {
	repo := newStubShipmentRepo(testShipment())
	alerts := &stubAlertRepo{}
	hub := &recordingBroadcaster{}
	svc := newTestIngest(repo, alerts, hub, neverSample)

	err := svc.Ingest(context.Background(), ports.PositionReportInput{
		ShipmentID: "SHP-2026-001", Lat: 25.0, Lng: 100.0, Status: string(domain.StatusDelayed),
	})
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}

	if len(alerts.alerts) != 1 {
		t.Fatalf("expected exactly one alert, got %d", len(alerts.alerts))
	}
	alert := alerts.alerts[0]
	if alert.Type != domain.AlertException || alert.Severity != domain.SeverityWarning {
		t.Fatalf("unexpected alert classification: %s/%s", alert.Type, alert.Severity)
	}
	want := "SHP-2026-001 status changed to Delayed"
	if alert.Message != want {
		t.Fatalf("unexpected alert message: %q", alert.Message)
	}
	if alert.Metadata["status"] != string(domain.StatusDelayed) {
		t.Fatalf("unexpected alert metadata: %+v", alert.Metadata)
	}
	if len(hub.alerts) != 1 || len(hub.positions) != 1 {
		t.Fatalf("expected one alert and one position broadcast, got %d/%d", len(hub.alerts), len(hub.positions))
	}
}

func TestIngest_SelfStatusIsNotATransition(t *testing.T) {
	repo := newStubShipmentRepo(testShipment())
	alerts := &stubAlertRepo{}
	hub := &recordingBroadcaster{}
	svc := newTestIngest(repo, alerts, hub, neverSample)

	err := svc.Ingest(context.Background(), ports.PositionReportInput{
		ShipmentID: "SHP-2026-001", Lat: 25.0, Lng: 100.0, Status: string(domain.StatusInTransit),
	})
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if len(alerts.alerts) != 0 {
		t.Fatalf("restating the current status must not raise a transition alert")
	}
}

func TestIngest_SampledLocationAlert(t *testing.T) {
	repo := newStubShipmentRepo(testShipment())
	alerts := &stubAlertRepo{}
	hub := &recordingBroadcaster{}
	svc := newTestIngest(repo, alerts, hub, alwaysSample)

	err := svc.Ingest(context.Background(), ports.PositionReportInput{
		ShipmentID: "SHP-2026-001", Lat: 25.0, Lng: 100.0,
	})
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if len(alerts.alerts) != 1 {
		t.Fatalf("expected one sampled alert, got %d", len(alerts.alerts))
	}
	alert := alerts.alerts[0]
	if alert.Type != domain.AlertLocationUpdate || alert.Severity != domain.SeverityInfo {
		t.Fatalf("unexpected alert classification: %s/%s", alert.Type, alert.Severity)
	}
	if alert.Message != "SHP-2026-001 at [25.0000, 100.0000]." {
		t.Fatalf("unexpected alert message: %q", alert.Message)
	}
}

func TestIngest_LastWaypointForcesDelivered(t *testing.T) {
	shipment := testShipment()
	last := shipment.Route[len(shipment.Route)-1]
	repo := newStubShipmentRepo(shipment)
	alerts := &stubAlertRepo{}
	hub := &recordingBroadcaster{}
	svc := newTestIngest(repo, alerts, hub, neverSample)

	// No status field at all: reaching the final waypoint is enough.
	err := svc.Ingest(context.Background(), ports.PositionReportInput{
		ShipmentID: "SHP-2026-001", Lat: last.Lat, Lng: last.Lng,
	})
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}

	stored, _ := repo.FindByID(context.Background(), "SHP-2026-001")
	if stored.Status != domain.StatusDelivered {
		t.Fatalf("expected Delivered at final waypoint, got %s", stored.Status)
	}
	if len(alerts.alerts) != 1 || alerts.alerts[0].Type != domain.AlertException {
		t.Fatalf("expected a transition alert for forced delivery, got %+v", alerts.alerts)
	}
	if len(hub.positions) != 1 || hub.positions[0].Status != domain.StatusDelivered {
		t.Fatalf("position broadcast must carry the forced status")
	}
}

func TestIngest_Idempotent(t *testing.T) {
	repo := newStubShipmentRepo(testShipment())
	alerts := &stubAlertRepo{}
	hub := &recordingBroadcaster{}
	svc := newTestIngest(repo, alerts, hub, neverSample)

	report := ports.PositionReportInput{
		ShipmentID: "SHP-2026-001", Lat: 25.0, Lng: 100.0,
		Status:    string(domain.StatusDelayed),
		Timestamp: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
	}
	for i := 0; i < 2; i++ {
		if err := svc.Ingest(context.Background(), report); err != nil {
			t.Fatalf("Ingest #%d returned error: %v", i+1, err)
		}
	}

	stored, _ := repo.FindByID(context.Background(), "SHP-2026-001")
	if stored.Status != domain.StatusDelayed || stored.CurrentLocation.Lat != 25.0 {
		t.Fatalf("duplicate report changed final state: %+v", stored)
	}
	// Second delivery is Delayed->Delayed: no transition, so one alert total.
	if len(alerts.alerts) != 1 {
		t.Fatalf("expected one transition alert across duplicates, got %d", len(alerts.alerts))
	}
	if len(hub.positions) != 2 {
		t.Fatalf("every applied report broadcasts, got %d", len(hub.positions))
	}
}

func TestIngest_AlertStorageFailureDoesNotFailIngest(t *testing.T) {
	repo := newStubShipmentRepo(testShipment())
	alerts := &stubAlertRepo{insertErr: fmt.Errorf("disk on fire")}
	hub := &recordingBroadcaster{}
	svc := newTestIngest(repo, alerts, hub, neverSample)

	err := svc.Ingest(context.Background(), ports.PositionReportInput{
		ShipmentID: "SHP-2026-001", Lat: 25.0, Lng: 100.0, Status: string(domain.StatusDelayed),
	})
	if err != nil {
		t.Fatalf("alert persistence failure must not fail ingestion: %v", err)
	}
	if len(hub.alerts) != 0 {
		t.Fatalf("unpersisted alert must not be broadcast")
	}
	if len(hub.positions) != 1 {
		t.Fatalf("position broadcast must still happen")
	}
	stored, _ := repo.FindByID(context.Background(), "SHP-2026-001")
	if stored.Status != domain.StatusDelayed {
		t.Fatalf("state change must still apply, got %s", stored.Status)
	}
}

func TestIngest_ApplyFailureSkipsBroadcast(t *testing.T) {
	repo := newStubShipmentRepo(testShipment())
	repo.applyErr = domain.ErrUnavailable
	hub := &recordingBroadcaster{}
	svc := newTestIngest(repo, &stubAlertRepo{}, hub, alwaysSample)

	err := svc.Ingest(context.Background(), ports.PositionReportInput{
		ShipmentID: "SHP-2026-001", Lat: 25.0, Lng: 100.0,
	})
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if len(hub.positions) != 0 || len(hub.alerts) != 0 {
		t.Fatalf("failed write must not broadcast")
	}
}

func TestOverrideLocation_NeverAlerts(t *testing.T) {
	repo := newStubShipmentRepo(testShipment())
	alerts := &stubAlertRepo{}
	hub := &recordingBroadcaster{}
	svc := newTestIngest(repo, alerts, hub, alwaysSample)

	if err := svc.OverrideLocation(context.Background(), "SHP-2026-001", 12.5, 45.5); err != nil {
		t.Fatalf("OverrideLocation returned error: %v", err)
	}

	if len(alerts.alerts) != 0 || len(hub.alerts) != 0 {
		t.Fatalf("manual override must not create alerts")
	}
	if len(hub.positions) != 1 {
		t.Fatalf("manual override must broadcast the new position")
	}
	stored, _ := repo.FindByID(context.Background(), "SHP-2026-001")
	if stored.CurrentLocation.Lat != 12.5 || stored.CurrentLocation.Lng != 45.5 {
		t.Fatalf("override did not move the shipment: %+v", stored.CurrentLocation)
	}
	if stored.Status != domain.StatusInTransit {
		t.Fatalf("override must not touch status, got %s", stored.Status)
	}
}

func TestOverrideLocation_Validation(t *testing.T) {
	repo := newStubShipmentRepo(testShipment())
	svc := newTestIngest(repo, &stubAlertRepo{}, &recordingBroadcaster{}, neverSample)

	if err := svc.OverrideLocation(context.Background(), "", 1, 2); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty id, got %v", err)
	}
	if err := svc.OverrideLocation(context.Background(), "SHP-2026-001", 120, 2); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad latitude, got %v", err)
	}
	if err := svc.OverrideLocation(context.Background(), "SHP-MISSING", 1, 2); !errors.Is(err, domain.ErrShipmentNotFound) {
		t.Fatalf("expected ErrShipmentNotFound, got %v", err)
	}
}
