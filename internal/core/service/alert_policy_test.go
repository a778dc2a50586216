package service

import (
	"testing"

	"github.com/cargoflow/tracking-system/internal/core/domain"
)

func policyReport(lat, lng float64) domain.PositionReport {
	return domain.PositionReport{ShipmentID: "SHP-2026-001", Lat: lat, Lng: lng}
}

func TestAlertPolicy_TransitionIgnoresSampling(t *testing.T) {
	// randFloat pinned to 0.99 so a sampled path would return nil.
	policy := NewAlertPolicy(DefaultSampleRate, func() float64 { return 0.99 })
	shipment := testShipment()

	alert := policy.Evaluate(domain.StatusInTransit, domain.StatusDelayed, shipment, policyReport(25, 100))
	if alert == nil {
		t.Fatalf("transition must always produce an alert")
	}
	if alert.Type != domain.AlertException || alert.Severity != domain.SeverityWarning {
		t.Fatalf("unexpected classification: %s/%s", alert.Type, alert.Severity)
	}
	if alert.Message != "SHP-2026-001 status changed to Delayed" {
		t.Fatalf("unexpected message: %q", alert.Message)
	}
}

func TestAlertPolicy_SampleBoundary(t *testing.T) {
	shipment := testShipment()

	// Just under the rate: persist.
	policy := NewAlertPolicy(0.10, func() float64 { return 0.0999 })
	if alert := policy.Evaluate(domain.StatusInTransit, domain.StatusInTransit, shipment, policyReport(25, 100)); alert == nil {
		t.Fatalf("draw below the sample rate must persist an alert")
	}

	// Exactly at the rate: skip.
	policy = NewAlertPolicy(0.10, func() float64 { return 0.10 })
	if alert := policy.Evaluate(domain.StatusInTransit, domain.StatusInTransit, shipment, policyReport(25, 100)); alert != nil {
		t.Fatalf("draw at the sample rate must not persist an alert, got %+v", alert)
	}
}

func TestAlertPolicy_LocationUpdateMessage(t *testing.T) {
	policy := NewAlertPolicy(1.0, func() float64 { return 0.0 })
	shipment := testShipment()

	alert := policy.Evaluate(domain.StatusInTransit, domain.StatusInTransit, shipment, policyReport(25.12341, -100.98768))
	if alert == nil {
		t.Fatalf("expected a sampled alert")
	}
	if alert.Type != domain.AlertLocationUpdate || alert.Severity != domain.SeverityInfo {
		t.Fatalf("unexpected classification: %s/%s", alert.Type, alert.Severity)
	}
	// Coordinates are rounded to four decimals in the message.
	if alert.Message != "SHP-2026-001 at [25.1234, -100.9877]." {
		t.Fatalf("unexpected message: %q", alert.Message)
	}
	if alert.Location.Lat != 25.12341 {
		t.Fatalf("alert location must keep full precision: %+v", alert.Location)
	}
}

func TestAlertPolicy_Metadata(t *testing.T) {
	policy := NewAlertPolicy(1.0, func() float64 { return 0.0 })
	shipment := testShipment()

	alert := policy.Evaluate(domain.StatusInTransit, domain.StatusInTransit, shipment, policyReport(25, 100))
	if alert.Metadata["speed"] != shipment.Speed {
		t.Fatalf("metadata speed mismatch: %+v", alert.Metadata)
	}
	if alert.Metadata["carrier"] != "Maersk Line" {
		t.Fatalf("metadata carrier mismatch: %+v", alert.Metadata)
	}
	if alert.Metadata["vessel_name"] != "Emma Maersk" {
		t.Fatalf("metadata vessel mismatch: %+v", alert.Metadata)
	}

	shipment.VesselName = ""
	alert = policy.Evaluate(domain.StatusInTransit, domain.StatusInTransit, shipment, policyReport(25, 100))
	if _, ok := alert.Metadata["vessel_name"]; ok {
		t.Fatalf("vessel_name must be omitted for vessels without a name")
	}
}
