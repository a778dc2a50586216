package service

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/cargoflow/tracking-system/internal/core/domain"
)

// DefaultSampleRate is the probability that an ordinary location update
// persists an alert. Status transitions always do.
const DefaultSampleRate = 0.10

// AlertPolicy decides, for each applied position report, whether an alert
// must be persisted and computes its type, severity and message.
//
// The probability source is injectable so tests can pin exact outcomes.
type AlertPolicy struct {
	sampleRate float64
	randFloat  func() float64
}

// NewAlertPolicy builds a policy with the given sampling probability.
// A nil randFloat falls back to math/rand.
func NewAlertPolicy(sampleRate float64, randFloat func() float64) *AlertPolicy {
	if randFloat == nil {
		randFloat = rand.Float64
	}
	return &AlertPolicy{sampleRate: sampleRate, randFloat: randFloat}
}

// Evaluate returns the alert to persist for this report, or nil when none
// is warranted. A status transition always produces an alert; an ordinary
// location update produces one with probability sampleRate, throttling
// storage growth under high-frequency reporting while the position
// broadcast still happens for every report.
func (p *AlertPolicy) Evaluate(oldStatus, newStatus domain.ShipmentStatus, shipment *domain.Shipment, report domain.PositionReport) *domain.Alert {
	transitioned := newStatus != oldStatus

	if !transitioned && p.randFloat() >= p.sampleRate {
		return nil
	}

	alert := &domain.Alert{
		ShipmentID: shipment.ShipmentID,
		Location:   report.Point(),
		Metadata: map[string]any{
			"speed":   shipment.Speed,
			"status":  string(newStatus),
			"carrier": shipment.Carrier,
		},
		CreatedAt: time.Now().UTC(),
	}
	if shipment.VesselName != "" {
		alert.Metadata["vessel_name"] = shipment.VesselName
	}

	if transitioned {
		alert.Type = domain.AlertException
		alert.Severity = domain.SeverityWarning
		alert.Message = fmt.Sprintf("%s status changed to %s", shipment.ShipmentID, newStatus)
	} else {
		alert.Type = domain.AlertLocationUpdate
		alert.Severity = domain.SeverityInfo
		alert.Message = fmt.Sprintf("%s at [%.4f, %.4f].", shipment.ShipmentID, report.Lat, report.Lng)
	}
	return alert
}
