package ports

import (
	"time"

	"github.com/cargoflow/tracking-system/internal/core/domain"
)

// PositionUpdate is the payload broadcast for every successfully ingested
// report, regardless of whether an alert was persisted.
type PositionUpdate struct {
	ShipmentID      string                `json:"shipment_id"`
	CurrentLocation domain.GeoPoint       `json:"current_location"`
	Status          domain.ShipmentStatus `json:"status"`
	Speed           float64               `json:"speed"`
	Timestamp       time.Time             `json:"timestamp"`
}

// Broadcaster fans out state-change events to all connected viewer
// sessions. Delivery is best-effort and must never block the caller.
type Broadcaster interface {
	PublishPosition(update PositionUpdate)
	PublishAlert(alert *domain.Alert)
}
