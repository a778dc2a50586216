package domain

import "time"

// AlertType classifies a notable shipment event.
type AlertType string

const (
	AlertLocationUpdate AlertType = "location_update"
	AlertDelay          AlertType = "delay"
	AlertStopped        AlertType = "stopped"
	AlertDelivered      AlertType = "delivered"
	AlertException      AlertType = "exception"
)

// AlertSeverity orders alerts by operational urgency.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Alert is a persisted, user-visible record of a notable shipment event.
// The shipment id is a reference, not ownership: the alert outlives edits
// to the shipment. Immutable after creation except for the Read flag.
type Alert struct {
	ID         string         `json:"id" bson:"_id,omitempty"`
	ShipmentID string         `json:"shipment_id" bson:"shipment_id"`
	Type       AlertType      `json:"type" bson:"type"`
	Message    string         `json:"message" bson:"message"`
	Severity   AlertSeverity  `json:"severity" bson:"severity"`
	Location   GeoPoint       `json:"location" bson:"location"`
	Metadata   map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	Read       bool           `json:"read" bson:"read"`
	CreatedAt  time.Time      `json:"created_at" bson:"created_at"`
}
