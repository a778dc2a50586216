package broadcast

import (
	"github.com/cargoflow/tracking-system/internal/core/domain"
	"github.com/cargoflow/tracking-system/internal/core/ports"
)

// TopicGlobal is the shared topic every viewer session subscribes to.
// Partitioning by region is a straightforward extension, not wired here.
const TopicGlobal = "global"

// EventType tags the closed set of broadcast event variants.
type EventType string

const (
	// EventPositionUpdate is emitted for every successfully ingested
	// report so map movement stays smooth at any reporting cadence.
	EventPositionUpdate EventType = "position_update"
	// EventAlertCreated is emitted only when an alert record was
	// persisted, so alert-list viewers update without polling.
	EventAlertCreated EventType = "alert_created"
)

// Event is one message fanned out to viewer sessions. Exactly one of the
// payload fields is set, matching Type, so consumers can handle the set
// exhaustively.
type Event struct {
	Type     EventType             `json:"type"`
	Position *ports.PositionUpdate `json:"position,omitempty"`
	Alert    *domain.Alert         `json:"alert,omitempty"`
}
