package domain

import (
	"errors"
	"time"
)

// ShipmentStatus represents the lifecycle state of a shipment. The string
// values are the wire/storage representation.
type ShipmentStatus string

const (
	StatusCreated   ShipmentStatus = "Created"
	StatusPending   ShipmentStatus = "Pending"
	StatusInTransit ShipmentStatus = "In Transit"
	StatusDelayed   ShipmentStatus = "Delayed"
	StatusAtPort    ShipmentStatus = "At Port"
	StatusStopped   ShipmentStatus = "Stopped"
	StatusException ShipmentStatus = "Exception"
	StatusDelivered ShipmentStatus = "Delivered"
)

// expectedTransitions documents the intended state machine. Ingestion is
// permissive: a requested status outside this graph is still applied, but
// logged, since upstream producers own shipment state.
var expectedTransitions = map[ShipmentStatus][]ShipmentStatus{
	StatusCreated:   {StatusPending, StatusInTransit},
	StatusPending:   {StatusInTransit},
	StatusInTransit: {StatusDelayed, StatusAtPort, StatusStopped, StatusException, StatusDelivered},
	StatusDelayed:   {StatusInTransit, StatusStopped, StatusException, StatusDelivered},
	StatusAtPort:    {StatusInTransit, StatusDelivered},
	StatusStopped:   {StatusInTransit, StatusException},
	StatusException: {StatusInTransit, StatusStopped},
}

var ErrShipmentNotFound = errors.New("shipment not found")
var ErrDuplicateShipment = errors.New("shipment already exists")
var ErrAlertNotFound = errors.New("alert not found")
var ErrUnavailable = errors.New("store unavailable")
var ErrInvalidInput = errors.New("invalid input")
var ErrForbidden = errors.New("access forbidden")

// CanTransitionTo reports whether moving from s to next follows the
// expected state machine. Self-transitions are status no-ops and allowed.
func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range expectedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s ShipmentStatus) Terminal() bool {
	return s == StatusDelivered
}

// Valid reports whether the value is one of the known statuses.
func (s ShipmentStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusPending, StatusInTransit, StatusDelayed,
		StatusAtPort, StatusStopped, StatusException, StatusDelivered:
		return true
	}
	return false
}

// TransportMode is how the shipment moves between origin and destination.
type TransportMode string

const (
	ModeAir  TransportMode = "Air"
	ModeSea  TransportMode = "Sea"
	ModeLand TransportMode = "Land"
)

// GeoPoint is a geographic coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Equal reports whether two points coincide within epsilon degrees.
func (p GeoPoint) Equal(other GeoPoint, epsilon float64) bool {
	return abs(p.Lat-other.Lat) <= epsilon && abs(p.Lng-other.Lng) <= epsilon
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// Endpoint is a named origin or destination location.
type Endpoint struct {
	Address     string   `json:"address" bson:"address"`
	Coordinates GeoPoint `json:"coordinates" bson:"coordinates"`
}

// Personnel holds the crew assigned to a shipment. Immutable after creation.
type Personnel struct {
	Captain string   `json:"captain" bson:"captain"`
	Crew    []string `json:"crew,omitempty" bson:"crew,omitempty"`
}

// ManifestItem is one cargo line on the shipment manifest.
type ManifestItem struct {
	Item     string `json:"item" bson:"item"`
	Quantity int    `json:"quantity" bson:"quantity"`
	Weight   string `json:"weight,omitempty" bson:"weight,omitempty"`
	Value    string `json:"value,omitempty" bson:"value,omitempty"`
}

// Shipment is the core aggregate root. CurrentLocation, Status and Speed
// are the only fields mutated after creation, and only by the ingestion
// path; everything else is fixed by the creation flow.
type Shipment struct {
	ShipmentID      string         `json:"shipment_id" bson:"shipment_id"`
	Carrier         string         `json:"carrier" bson:"carrier"`
	VesselName      string         `json:"vessel_name,omitempty" bson:"vessel_name,omitempty"`
	Mode            TransportMode  `json:"mode" bson:"mode"`
	Origin          Endpoint       `json:"origin" bson:"origin"`
	Destination     Endpoint       `json:"destination" bson:"destination"`
	CurrentLocation GeoPoint       `json:"current_location" bson:"current_location"`
	Route           []GeoPoint     `json:"route" bson:"route"`
	Status          ShipmentStatus `json:"status" bson:"status"`
	ETA             time.Time      `json:"eta,omitempty" bson:"eta,omitempty"`
	Speed           float64        `json:"speed" bson:"speed"`
	Personnel       Personnel      `json:"personnel" bson:"personnel"`
	Manifest        []ManifestItem `json:"manifest,omitempty" bson:"manifest,omitempty"`
	Region          string         `json:"region" bson:"region"`
	CreatedAt       time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" bson:"updated_at"`
}

// LastWaypoint returns the final point of the planned route, or false when
// no route was precomputed.
func (s *Shipment) LastWaypoint() (GeoPoint, bool) {
	if len(s.Route) == 0 {
		return GeoPoint{}, false
	}
	return s.Route[len(s.Route)-1], true
}
