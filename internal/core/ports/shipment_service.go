package ports

import (
	"context"

	"github.com/cargoflow/tracking-system/internal/core/domain"
)

// EndpointInput holds a named origin or destination location.
type EndpointInput struct {
	Address string
	Lat     float64
	Lng     float64
}

// ManifestItemInput is one cargo line supplied at creation time.
type ManifestItemInput struct {
	Item     string
	Quantity int
	Weight   string
	Value    string
}

// CreateShipmentInput carries all data needed to register a new shipment.
type CreateShipmentInput struct {
	ShipmentID  string
	Carrier     string
	VesselName  string
	Mode        string
	Origin      EndpointInput
	Destination EndpointInput
	Route       []domain.GeoPoint
	Status      string // optional, defaults to Created
	Captain     string
	Crew        []string
	Manifest    []ManifestItemInput
	Region      string
}

// FleetStats is the aggregate view of the fleet.
type FleetStats struct {
	Total    int64
	ByStatus map[domain.ShipmentStatus]int64
}

// ShipmentService defines read and creation use-cases for shipments.
type ShipmentService interface {
	Create(ctx context.Context, in CreateShipmentInput) (*domain.Shipment, error)
	Get(ctx context.Context, shipmentID string) (*domain.Shipment, error)
	// Snapshot returns the full shipment table, optionally scoped to a
	// region. It backs the reconciliation layer's periodic resync.
	Snapshot(ctx context.Context, region string) ([]*domain.Shipment, error)
	Stats(ctx context.Context) (*FleetStats, error)
}
