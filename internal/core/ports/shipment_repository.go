package ports

import (
	"context"
	"time"

	"github.com/cargoflow/tracking-system/internal/core/domain"
)

// ListShipmentsFilter carries the query parameters for listing shipments.
type ListShipmentsFilter struct {
	Region   string                  // optional: scope to an assigned region
	Statuses []domain.ShipmentStatus // optional: only these statuses
}

// PositionMutation is the single mutation the ingestion path applies to a
// shipment. The write is conditional on the shipment id so concurrent
// reports for different shipments never contend.
type PositionMutation struct {
	Location  domain.GeoPoint
	Status    domain.ShipmentStatus
	Speed     float64
	Timestamp time.Time
}

// ShipmentRepository defines persistence operations for shipments.
type ShipmentRepository interface {
	Create(ctx context.Context, s *domain.Shipment) error
	FindByID(ctx context.Context, shipmentID string) (*domain.Shipment, error)
	// List returns all shipments matching filter; an empty filter returns
	// the full fleet snapshot.
	List(ctx context.Context, filter ListShipmentsFilter) ([]*domain.Shipment, error)
	// ApplyPosition atomically overwrites current location, status, speed
	// and the updated-at timestamp for one shipment.
	ApplyPosition(ctx context.Context, shipmentID string, m PositionMutation) error
	// CountByStatus returns the fleet total and a per-status breakdown.
	CountByStatus(ctx context.Context) (int64, map[domain.ShipmentStatus]int64, error)
}
