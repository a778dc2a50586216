package ports

import (
	"context"
	"time"
)

// PositionReportInput is the DTO passed from the transport layer to the
// ingestion service. Speed and Status are optional; an empty Status means
// the report carries no explicit status request.
type PositionReportInput struct {
	ShipmentID string
	Lat        float64
	Lng        float64
	Speed      *float64
	Status     string
	Timestamp  time.Time
}

// IngestService is the single entry point for position reports, shared by
// real devices (webhook) and the trajectory simulator.
type IngestService interface {
	// Ingest applies one report: overwrite location, apply any requested
	// status, persist, evaluate alert policy, broadcast. Returns
	// domain.ErrShipmentNotFound for unknown ids, domain.ErrInvalidInput
	// for malformed reports and domain.ErrUnavailable on store failure.
	Ingest(ctx context.Context, in PositionReportInput) error
	// OverrideLocation moves a shipment manually. It behaves like the
	// location-update branch of Ingest but never samples an alert; the
	// position broadcast is still emitted.
	OverrideLocation(ctx context.Context, shipmentID string, lat, lng float64) error
}
