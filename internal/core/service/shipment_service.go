package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cargoflow/tracking-system/internal/core/domain"
	"github.com/cargoflow/tracking-system/internal/core/ports"
)

type shipmentService struct {
	repo ports.ShipmentRepository
	log  zerolog.Logger
}

// NewShipmentService returns a ShipmentService implementation.
func NewShipmentService(repo ports.ShipmentRepository, log zerolog.Logger) ports.ShipmentService {
	return &shipmentService{repo: repo, log: log}
}

// Create registers a new shipment with its precomputed route. The current
// location starts at the origin; the ingestion path owns it afterwards.
func (s *shipmentService) Create(ctx context.Context, in ports.CreateShipmentInput) (*domain.Shipment, error) {
	if in.ShipmentID == "" {
		return nil, fmt.Errorf("%w: shipment id is required", domain.ErrInvalidInput)
	}
	if in.Carrier == "" {
		return nil, fmt.Errorf("%w: carrier is required", domain.ErrInvalidInput)
	}

	status := domain.StatusCreated
	if in.Status != "" {
		status = domain.ShipmentStatus(in.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, in.Status)
		}
	}

	mode := domain.TransportMode(in.Mode)
	switch mode {
	case domain.ModeAir, domain.ModeSea, domain.ModeLand:
	case "":
		mode = domain.ModeSea
	default:
		return nil, fmt.Errorf("%w: unknown transport mode %q", domain.ErrInvalidInput, in.Mode)
	}

	region := in.Region
	if region == "" {
		region = "Global"
	}

	now := time.Now().UTC()
	shipment := &domain.Shipment{
		ShipmentID: in.ShipmentID,
		Carrier:    in.Carrier,
		VesselName: in.VesselName,
		Mode:       mode,
		Origin: domain.Endpoint{
			Address:     in.Origin.Address,
			Coordinates: domain.GeoPoint{Lat: in.Origin.Lat, Lng: in.Origin.Lng},
		},
		Destination: domain.Endpoint{
			Address:     in.Destination.Address,
			Coordinates: domain.GeoPoint{Lat: in.Destination.Lat, Lng: in.Destination.Lng},
		},
		CurrentLocation: domain.GeoPoint{Lat: in.Origin.Lat, Lng: in.Origin.Lng},
		Route:           in.Route,
		Status:          status,
		Personnel:       domain.Personnel{Captain: in.Captain, Crew: in.Crew},
		Region:          region,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, item := range in.Manifest {
		shipment.Manifest = append(shipment.Manifest, domain.ManifestItem{
			Item:     item.Item,
			Quantity: item.Quantity,
			Weight:   item.Weight,
			Value:    item.Value,
		})
	}

	if err := s.repo.Create(ctx, shipment); err != nil {
		s.log.Error().Err(err).Str("shipment_id", in.ShipmentID).Msg("failed to create shipment")
		return nil, err
	}

	s.log.Info().
		Str("shipment_id", shipment.ShipmentID).
		Str("carrier", shipment.Carrier).
		Str("mode", string(shipment.Mode)).
		Msg("shipment created")

	return shipment, nil
}

func (s *shipmentService) Get(ctx context.Context, shipmentID string) (*domain.Shipment, error) {
	return s.repo.FindByID(ctx, shipmentID)
}

// Snapshot returns all shipments, optionally filtered by region. A failed
// snapshot never clears a viewer's table; callers keep the previous one.
func (s *shipmentService) Snapshot(ctx context.Context, region string) ([]*domain.Shipment, error) {
	return s.repo.List(ctx, ports.ListShipmentsFilter{Region: region})
}

func (s *shipmentService) Stats(ctx context.Context) (*ports.FleetStats, error) {
	total, byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &ports.FleetStats{Total: total, ByStatus: byStatus}, nil
}
