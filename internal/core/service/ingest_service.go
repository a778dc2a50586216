package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cargoflow/tracking-system/internal/core/domain"
	"github.com/cargoflow/tracking-system/internal/core/ports"
	"github.com/cargoflow/tracking-system/internal/pkg/keylock"
)

// waypointEpsilon is the coordinate tolerance when matching a reported
// point against the route's final waypoint. The simulator echoes route
// points verbatim; real devices get a small slack.
const waypointEpsilon = 1e-6

type ingestService struct {
	shipments ports.ShipmentRepository
	alerts    ports.AlertRepository
	policy    *AlertPolicy
	hub       ports.Broadcaster
	locks     *keylock.KeyLock
	log       zerolog.Logger
}

// NewIngestService returns the IngestService implementation shared by the
// device webhook, the batch dispatcher and the trajectory simulator.
func NewIngestService(
	shipments ports.ShipmentRepository,
	alerts ports.AlertRepository,
	policy *AlertPolicy,
	hub ports.Broadcaster,
	log zerolog.Logger,
) ports.IngestService {
	return &ingestService{
		shipments: shipments,
		alerts:    alerts,
		policy:    policy,
		hub:       hub,
		locks:     keylock.New(),
		log:       log,
	}
}

// Ingest applies one position report. The read-modify-write is serialized
// per shipment id; reports for different shipments proceed in parallel.
// Either the shipment state and its position broadcast both happen, or
// neither does; the alert write is intentionally independent and
// best-effort.
func (s *ingestService) Ingest(ctx context.Context, in ports.PositionReportInput) error {
	report, err := toReport(in)
	if err != nil {
		return err
	}

	s.locks.Lock(report.ShipmentID)
	defer s.locks.Unlock(report.ShipmentID)

	shipment, err := s.shipments.FindByID(ctx, report.ShipmentID)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", report.ShipmentID, err)
	}

	oldStatus := shipment.Status
	newStatus := oldStatus
	if report.Status != nil && *report.Status != oldStatus {
		newStatus = *report.Status
		if !oldStatus.CanTransitionTo(newStatus) {
			// Applied anyway: upstream producers own shipment state.
			s.log.Warn().
				Str("shipment_id", report.ShipmentID).
				Str("from", string(oldStatus)).
				Str("to", string(newStatus)).
				Msg("status transition outside expected state machine")
		}
	}

	// Reaching the final waypoint forces the terminal status regardless of
	// what the report requested.
	if last, ok := shipment.LastWaypoint(); ok && report.Point().Equal(last, waypointEpsilon) {
		newStatus = domain.StatusDelivered
	}

	speed := shipment.Speed
	if report.Speed != nil {
		speed = *report.Speed
	}

	if err := s.shipments.ApplyPosition(ctx, report.ShipmentID, ports.PositionMutation{
		Location:  report.Point(),
		Status:    newStatus,
		Speed:     speed,
		Timestamp: report.Timestamp,
	}); err != nil {
		return fmt.Errorf("ingest %s: apply position: %w", report.ShipmentID, err)
	}

	shipment.CurrentLocation = report.Point()
	shipment.Status = newStatus
	shipment.Speed = speed
	shipment.UpdatedAt = report.Timestamp

	if alert := s.policy.Evaluate(oldStatus, newStatus, shipment, report); alert != nil {
		if err := s.alerts.Insert(ctx, alert); err != nil {
			// Alert loss is acceptable; position loss is not.
			s.log.Warn().Err(err).
				Str("shipment_id", report.ShipmentID).
				Msg("failed to persist alert")
		} else {
			s.hub.PublishAlert(alert)
		}
	}

	s.hub.PublishPosition(ports.PositionUpdate{
		ShipmentID:      report.ShipmentID,
		CurrentLocation: shipment.CurrentLocation,
		Status:          newStatus,
		Speed:           speed,
		Timestamp:       report.Timestamp,
	})

	s.log.Debug().
		Str("shipment_id", report.ShipmentID).
		Str("status", string(newStatus)).
		Float64("lat", report.Lat).
		Float64("lng", report.Lng).
		Msg("position report applied")

	return nil
}

// OverrideLocation moves a shipment manually (operator UI). It applies the
// location only, always broadcasts and never samples an alert.
func (s *ingestService) OverrideLocation(ctx context.Context, shipmentID string, lat, lng float64) error {
	if shipmentID == "" {
		return fmt.Errorf("%w: shipment id is required", domain.ErrInvalidInput)
	}
	if err := validateCoordinates(lat, lng); err != nil {
		return err
	}

	s.locks.Lock(shipmentID)
	defer s.locks.Unlock(shipmentID)

	shipment, err := s.shipments.FindByID(ctx, shipmentID)
	if err != nil {
		return fmt.Errorf("override %s: %w", shipmentID, err)
	}

	now := time.Now().UTC()
	point := domain.GeoPoint{Lat: lat, Lng: lng}
	if err := s.shipments.ApplyPosition(ctx, shipmentID, ports.PositionMutation{
		Location:  point,
		Status:    shipment.Status,
		Speed:     shipment.Speed,
		Timestamp: now,
	}); err != nil {
		return fmt.Errorf("override %s: apply position: %w", shipmentID, err)
	}

	s.hub.PublishPosition(ports.PositionUpdate{
		ShipmentID:      shipmentID,
		CurrentLocation: point,
		Status:          shipment.Status,
		Speed:           shipment.Speed,
		Timestamp:       now,
	})

	s.log.Info().
		Str("shipment_id", shipmentID).
		Float64("lat", lat).
		Float64("lng", lng).
		Msg("location manually overridden")

	return nil
}

// toReport validates the transport DTO and converts it to the domain
// report. Rejection happens before any state mutation.
func toReport(in ports.PositionReportInput) (domain.PositionReport, error) {
	if in.ShipmentID == "" {
		return domain.PositionReport{}, fmt.Errorf("%w: shipment id is required", domain.ErrInvalidInput)
	}
	if err := validateCoordinates(in.Lat, in.Lng); err != nil {
		return domain.PositionReport{}, err
	}

	report := domain.PositionReport{
		ShipmentID: in.ShipmentID,
		Lat:        in.Lat,
		Lng:        in.Lng,
		Speed:      in.Speed,
		Timestamp:  in.Timestamp,
	}
	if report.Timestamp.IsZero() {
		report.Timestamp = time.Now().UTC()
	}
	if in.Status != "" {
		status := domain.ShipmentStatus(in.Status)
		if !status.Valid() {
			return domain.PositionReport{}, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, in.Status)
		}
		report.Status = &status
	}
	return report, nil
}

func validateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", domain.ErrInvalidInput, lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range", domain.ErrInvalidInput, lng)
	}
	return nil
}
