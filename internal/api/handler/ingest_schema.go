package handler

import (
	"time"

	"github.com/cargoflow/tracking-system/internal/core/ports"
)

// gpsReportRequest is the webhook payload submitted by devices and the
// simulator. Status is free-form here; the service validates it against
// the known status set so batch error messages stay consistent.
type gpsReportRequest struct {
	ShipmentID string    `json:"shipment_id" validate:"required"`
	Lat        float64   `json:"lat"         validate:"gte=-90,lte=90"`
	Lng        float64   `json:"lng"         validate:"gte=-180,lte=180"`
	Speed      *float64  `json:"speed,omitempty"`
	Status     string    `json:"status,omitempty"`
	Timestamp  time.Time `json:"timestamp,omitempty"`
}

type overrideLocationRequest struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

type ingestAcceptedResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func toReportInput(r gpsReportRequest) ports.PositionReportInput {
	return ports.PositionReportInput{
		ShipmentID: r.ShipmentID,
		Lat:        r.Lat,
		Lng:        r.Lng,
		Speed:      r.Speed,
		Status:     r.Status,
		Timestamp:  r.Timestamp,
	}
}
