package domain

import "time"

// PositionReport is one GPS-style observation for a shipment. It is the
// transient unit of work flowing through ingestion and is never stored
// verbatim.
type PositionReport struct {
	ShipmentID string
	Lat        float64
	Lng        float64
	Speed      *float64        // optional
	Status     *ShipmentStatus // optional explicit status request
	Timestamp  time.Time
}

// Point returns the reported coordinates as a GeoPoint.
func (r PositionReport) Point() GeoPoint {
	return GeoPoint{Lat: r.Lat, Lng: r.Lng}
}
