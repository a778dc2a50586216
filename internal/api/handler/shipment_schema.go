package handler

import (
	"github.com/cargoflow/tracking-system/internal/core/domain"
	"github.com/cargoflow/tracking-system/internal/core/ports"
)

type endpointRequest struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng     float64 `json:"lng" validate:"gte=-180,lte=180"`
}

type manifestItemRequest struct {
	Item     string `json:"item" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"`
	Weight   string `json:"weight,omitempty"`
	Value    string `json:"value,omitempty"`
}

type createShipmentRequest struct {
	ShipmentID  string                `json:"shipment_id" validate:"required"`
	Carrier     string                `json:"carrier" validate:"required"`
	VesselName  string                `json:"vessel_name,omitempty"`
	Mode        string                `json:"mode,omitempty" validate:"omitempty,oneof=Air Sea Land"`
	Origin      endpointRequest       `json:"origin" validate:"required"`
	Destination endpointRequest       `json:"destination" validate:"required"`
	Route       []domain.GeoPoint     `json:"route"`
	Status      string                `json:"status,omitempty"`
	Captain     string                `json:"captain,omitempty"`
	Crew        []string              `json:"crew,omitempty"`
	Manifest    []manifestItemRequest `json:"manifest,omitempty"`
	Region      string                `json:"region,omitempty"`
}

type fleetStatsResponse struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}

func toCreateInput(r createShipmentRequest) ports.CreateShipmentInput {
	in := ports.CreateShipmentInput{
		ShipmentID: r.ShipmentID,
		Carrier:    r.Carrier,
		VesselName: r.VesselName,
		Mode:       r.Mode,
		Origin: ports.EndpointInput{
			Address: r.Origin.Address,
			Lat:     r.Origin.Lat,
			Lng:     r.Origin.Lng,
		},
		Destination: ports.EndpointInput{
			Address: r.Destination.Address,
			Lat:     r.Destination.Lat,
			Lng:     r.Destination.Lng,
		},
		Route:   r.Route,
		Status:  r.Status,
		Captain: r.Captain,
		Crew:    r.Crew,
		Region:  r.Region,
	}
	for _, item := range r.Manifest {
		in.Manifest = append(in.Manifest, ports.ManifestItemInput{
			Item:     item.Item,
			Quantity: item.Quantity,
			Weight:   item.Weight,
			Value:    item.Value,
		})
	}
	return in
}
