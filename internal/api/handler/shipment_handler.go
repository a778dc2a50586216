package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cargoflow/tracking-system/internal/core/ports"
)

// ShipmentHandler handles HTTP requests for shipment operations.
type ShipmentHandler struct {
	service ports.ShipmentService
}

func NewShipmentHandler(service ports.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{service: service}
}

// Create handles POST /api/shipments.
//
// @Summary      Register a new shipment with its precomputed route
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Param        body  body      createShipmentRequest  true  "Shipment"
// @Success      201   {object}  domain.Shipment
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/shipments [post]
func (h *ShipmentHandler) Create(c echo.Context) error {
	var req createShipmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	shipment, err := h.service.Create(c.Request().Context(), toCreateInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, shipment)
}

// List handles GET /api/shipments: the snapshot read backing viewer
// resync, optionally scoped by region.
//
// @Summary      List all shipments (full snapshot)
// @Tags         shipments
// @Produce      json
// @Param        region  query     string  false  "Region scope"
// @Success      200     {array}   domain.Shipment
// @Failure      503     {object}  errorResponse
// @Router       /api/shipments [get]
func (h *ShipmentHandler) List(c echo.Context) error {
	shipments, err := h.service.Snapshot(c.Request().Context(), c.QueryParam("region"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shipments)
}

// Get handles GET /api/shipments/:id.
//
// @Summary      Get a single shipment
// @Tags         shipments
// @Produce      json
// @Param        id  path      string  true  "Shipment identifier"
// @Success      200 {object}  domain.Shipment
// @Failure      404 {object}  errorResponse
// @Router       /api/shipments/{id} [get]
func (h *ShipmentHandler) Get(c echo.Context) error {
	shipment, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shipment)
}

// Stats handles GET /api/shipments/stats.
//
// @Summary      Fleet totals by status
// @Tags         shipments
// @Produce      json
// @Success      200 {object}  fleetStatsResponse
// @Router       /api/shipments/stats [get]
func (h *ShipmentHandler) Stats(c echo.Context) error {
	stats, err := h.service.Stats(c.Request().Context())
	if err != nil {
		return err
	}

	resp := fleetStatsResponse{
		Total:    stats.Total,
		ByStatus: make(map[string]int64, len(stats.ByStatus)),
	}
	for status, count := range stats.ByStatus {
		resp.ByStatus[string(status)] = count
	}
	return c.JSON(http.StatusOK, resp)
}
