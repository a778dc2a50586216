package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cargoflow/tracking-system/internal/api/metrics"
	"github.com/cargoflow/tracking-system/internal/core/ports"
)

// ReportDispatcher is the interface the batch endpoint uses to enqueue
// reports for asynchronous processing.
type ReportDispatcher interface {
	Enqueue(report ports.PositionReportInput)
	EnqueueBatch(reports []ports.PositionReportInput)
}

// IngestHandler handles position report ingestion.
type IngestHandler struct {
	service    ports.IngestService
	dispatcher ReportDispatcher
}

// NewIngestHandler creates an IngestHandler over the ingest service and
// the batch dispatcher.
func NewIngestHandler(service ports.IngestService, dispatcher ReportDispatcher) *IngestHandler {
	return &IngestHandler{service: service, dispatcher: dispatcher}
}

// Receive handles POST /api/shipments/webhook/gps: applies a single
// report synchronously.
//
// @Summary      Ingest a single GPS position report
// @Tags         ingestion
// @Accept       json
// @Produce      json
// @Param        body  body      gpsReportRequest  true  "Position report"
// @Success      200   {object}  successResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/shipments/webhook/gps [post]
func (h *IngestHandler) Receive(c echo.Context) error {
	var req gpsReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	start := time.Now()
	if err := h.service.Ingest(c.Request().Context(), toReportInput(req)); err != nil {
		return err
	}
	metrics.IngestDuration.Observe(time.Since(start).Seconds())

	return c.JSON(http.StatusOK, successResponse{Success: true})
}

// ReceiveBatch handles POST /api/shipments/webhook/gps/batch: enqueues a
// batch of reports for asynchronous, per-shipment-ordered processing.
//
// @Summary      Ingest a batch of GPS position reports
// @Tags         ingestion
// @Accept       json
// @Produce      json
// @Param        body  body      []gpsReportRequest  true  "Array of position reports"
// @Success      202   {object}  ingestAcceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/shipments/webhook/gps/batch [post]
func (h *IngestHandler) ReceiveBatch(c echo.Context) error {
	var reqs []gpsReportRequest
	if err := c.Bind(&reqs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if len(reqs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "batch cannot be empty")
	}

	inputs := make([]ports.PositionReportInput, 0, len(reqs))
	for i, req := range reqs {
		if err := c.Validate(&req); err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity,
				fmt.Sprintf("report[%d]: %s", i, err.Error()))
		}
		inputs = append(inputs, toReportInput(req))
	}

	h.dispatcher.EnqueueBatch(inputs)
	return c.JSON(http.StatusAccepted, ingestAcceptedResponse{
		Message: "reports accepted",
		Count:   len(inputs),
	})
}

// OverrideLocation handles PATCH /api/shipments/:id/location: manual
// operator move. Always broadcasts, never samples an alert.
//
// @Summary      Manually override a shipment's location
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Param        id    path      string                   true  "Shipment identifier"
// @Param        body  body      overrideLocationRequest  true  "New coordinates"
// @Success      200   {object}  successResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/shipments/{id}/location [patch]
func (h *IngestHandler) OverrideLocation(c echo.Context) error {
	var req overrideLocationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if err := h.service.OverrideLocation(c.Request().Context(), c.Param("id"), req.Lat, req.Lng); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}
