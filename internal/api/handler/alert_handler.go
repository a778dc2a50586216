package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cargoflow/tracking-system/internal/core/ports"
)

// AlertHandler handles viewer-facing alert operations.
type AlertHandler struct {
	service ports.AlertService
}

func NewAlertHandler(service ports.AlertService) *AlertHandler {
	return &AlertHandler{service: service}
}

type clearAlertsResponse struct {
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

// List handles GET /api/alerts?limit=N: most recent alerts, newest first.
//
// @Summary      List recent alerts
// @Tags         alerts
// @Produce      json
// @Param        limit  query     int  false  "Max alerts to return (default 100)"
// @Success      200    {array}   domain.Alert
// @Failure      503    {object}  errorResponse
// @Router       /api/alerts [get]
func (h *AlertHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	alerts, err := h.service.Recent(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, alerts)
}

// MarkRead handles PATCH /api/alerts/:id/read.
//
// @Summary      Mark an alert as read
// @Tags         alerts
// @Produce      json
// @Param        id  path      string  true  "Alert id"
// @Success      200 {object}  domain.Alert
// @Failure      404 {object}  errorResponse
// @Router       /api/alerts/{id}/read [patch]
func (h *AlertHandler) MarkRead(c echo.Context) error {
	alert, err := h.service.MarkRead(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, alert)
}

// Clear handles DELETE /api/alerts: removes every alert. The route is
// gated on the admin role by the auth middleware.
//
// @Summary      Clear all alerts
// @Tags         alerts
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object}  clearAlertsResponse
// @Failure      401 {object}  errorResponse
// @Failure      403 {object}  errorResponse
// @Router       /api/alerts [delete]
func (h *AlertHandler) Clear(c echo.Context) error {
	deleted, err := h.service.Clear(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, clearAlertsResponse{
		Message: "all alerts cleared",
		Deleted: deleted,
	})
}
