package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cargoflow/tracking-system/internal/api/handler"
	"github.com/cargoflow/tracking-system/internal/api/middleware"
	"github.com/cargoflow/tracking-system/internal/broadcast"
	"github.com/cargoflow/tracking-system/internal/core/ports"
)

// Deps carries everything the router needs. Repositories stay behind the
// services; db/rdb are only used by the readiness probe.
type Deps struct {
	DB  *mongo.Database
	RDB *redis.Client

	Ingest     ports.IngestService
	Shipments  ports.ShipmentService
	Alerts     ports.AlertService
	Dispatcher handler.ReportDispatcher
	Hub        *broadcast.Hub

	// JWTSecret gates privileged routes; empty leaves them unprotected
	// (development only).
	JWTSecret string
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORS())
	e.Use(echoprometheus.NewMiddleware("cargoflow"))

	// --- Handlers ---
	ingestHandler := handler.NewIngestHandler(deps.Ingest, deps.Dispatcher)
	shipmentHandler := handler.NewShipmentHandler(deps.Shipments)
	alertHandler := handler.NewAlertHandler(deps.Alerts)
	wsHandler := handler.NewWSHandler(deps.Hub, deps.Log)

	// --- Ingestion (device webhook + simulator; no caller identity) ---
	e.POST("/api/shipments/webhook/gps", ingestHandler.Receive)
	e.POST("/api/shipments/webhook/gps/batch", ingestHandler.ReceiveBatch)

	// --- Shipments ---
	e.POST("/api/shipments", shipmentHandler.Create)
	e.GET("/api/shipments", shipmentHandler.List)
	e.GET("/api/shipments/stats", shipmentHandler.Stats)
	e.GET("/api/shipments/:id", shipmentHandler.Get)
	e.PATCH("/api/shipments/:id/location", ingestHandler.OverrideLocation)

	// --- Alerts ---
	e.GET("/api/alerts", alertHandler.List)
	e.PATCH("/api/alerts/:id/read", alertHandler.MarkRead)
	if deps.JWTSecret != "" {
		e.DELETE("/api/alerts", alertHandler.Clear,
			middleware.Auth(deps.JWTSecret), middleware.RequireRole("admin"))
	} else {
		e.DELETE("/api/alerts", alertHandler.Clear)
	}

	// --- Broadcast subscription ---
	e.GET("/ws", wsHandler.Subscribe)

	// --- Health probes and metrics ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.DB, deps.RDB)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
