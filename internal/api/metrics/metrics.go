// Package metrics defines and registers all custom Prometheus metrics for
// the CargoFlow tracking core. It is the single source of truth for metric
// names, labels, and help strings; promauto registers everything with the
// default registry at package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cargoflow"

// ReportsIngestedTotal counts position reports that applied successfully.
// Labels:
//   - status: the shipment status after the report (e.g. "In Transit")
var ReportsIngestedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reports_ingested_total",
		Help:      "Total number of position reports successfully applied.",
	},
	[]string{"status"},
)

// IngestErrorsTotal counts reports that failed processing.
// Label:
//   - reason: "not_found", "invalid_input", "unavailable" or "internal"
var IngestErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_errors_total",
		Help:      "Total number of position reports that failed processing.",
	},
	[]string{"reason"},
)

// AlertsCreatedTotal counts persisted alerts.
// Labels:
//   - type: alert type (e.g. "exception", "location_update")
//   - severity: info/warning/critical
var AlertsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_created_total",
		Help:      "Total number of alerts persisted, by type and severity.",
	},
	[]string{"type", "severity"},
)

// BroadcastEventsTotal counts events published to the hub.
// Label:
//   - type: "position_update" or "alert_created"
var BroadcastEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcast_events_total",
		Help:      "Total number of events published to the broadcast hub.",
	},
	[]string{"type"},
)

// WebsocketSessions tracks currently connected viewer sessions.
var WebsocketSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_sessions",
		Help:      "Current number of connected viewer sessions.",
	},
)

// ReportQueueDepth tracks reports waiting in each batch-dispatcher worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ReportQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "report_queue_depth",
		Help:      "Current number of reports pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// IngestDuration measures how long one report takes end-to-end.
var IngestDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ingest_duration_seconds",
		Help:      "Duration of position report processing from receipt to broadcast.",
		Buckets:   prometheus.DefBuckets,
	},
)
