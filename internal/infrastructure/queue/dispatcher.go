package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/cargoflow/tracking-system/internal/api/metrics"
	"github.com/cargoflow/tracking-system/internal/core/domain"
	"github.com/cargoflow/tracking-system/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes position reports to a fixed set of workers using
// consistent hashing on the shipment id, guaranteeing per-shipment FIFO
// for batch ingestion while different shipments proceed in parallel.
type Dispatcher struct {
	workers []chan ports.PositionReportInput
	service ports.IngestService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.IngestService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.PositionReportInput, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.PositionReportInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a report to the worker responsible for its shipment id.
// The call is non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(report ports.PositionReportInput) {
	idx := d.shardIndex(report.ShipmentID)
	d.workers[idx] <- report
	metrics.ReportQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// EnqueueBatch enqueues multiple reports preserving per-shipment ordering.
func (d *Dispatcher) EnqueueBatch(reports []ports.PositionReportInput) {
	for _, r := range reports {
		d.Enqueue(r)
	}
}

// shardIndex maps a shipment id deterministically to a worker index.
func (d *Dispatcher) shardIndex(shipmentID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(shipmentID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.PositionReportInput) {
	gauge := metrics.ReportQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case report, ok := <-ch:
			if !ok {
				return
			}
			gauge.Set(float64(len(ch)))
			if err := d.service.Ingest(ctx, report); err != nil {
				// A single report never halts the worker; errors are
				// counted and the loop continues.
				metrics.IngestErrorsTotal.WithLabelValues(errorReason(err)).Inc()
				d.log.Error().Err(err).
					Str("shipment_id", report.ShipmentID).
					Int("worker_id", id).
					Msg("report processing failed")
			}
		}
	}
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrShipmentNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrUnavailable):
		return "unavailable"
	default:
		return "internal"
	}
}
