// Package telemetry wires a private Prometheus registry for the backtest
// driver's in-process counters and latency histogram. Grounded on
// Aidin1998-finalex's monitoring/metrics.go, adapted to a private registry
// rather than the package-global default one so multiple driver instances
// in the same process never collide on metric names, and with no HTTP
// listener bound anywhere: network exposition is out of scope.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

type Metrics struct {
	registry *prometheus.Registry

	OrdersSubmitted prometheus.Counter
	OrdersDenied    prometheus.Counter
	OrdersFilled    prometheus.Counter
	RecordLatency   prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		OrdersSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtest_orders_submitted_total",
			Help: "Total orders that passed the risk gate and were routed to a venue.",
		}),
		OrdersDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtest_orders_denied_total",
			Help: "Total orders denied by the pre-trade risk gate.",
		}),
		OrdersFilled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtest_orders_filled_total",
			Help: "Total OrderFilled events processed.",
		}),
		RecordLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "backtest_record_processing_seconds",
			Help:    "Wall-clock time spent processing one market-data record.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 12),
		}),
	}
	m.registry.MustRegister(m.OrdersSubmitted, m.OrdersDenied, m.OrdersFilled, m.RecordLatency)
	return m
}

// ObserveRecordLatency records how long it took to process one record,
// given its start time.
func (m *Metrics) ObserveRecordLatency(start time.Time) {
	m.RecordLatency.Observe(time.Since(start).Seconds())
}

// Gather exposes the registered metric families for any caller that wants
// to inspect or export them; the driver never binds an HTTP listener.
func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	return m.registry.Gather()
}

// Registry returns the private registry directly for callers (tests, a
// future exporter) that need the full prometheus.Gatherer surface.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
