// Package metrics records what a single invocation did so batch
// orchestrators can scrape it through node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the collectors for one invocation.
type Recorder struct {
	registry *prometheus.Registry

	invocations *prometheus.CounterVec
	sum         prometheus.Gauge
	duration    prometheus.Histogram
}

// NewRecorder creates a recorder backed by its own registry.
func NewRecorder() *Recorder {
	return NewRecorderWithRegistry(prometheus.NewRegistry())
}

// NewRecorderWithRegistry creates a recorder that registers its collectors
// with registry.
func NewRecorderWithRegistry(registry *prometheus.Registry) *Recorder {
	r := &Recorder{
		registry: registry,

		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "countstep",
			Name:      "invocations_total",
			Help:      "Step invocations by outcome",
		}, []string{"outcome"}),
		sum: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "countstep",
			Name:      "sum",
			Help:      "Counter value written by the last successful invocation",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "countstep",
			Name:      "duration_seconds",
			Help:      "Time spent reading, computing and writing one request",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}

	registry.MustRegister(r.invocations, r.sum, r.duration)

	return r
}

// Observe records the outcome of one invocation. outcome is a short
// label such as "ok" or "parse_error".
func (r *Recorder) Observe(outcome string, sum int64, elapsed time.Duration) {
	r.invocations.WithLabelValues(outcome).Inc()
	r.duration.Observe(elapsed.Seconds())
	if outcome == "ok" {
		r.sum.Set(float64(sum))
	}
}

// Gatherer exposes the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the registry in the Prometheus text format to path.
// An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
