// internal/metrics/metrics.go
// Package metrics exposes detector activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gtsdetect"

// Metrics contains all Prometheus metrics for the detector
type Metrics struct {
	registry *prometheus.Registry

	// Window classification
	WindowsProcessed prometheus.Counter
	ToneWindows      prometheus.Counter

	// Sequence decoding
	SequencesDetected prometheus.Counter
	DecoderResets     prometheus.Counter

	// Capture
	droppedBlocks prometheus.CounterFunc
}

// New creates the metrics and registers them on reg. A nil reg gets a
// fresh private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		WindowsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "windows_processed_total",
			Help:      "Total number of analysis windows classified",
		}),
		ToneWindows: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tone_windows_total",
			Help:      "Total number of windows classified as tone-present",
		}),
		SequencesDetected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sequences_detected_total",
			Help:      "Total number of complete GTS sequences recognized",
		}),
		DecoderResets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decoder_resets_total",
			Help:      "Total number of partial sequences abandoned on a timing violation",
		}),
	}
}

// WatchDropped exposes a running drop count, read on every scrape.
// It may be called once per Metrics.
func (m *Metrics) WatchDropped(count func() uint64) {
	m.droppedBlocks = promauto.With(m.registry).NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dropped_blocks_total",
		Help:      "Total number of capture periods dropped because the consumer fell behind",
	}, func() float64 {
		return float64(count())
	})
}

// Registry returns the registry holding these metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
