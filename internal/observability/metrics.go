package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dspctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests served by stub participants.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dspctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	phaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dspctl",
			Subsystem: "driver",
			Name:      "phase_duration_seconds",
			Help:      "Protocol phase duration in seconds.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"phase", "result"},
	)
	probeOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dspctl",
			Subsystem: "driver",
			Name:      "probe_total",
			Help:      "Convergence probe evaluations by outcome.",
		},
		[]string{"phase", "outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, phaseDuration, probeOutcomes)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordPhase(phase string, duration time.Duration, success bool) {
	RegisterMetrics()
	result := "ok"
	if !success {
		result = "error"
	}
	phaseDuration.WithLabelValues(phase, result).Observe(duration.Seconds())
}

func RecordProbe(phase, outcome string) {
	RegisterMetrics()
	probeOutcomes.WithLabelValues(phase, outcome).Inc()
}
