package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the collectors for one Server. Each server owns its
// registry so tests can build servers side by side.
type metrics struct {
	registry *prometheus.Registry

	// httpRequests counts handled requests.
	// Labels: route, code
	httpRequests *prometheus.CounterVec

	// askDuration measures completion latency per task.
	// Labels: task, outcome (ok, invalid_task, provider_error)
	askDuration *prometheus.HistogramVec

	// rateLimited counts requests rejected by the ask limiter.
	rateLimited prometheus.Counter
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fixxy",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by route and status code",
		}, []string{"route", "code"}),
		askDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fixxy",
			Subsystem: "ask",
			Name:      "duration_seconds",
			Help:      "Time to answer an ask request",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"task", "outcome"}),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fixxy",
			Subsystem: "ask",
			Name:      "rate_limited_total",
			Help:      "Ask requests rejected by the rate limiter",
		}),
	}
}
