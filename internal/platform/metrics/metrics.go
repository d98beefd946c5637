package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "courtsync"

// Metrics holds the engine collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	registry         *prometheus.Registry
	polls            *prometheus.CounterVec
	advances         *prometheus.CounterVec
	smartSwitches    prometheus.Counter
	reassignments    prometheus.Counter
	watchdogRestarts prometheus.Counter
	fetchDuration    *prometheus.HistogramVec
	cacheRequests    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Poll cycles by result.",
		}, []string{"result"}),
		advances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "advances_total",
			Help:      "Auto-advances by reason.",
		}, []string{"reason"}),
		smartSwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "smart_switches_total",
			Help:      "Active match switches to an already started queued match.",
		}),
		reassignments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reassignments_total",
			Help:      "Matches moved between courts by the reassignment pass.",
		}),
		watchdogRestarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watchdog_restarts_total",
			Help:      "Polling loops restarted by the watchdog.",
		}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Upstream fetch latency including retries.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"result"}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Response cache lookups by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.polls,
		m.advances,
		m.smartSwitches,
		m.reassignments,
		m.watchdogRestarts,
		m.fetchDuration,
		m.cacheRequests,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Poll(result string) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(result).Inc()
}

func (m *Metrics) Advance(reason string) {
	if m == nil {
		return
	}
	m.advances.WithLabelValues(reason).Inc()
}

func (m *Metrics) SmartSwitch() {
	if m == nil {
		return
	}
	m.smartSwitches.Inc()
}

func (m *Metrics) Reassignment() {
	if m == nil {
		return
	}
	m.reassignments.Inc()
}

func (m *Metrics) WatchdogRestart() {
	if m == nil {
		return
	}
	m.watchdogRestarts.Inc()
}

func (m *Metrics) Fetch(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.fetchDuration.WithLabelValues(result).Observe(elapsed.Seconds())
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}
