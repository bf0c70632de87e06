package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/bouncetimer/internal/model"
)

const namespace = "bouncetimer"

// Metrics holds the collectors for one server process on a dedicated registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	players      *prometheus.GaugeVec
	events       *prometheus.CounterVec
	expirations  prometheus.Counter
	syncFailures prometheus.Counter
	sseClients   prometheus.Gauge
}

// New creates the collectors and registers them together with the Go and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		players: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "players",
			Help:      "Number of players in the store by status.",
		}, []string{"status"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_events_total",
			Help:      "Change events emitted by the player store by action.",
		}, []string{"action"}),
		expirations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expirations_total",
			Help:      "Player slots marked expired by a countdown.",
		}),
		syncFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_parse_failures_total",
			Help:      "Persisted documents from other contexts that could not be parsed.",
		}),
		sseClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sse_clients",
			Help:      "Connected dashboard event streams.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.players,
		m.events,
		m.expirations,
		m.syncFailures,
		m.sseClients,
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveEvent is a store listener that keeps the player gauges current
func (m *Metrics) ObserveEvent(e model.ChangeEvent) {
	if m == nil {
		return
	}
	active, expired := 0, 0
	for _, p := range e.Players {
		if p.Status == model.StatusExpired {
			expired++
		} else {
			active++
		}
	}
	m.players.WithLabelValues(string(model.StatusActive)).Set(float64(active))
	m.players.WithLabelValues(string(model.StatusExpired)).Set(float64(expired))
	m.events.WithLabelValues(string(e.Action)).Inc()
}

// Expired records a countdown-driven expiry
func (m *Metrics) Expired() {
	if m == nil {
		return
	}
	m.expirations.Inc()
}

// SyncParseFailed records a rejected cross-context document
func (m *Metrics) SyncParseFailed() {
	if m == nil {
		return
	}
	m.syncFailures.Inc()
}

// SSEClientConnected adjusts the connected stream gauge by delta
func (m *Metrics) SSEClientConnected(delta int) {
	if m == nil {
		return
	}
	m.sseClients.Add(float64(delta))
}
