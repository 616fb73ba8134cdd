package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tapeworks/watchlater/pkg/watchlater"
)

// Metrics holds the Prometheus instrumentation. It doubles as a
// watchlater.EventHandler so tracker events feed the counters directly.
type Metrics struct {
	registry *prometheus.Registry

	sessionsOpened prometheus.Counter
	sessionsClosed prometheus.Counter
	positionsSaved prometheus.Counter
	resumes        *prometheus.CounterVec
	state          prometheus.Gauge
	httpRequests   *prometheus.CounterVec
}

// NewMetrics creates the metric set on its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		sessionsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "watchlater_sessions_opened_total",
			Help: "Number of file-opened signals received.",
		}),
		sessionsClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "watchlater_sessions_closed_total",
			Help: "Number of file-closed signals received.",
		}),
		positionsSaved: factory.NewCounter(prometheus.CounterOpts{
			Name: "watchlater_positions_saved_total",
			Help: "Number of playback positions persisted.",
		}),
		resumes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "watchlater_resumes_total",
			Help: "Number of resume positions served, by trigger.",
		}, []string{"auto"}),
		state: factory.NewGauge(prometheus.GaugeOpts{
			Name: "watchlater_state",
			Help: "Current lifecycle state as its enum value.",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "watchlater_http_requests_total",
			Help: "HTTP requests to the control API, by route and status.",
		}, []string{"route", "status"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// OnStateChange implements watchlater.EventHandler.
func (m *Metrics) OnStateChange(event watchlater.StateChangeEvent) {
	m.state.Set(float64(event.Current))
}

// OnPositionSaved implements watchlater.EventHandler.
func (m *Metrics) OnPositionSaved(event watchlater.PositionSavedEvent) {
	m.positionsSaved.Inc()
}

// OnResume implements watchlater.EventHandler.
func (m *Metrics) OnResume(event watchlater.ResumeEvent) {
	if event.Auto {
		m.resumes.WithLabelValues("true").Inc()
	} else {
		m.resumes.WithLabelValues("false").Inc()
	}
}

var _ watchlater.EventHandler = (*Metrics)(nil)
