package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline counters. A nil *Metrics records nothing.
type Metrics struct {
	Selections      *prometheus.CounterVec
	Fallbacks       *prometheus.CounterVec
	Drafts          *prometheus.CounterVec
	GatewayCalls    *prometheus.CounterVec
	GatewayLatency  *prometheus.HistogramVec
	TopicsCollected *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the pipeline metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autopost_selection_total",
			Help: "Topic selections by the interpreter tier that produced them",
		}, []string{"tier"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autopost_selection_fallback_total",
			Help: "Selections served by random sampling",
		}, []string{"reason"}),
		Drafts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autopost_drafts_total",
			Help: "Draft attempts by account set and outcome",
		}, []string{"account", "outcome"}),
		GatewayCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autopost_gateway_calls_total",
			Help: "Model gateway calls by backend and outcome",
		}, []string{"backend", "outcome"}),
		GatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "autopost_gateway_call_seconds",
			Help:    "Model gateway call latency",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"backend"}),
		TopicsCollected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autopost_topics_collected_total",
			Help: "New topics stored by account set and source",
		}, []string{"account", "source"}),
		gatherer: reg,
	}
	reg.MustRegister(m.Selections, m.Fallbacks, m.Drafts, m.GatewayCalls, m.GatewayLatency, m.TopicsCollected)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) Selection(tier string) {
	if m == nil {
		return
	}
	m.Selections.WithLabelValues(tier).Inc()
}

func (m *Metrics) Fallback(reason string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(reason).Inc()
}

func (m *Metrics) Draft(account, outcome string) {
	if m == nil {
		return
	}
	m.Drafts.WithLabelValues(account, outcome).Inc()
}

func (m *Metrics) GatewayCall(backend, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.GatewayCalls.WithLabelValues(backend, outcome).Inc()
	m.GatewayLatency.WithLabelValues(backend).Observe(seconds)
}

func (m *Metrics) Collected(account, source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.TopicsCollected.WithLabelValues(account, source).Add(float64(n))
}
