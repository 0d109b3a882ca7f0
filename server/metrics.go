package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "sgo_relay"

// Login outcomes
const (
	outcomeSuccess            = "success"
	outcomeInvalidCredentials = "invalid_credentials"
	outcomeRejected           = "rejected"
	outcomeUpstreamFailure    = "upstream_failure"
	outcomeError              = "error"
)

// Metrics is the relay's private Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.HistogramVec
	logins   *prometheus.CounterVec
	upstream *prometheus.CounterVec
}

// NewMetrics registers the relay collectors. sessions and pending report the
// current size of the two stores.
func NewMetrics(sessions, pending func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of relay requests by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "logins_total",
			Help:      "Login attempts by method and outcome.",
		}, []string{"method", "outcome"}),
		upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "upstream_failures_total",
			Help:      "Failed calls to the school system or identity provider.",
		}, []string{"service"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.logins,
		m.upstream,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sessions",
			Help:      "Sessions currently held, expired ones not yet swept included.",
		}, func() float64 { return float64(sessions()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "pending_authorizations",
			Help:      "Identity provider logins waiting for their callback.",
		}, func() float64 { return float64(pending()) }),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Observe(duration.Seconds())
}

func (m *Metrics) ObserveLogin(method, outcome string) {
	m.logins.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) ObserveUpstreamFailure(service string) {
	m.upstream.WithLabelValues(service).Inc()
}
