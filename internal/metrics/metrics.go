// Package metrics exposes Prometheus counters for the payment flow. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	charges     *prometheus.CounterVec
	webhooks    *prometheus.CounterVec
	grants      prometheus.Counter
	redemptions *prometheus.CounterVec
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		charges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pixvip",
			Name:      "charges_total",
			Help:      "PIX charge creation attempts by result.",
		}, []string{"gateway", "result"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pixvip",
			Name:      "webhooks_total",
			Help:      "Gateway webhook deliveries by outcome.",
		}, []string{"outcome"}),
		grants: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pixvip",
			Name:      "access_grants_total",
			Help:      "VIP access grants minted.",
		}),
		redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pixvip",
			Name:      "token_redemptions_total",
			Help:      "Token validation attempts by reason.",
		}, []string{"reason"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pixvip",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pixvip",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.charges, m.webhooks, m.grants, m.redemptions, m.requests, m.duration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ChargeCreated(gateway, result string) {
	if m == nil {
		return
	}
	m.charges.WithLabelValues(gateway, result).Inc()
}

func (m *Metrics) Webhook(outcome string) {
	if m == nil {
		return
	}
	m.webhooks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AccessGranted() {
	if m == nil {
		return
	}
	m.grants.Inc()
}

func (m *Metrics) Redemption(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "VALID"
	}
	m.redemptions.WithLabelValues(reason).Inc()
}

func (m *Metrics) Request(route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}
