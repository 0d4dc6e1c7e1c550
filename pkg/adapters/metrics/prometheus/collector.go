package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records site metrics using Prometheus
type Collector struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	upstreamCalls   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	renderFailures  *prometheus.CounterVec
	activeStreams   prometheus.Gauge
}

// NewCollector creates a new Prometheus metrics collector registered with reg.
// Pass prometheus.DefaultRegisterer to expose metrics on promhttp.Handler().
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stargazer_http_requests_total",
				Help: "Total number of HTTP requests served",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stargazer_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"route"},
		),
		upstreamCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stargazer_upstream_calls_total",
				Help: "Total number of upstream API calls",
			},
			[]string{"upstream", "outcome"},
		),
		upstreamLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stargazer_upstream_latency_seconds",
				Help:    "Upstream API call latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"upstream"},
		),
		renderFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stargazer_render_failures_total",
				Help: "Total number of template render failures",
			},
			[]string{"page"},
		),
		activeStreams: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "stargazer_clock_streams_active",
				Help: "Number of open live clock streams",
			},
		),
	}
}

// ObserveRequest records a served HTTP request. route is the matched route
// pattern, never the raw path.
func (c *Collector) ObserveRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// ObserveUpstream records an upstream API call
func (c *Collector) ObserveUpstream(upstream, outcome string, duration time.Duration) {
	c.upstreamCalls.WithLabelValues(upstream, outcome).Inc()
	c.upstreamLatency.WithLabelValues(upstream).Observe(duration.Seconds())
}

// IncRenderFailures increments the count of render failures for a page
func (c *Collector) IncRenderFailures(page string) {
	c.renderFailures.WithLabelValues(page).Inc()
}

// IncStreams increments the number of open clock streams
func (c *Collector) IncStreams() {
	c.activeStreams.Inc()
}

// DecStreams decrements the number of open clock streams
func (c *Collector) DecStreams() {
	c.activeStreams.Dec()
}
