// Package metrics collects and exposes prometheus metrics for the client.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records API traffic and degrade-gracefully events. Profile
// refreshes fail silently toward the user, so the counter here is the only
// place operators can see a systemic failure.
type Collector struct {
	requestsTotal          *prometheus.CounterVec
	requestLatency         prometheus.Histogram
	profileRefreshFailures prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradekit_requests_total",
			Help: "API requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradekit_request_latency_seconds",
			Help:    "API request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		profileRefreshFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradekit_profile_refresh_failures_total",
			Help: "Profile refreshes that failed and were silently degraded.",
		}),
	}

	reg.MustRegister(c.requestsTotal, c.requestLatency, c.profileRefreshFailures)
	return c
}

// ObserveRequest records one API request outcome. status is 0 when the
// request never produced a response.
func (c *Collector) ObserveRequest(method, route string, status int, duration time.Duration) {
	c.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestLatency.Observe(duration.Seconds())
}

// RecordProfileRefreshFailure counts one silently degraded profile refresh.
func (c *Collector) RecordProfileRefreshFailure() {
	c.profileRefreshFailures.Inc()
}
