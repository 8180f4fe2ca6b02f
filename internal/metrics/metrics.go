// Package metrics prometheus collectors for storage round-trips
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "kvschema"

type Collectors struct {
	// Requests round-trips by provider, operation and result (ok, error)
	Requests *prometheus.CounterVec
	// Keys raw keys asked for, by provider
	Keys *prometheus.CounterVec
	// Duration round-trip latency by provider and operation
	Duration *prometheus.HistogramVec
}

// New registers the collectors on reg, nil reg leaves them unregistered
func New(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Provider round-trips.",
		}, []string{"provider", "op", "result"}),
		Keys: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_keys_total",
			Help:      "Raw keys requested from providers.",
		}, []string{"provider"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Provider round-trip latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "op"}),
	}
	if reg == nil {
		return c, nil
	}
	for _, col := range []prometheus.Collector{c.Requests, c.Keys, c.Duration} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Observe records one round-trip
func (c *Collectors) Observe(provider, op string, keys int, seconds float64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.Requests.WithLabelValues(provider, op, result).Inc()
	c.Duration.WithLabelValues(provider, op).Observe(seconds)
	if keys > 0 {
		c.Keys.WithLabelValues(provider).Add(float64(keys))
	}
}
