// Package metrics holds the prometheus collectors of the estimator.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "car_estimator"

type Metrics struct {
	pricingRequests *prometheus.CounterVec
	pricingDuration *prometheus.HistogramVec
	pricingRetries  *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	archiveOps      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pricingRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "requests_total",
			Help:      "Pricing service calls by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		pricingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "request_duration_seconds",
			Help:      "Pricing service call latency.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"endpoint"}),
		pricingRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "retries_total",
			Help:      "Retried read-only lookups.",
		}, []string{"endpoint"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Terminal submission states by flow.",
		}, []string{"flow", "state"}),
		archiveOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "operations_total",
			Help:      "Study archive operations by result.",
		}, []string{"op", "result"}),
	}

	reg.MustRegister(m.pricingRequests, m.pricingDuration, m.pricingRetries, m.submissions, m.archiveOps)
	return m
}

func (m *Metrics) ObservePricing(endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.pricingRequests.WithLabelValues(endpoint, outcome).Inc()
	m.pricingDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) IncRetry(endpoint string) {
	if m == nil {
		return
	}
	m.pricingRetries.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) ObserveSubmission(flow, state string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(flow, state).Inc()
}

func (m *Metrics) ObserveArchive(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.archiveOps.WithLabelValues(op, result).Inc()
}
