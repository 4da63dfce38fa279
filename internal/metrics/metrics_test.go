package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObservePricing("brands", "ok", 20*time.Millisecond)
	m.ObservePricing("brands", "ok", 30*time.Millisecond)
	m.ObservePricing("estimate", "unavailable", time.Second)
	m.IncRetry("brands")
	m.ObserveSubmission("estimate", "succeeded")
	m.ObserveArchive("save", nil)
	m.ObserveArchive("import", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pricingRequests.WithLabelValues("brands", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pricingRequests.WithLabelValues("estimate", "unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pricingRetries.WithLabelValues("brands")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("estimate", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.archiveOps.WithLabelValues("import", "error")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObservePricing("brands", "ok", time.Millisecond)
		m.IncRetry("brands")
		m.ObserveSubmission("estimate", "failed")
		m.ObserveArchive("save", nil)
	})
}
