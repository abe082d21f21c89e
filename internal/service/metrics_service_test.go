package service

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTransitionOutcomes(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordTransition("approve", nil)
	metrics.RecordTransition("approve", errors.New("not pending"))
	metrics.RecordTransition("approve", nil)

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.transitions.WithLabelValues("approve", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.transitions.WithLabelValues("approve", "rejected")))
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var metrics *MetricsService
	assert.NotPanics(t, func() {
		metrics.RecordTransition("edit", nil)
		metrics.RecordSummaryJob("failed")
		metrics.RecordActivity("LOGIN")
		metrics.ObserveCacheWrite(0)
		metrics.RecordCacheOperation(true, 0)
	})
}
