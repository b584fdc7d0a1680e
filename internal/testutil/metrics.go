package testutil

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
)

// CounterValue reads the current value of one labeled counter.
func CounterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	c, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("counter with labels %v: %v", labels, err)
	}
	return promtestutil.ToFloat64(c)
}
