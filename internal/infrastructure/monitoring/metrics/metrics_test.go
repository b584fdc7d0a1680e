package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	m := New()
	require.NotNil(t, m.Registry)

	m.FetchesTotal.WithLabelValues("shipments", "final", "ok").Inc()
	m.CacheHitsTotal.WithLabelValues("shipments").Add(2)
	m.ActiveSessions.Set(3)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.FetchesTotal.WithLabelValues("shipments", "final", "ok")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("shipments")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.ActiveSessions))
}

func TestNew_IndependentRegistries(t *testing.T) {
	// Two instances must not collide; each owns its registry.
	a := New()
	b := New()
	a.DebounceCollapsed.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(a.DebounceCollapsed))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.DebounceCollapsed))
}
