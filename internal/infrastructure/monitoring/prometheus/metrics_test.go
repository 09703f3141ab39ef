package prometheus

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveValidation(t *testing.T) {
	m := NewMetrics(MetricsConfig{Namespace: "test"})

	m.ObserveValidation("local", true, false, 5*time.Millisecond)
	m.ObserveValidation("local", false, false, time.Millisecond)
	m.ObserveValidation("local", true, true, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ValidationsTotal.WithLabelValues("local", "valid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationsTotal.WithLabelValues("local", "invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DegradedTotal))
}

func TestObserveDepiction(t *testing.T) {
	m := NewMetrics(MetricsConfig{Namespace: "test"})

	m.ObserveDepiction("svg", nil, time.Millisecond)
	m.ObserveDepiction("png", errors.New("render failed"), time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DepictionsTotal.WithLabelValues("svg", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DepictionsTotal.WithLabelValues("png", "error")))
}

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	m := NewMetrics(MetricsConfig{Namespace: "test"})
	m.CacheHitsTotal.WithLabelValues("validation").Inc()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_cache_hits_total")
}

func TestPrivateRegistryIsolation(t *testing.T) {
	// Two instances must not collide, which they would on the global registry.
	a := NewMetrics(MetricsConfig{Namespace: "iso"})
	b := NewMetrics(MetricsConfig{Namespace: "iso"})

	a.DegradedTotal.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.DegradedTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.DegradedTotal))
}
