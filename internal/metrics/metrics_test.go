package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scrape runs one request through the collector's handler and returns the
// exposition body.
func scrape(t *testing.T, handler http.Handler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	resp := rec.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestPrometheusCollector_ProbeCompleted(t *testing.T) {
	c := NewPrometheusCollector()

	c.ProbeCompleted("user-api", "backend", "healthy", 0.25)
	c.ProbeCompleted("user-api", "backend", "healthy", 0.5)
	c.ProbeCompleted("checkout-web", "frontend", "unhealthy", 0)

	assert.InDelta(t, 2.0, testutil.ToFloat64(c.probesTotal.WithLabelValues("user-api", "backend", "healthy")), 0.001)
	assert.InDelta(t, 1.0, testutil.ToFloat64(c.probesTotal.WithLabelValues("checkout-web", "frontend", "unhealthy")), 0.001)

	body := scrape(t, c.Handler())
	assert.Contains(t, body, `pulsewatch_probes_total{service="user-api",status="healthy",type="backend"} 2`)
	assert.Contains(t, body, `pulsewatch_probe_duration_seconds_count{service="user-api"} 2`)
}

func TestPrometheusCollector_RunObservations(t *testing.T) {
	c := NewPrometheusCollector()

	c.RunStarted()
	c.RunCompleted(1500 * time.Millisecond)

	assert.InDelta(t, 1.0, testutil.ToFloat64(c.runsTotal), 0.001)

	body := scrape(t, c.Handler())
	assert.Contains(t, body, "pulsewatch_runs_total 1")
	assert.Contains(t, body, "pulsewatch_run_duration_seconds_count 1")
}

func TestPrometheusCollector_AlertSent(t *testing.T) {
	c := NewPrometheusCollector()

	c.AlertSent(true)
	c.AlertSent(true)
	c.AlertSent(false)

	assert.InDelta(t, 2.0, testutil.ToFloat64(c.alertsTotal.WithLabelValues("sent")), 0.001)
	assert.InDelta(t, 1.0, testutil.ToFloat64(c.alertsTotal.WithLabelValues("error")), 0.001)
}

func TestPrometheusCollector_PrivateRegistry(t *testing.T) {
	// Two collectors must not collide on registration
	first := NewPrometheusCollector()
	second := NewPrometheusCollector()

	first.RunStarted()

	assert.InDelta(t, 1.0, testutil.ToFloat64(first.runsTotal), 0.001)
	assert.InDelta(t, 0.0, testutil.ToFloat64(second.runsTotal), 0.001)

	// Runtime collectors ride along on the private registry
	body := scrape(t, first.Handler())
	assert.Contains(t, body, "go_goroutines")
}

func TestNopCollector(t *testing.T) {
	var c Collector = NopCollector{}

	// Observations are discarded without panicking
	c.RunStarted()
	c.RunCompleted(time.Second)
	c.ProbeCompleted("user-api", "backend", "healthy", 0.1)
	c.AlertSent(true)

	body := scrape(t, c.Handler())
	assert.Contains(t, body, "disabled")
}
