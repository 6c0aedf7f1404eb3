package jobmetrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, registry *prometheus.Registry) string {
	t.Helper()
	rr := httptest.NewRecorder()
	promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestTrackerRecordsOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	require.NoError(t, m.Track("inventory:expiration_scan").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("inventory:expiration_scan").End(boom), boom)

	body := scrape(t, registry)
	assert.Contains(t, body, `odyssey_jobs_total{job="inventory:expiration_scan",status="success"} 1`)
	assert.Contains(t, body, `odyssey_jobs_total{job="inventory:expiration_scan",status="failure"} 1`)
	assert.Contains(t, body, `odyssey_jobs_failures_total{job="inventory:expiration_scan"} 1`)
	assert.Contains(t, body, `odyssey_job_duration_seconds_count{job="inventory:expiration_scan"} 2`)
}

func TestObserveScanCountsStoresAndFlaggedItems(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.ObserveScan("procurement:reorder_scan", 3, map[string]int{"reorder": 4, "none": 0})
	m.ObserveScan("procurement:reorder_scan", 0, nil)

	body := scrape(t, registry)
	assert.Contains(t, body, `odyssey_jobs_stores_processed_total{job="procurement:reorder_scan"} 3`)
	assert.Contains(t, body, `odyssey_jobs_items_flagged_total{job="procurement:reorder_scan",kind="reorder"} 4`)
	assert.NotContains(t, body, `kind="none"`)
}

func TestNilMetricsTrackerPassesErrorThrough(t *testing.T) {
	var m *Metrics
	boom := errors.New("boom")
	assert.Equal(t, boom, m.Track("x").End(boom))
	m.ObserveScan("x", 1, map[string]int{"expired": 1})
}
