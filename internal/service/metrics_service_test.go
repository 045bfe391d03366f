package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatherFamily(t *testing.T, m *MetricsService, name string) *dto.MetricFamily {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/courses/meetings", http.StatusOK, 5*time.Millisecond)
	m.ObserveUpstream("ok", 200*time.Millisecond)
	m.ObserveUpstream("error", time.Second)
	m.AddCoursesSynced("20259", 3)
	m.AddCoursesSynced("20259", 0)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordSyncJob("succeeded")

	requests := gatherFamily(t, m, "http_requests_total")
	require.NotNil(t, requests)
	assert.Equal(t, 1.0, requests.GetMetric()[0].GetCounter().GetValue())

	upstream := gatherFamily(t, m, "ttb_upstream_requests_total")
	require.NotNil(t, upstream)
	assert.Len(t, upstream.GetMetric(), 2)

	synced := gatherFamily(t, m, "ttb_courses_synced_total")
	require.NotNil(t, synced)
	assert.Equal(t, 3.0, synced.GetMetric()[0].GetCounter().GetValue())
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.RecordCacheOperation(false, time.Millisecond)
		m.ObserveCacheWrite(time.Millisecond)
		m.ObserveDBQuery("q", time.Millisecond)
		m.ObserveUpstream("ok", time.Millisecond)
		m.AddCoursesSynced("20259", 1)
		m.RecordSyncJob("failed")
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
