package service

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

func TestMetricsServiceRecordSession(t *testing.T) {
	m := NewMetricsService()

	m.RecordSession(3, true)
	m.RecordSession(3, false)
	m.RecordSession(4, true)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.sessionsProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.badgesAwarded.WithLabelValues("3")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.badgesAwarded.WithLabelValues("4")))
}

func TestMetricsServiceCacheHitRatio(t *testing.T) {
	m := NewMetricsService()

	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)

	assert.InDelta(t, 0.75, testutil.ToFloat64(m.cacheHitRatio), 0.0001)
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodPost, "/api/sessions", http.StatusOK, 5*time.Millisecond)
	m.ObserveDBQuery("students.mutate", time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `http_requests_total{method="POST",path="/api/sessions",status="200"} 1`)
	assert.Contains(t, string(body), "db_query_duration_seconds")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.RecordSession(1, true)
		m.ObserveDBQuery("x", time.Millisecond)
		m.RecordCacheOperation(true, time.Millisecond)
	})
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
