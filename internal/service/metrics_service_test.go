package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/admin/applications", 200, 20*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordBulkAction("status", 3, true)
	m.RecordBulkAction("delete", 2, false)
	m.RecordDraftSave(true)
	m.RecordDraftSave(false)
	m.RecordSubmission()

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.RequestsTotal)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 0.001)
	assert.Equal(t, uint64(2), snap.BulkActions)
	assert.Equal(t, uint64(1), snap.BulkFailures)
	assert.Equal(t, uint64(1), snap.DraftSaves)
	assert.Equal(t, uint64(1), snap.DraftSaveFailures)
	assert.Equal(t, uint64(1), snap.ApplicationsSubmitted)
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.RecordBulkAction("status", 1, true)
	m.SetWizardSessions(4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `review_bulk_actions_total{action="status",result="success"} 1`))
	assert.True(t, strings.Contains(body, "wizard_sessions_active 4"))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordBulkAction("status", 1, true)
	m.RecordDraftSave(true)
	m.RecordStaleFetch()
	assert.Equal(t, uint64(0), m.Snapshot().BulkActions)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
