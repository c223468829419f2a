package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()

	m.RecordSignup(models.RoleStudent)
	m.RecordSignup(models.RoleStudent)
	m.RecordApplication()
	m.RecordStatusUpdate(models.StatusSelected)
	m.RecordCVUpload()
	m.RecordLoginThrottled()
	m.RecordCacheOperation(true, time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/jobs", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `placement_signups_total{role="student"} 2`)
	assert.Contains(t, body, "placement_applications_created_total 1")
	assert.Contains(t, body, `placement_application_status_updates_total{status="selected"} 1`)
	assert.Contains(t, body, `cache_lookups_total{result="hit"} 1`)
	assert.Contains(t, body, "placement_logins_throttled_total 1")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService

	assert.NotPanics(t, func() {
		m.RecordSignup(models.RoleRecruiter)
		m.RecordApplication()
		m.RecordCacheOperation(false, time.Millisecond)
		m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	})
}
