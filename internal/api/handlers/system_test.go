package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camcoord/coordinator/pkg/dto"
)

func TestHealthz(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var health dto.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
}

func TestStatsByCameraAndStatus(t *testing.T) {
	r := newTestRouter(t)
	registerCamera(t, r, "cam01")

	rec := doJSON(t, r, http.MethodPost, "/v1/events", dto.CreateEventRequest{
		Camera: "cam01", Timestamp: "2026-08-06T10:00:00Z", MotionScore: 0.3,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	camRec := httptest.NewRecorder()
	r.ServeHTTP(camRec, httptest.NewRequest(http.MethodGet, "/v1/stats/cameras", nil))
	require.Equal(t, http.StatusOK, camRec.Code)
	var camStats dto.CameraStatsResponse
	require.NoError(t, json.Unmarshal(camRec.Body.Bytes(), &camStats))
	if assert.Len(t, camStats.Cameras, 1) {
		assert.Equal(t, "cam01", camStats.Cameras[0].Camera)
		assert.Equal(t, 1, camStats.Cameras[0].Count)
	}

	statusRec := httptest.NewRecorder()
	r.ServeHTTP(statusRec, httptest.NewRequest(http.MethodGet, "/v1/stats/status", nil))
	require.Equal(t, http.StatusOK, statusRec.Code)
	var statusStats dto.StatusStatsResponse
	require.NoError(t, json.Unmarshal(statusRec.Body.Bytes(), &statusStats))
	if assert.Len(t, statusStats.Statuses, 1) {
		assert.Equal(t, "processing", statusStats.Statuses[0].Status)
	}
}

func TestStatsDaily(t *testing.T) {
	r := newTestRouter(t)
	registerCamera(t, r, "cam01")

	rec := doJSON(t, r, http.MethodPost, "/v1/events", dto.CreateEventRequest{
		Camera: "cam01", Timestamp: time.Now().UTC().Format(time.RFC3339), MotionScore: 0.3,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	dailyRec := httptest.NewRecorder()
	r.ServeHTTP(dailyRec, httptest.NewRequest(http.MethodGet, "/v1/stats/daily?days=7", nil))
	require.Equal(t, http.StatusOK, dailyRec.Code)
	var daily dto.DailyStatsResponse
	require.NoError(t, json.Unmarshal(dailyRec.Body.Bytes(), &daily))
	assert.NotEmpty(t, daily.Days)
}
