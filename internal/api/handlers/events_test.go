package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camcoord/coordinator/internal/api"
	"github.com/camcoord/coordinator/internal/artifact"
	"github.com/camcoord/coordinator/internal/storetest"
	"github.com/camcoord/coordinator/pkg/dto"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return api.NewRouter(api.RouterConfig{
		Store:     storetest.New(),
		Artifacts: artifact.New(t.TempDir()),
	})
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func registerCamera(t *testing.T, r *gin.Engine, stableName string) {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/v1/cameras", dto.RegisterCameraRequest{StableName: stableName})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestCreateEventAndGet(t *testing.T) {
	r := newTestRouter(t)
	registerCamera(t, r, "cam01")

	rec := doJSON(t, r, http.MethodPost, "/v1/events", dto.CreateEventRequest{
		Camera:      "cam01",
		Timestamp:   "2026-08-06T10:00:00Z",
		MotionScore: 0.8,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created dto.CreateEventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "processing", created.Status)
	assert.Equal(t, "pending", created.MP4ConversionStatus)

	getRec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/events/"+strconv.FormatInt(created.ID, 10), nil)
	r.ServeHTTP(getRec, req)
	require.Equal(t, http.StatusOK, getRec.Code, getRec.Body.String())
}

func TestCreateEventUnknownCamera(t *testing.T) {
	r := newTestRouter(t)
	rec := doJSON(t, r, http.MethodPost, "/v1/events", dto.CreateEventRequest{
		Camera:      "no_such_camera",
		Timestamp:   "2026-08-06T10:00:00Z",
		MotionScore: 0.1,
	})
	// Unknown camera surfaces the same way it would against the real
	// Store: a foreign-key violation on events.camera_stable_name,
	// classified as ErrConstraintViolation, not a pre-check NotFound.
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateEventValidationError(t *testing.T) {
	r := newTestRouter(t)
	registerCamera(t, r, "cam01")

	rec := doJSON(t, r, http.MethodPost, "/v1/events", dto.CreateEventRequest{
		Camera:      "cam01",
		Timestamp:   "not-a-timestamp",
		MotionScore: 0.1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateEventStatusIsMonotonic(t *testing.T) {
	r := newTestRouter(t)
	registerCamera(t, r, "cam01")
	created := doJSON(t, r, http.MethodPost, "/v1/events", dto.CreateEventRequest{
		Camera: "cam01", Timestamp: "2026-08-06T10:00:00Z", MotionScore: 0.1,
	})
	var ev dto.CreateEventResponse
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &ev))

	id := strconv.FormatInt(ev.ID, 10)
	rec := doJSON(t, r, http.MethodPost, "/v1/events/"+id+"/status", dto.UpdateEventStatusRequest{Status: "complete"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/v1/events/"+id+"/status", dto.UpdateEventStatusRequest{Status: "failed"})
	assert.Equal(t, http.StatusConflict, rec.Code, "a terminal event must not accept a second status transition")
}

func TestListEventsPagination(t *testing.T) {
	r := newTestRouter(t)
	registerCamera(t, r, "cam01")
	for i := 0; i < 3; i++ {
		rec := doJSON(t, r, http.MethodPost, "/v1/events", dto.CreateEventRequest{
			Camera: "cam01", Timestamp: "2026-08-06T10:00:00Z", MotionScore: 0.1,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	getRec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/events?limit=2&offset=0", nil)
	r.ServeHTTP(getRec, req)
	require.Equal(t, http.StatusOK, getRec.Code)

	var list dto.EventListResponse
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &list))
	assert.Equal(t, 3, list.Total)
	assert.Len(t, list.Events, 2)
}
