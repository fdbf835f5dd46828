package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camcoord/coordinator/pkg/dto"
)

func TestIngestAndQueryLogs(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/v1/logs", dto.IngestLogsRequest{Lines: []dto.LogLineInput{
		{Source: "central", Timestamp: "2026-08-06T10:00:00Z", Level: "INFO", Message: "one"},
		{Source: "central", Timestamp: "2026-08-06T10:00:01Z", Level: "ERROR", Message: "two"},
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var ingested dto.IngestLogsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ingested))
	assert.Equal(t, 2, ingested.Accepted)
	assert.Equal(t, ingested.FirstID+1, ingested.LastID)

	queryRec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/logs?order=asc", nil)
	r.ServeHTTP(queryRec, req)
	require.Equal(t, http.StatusOK, queryRec.Code)

	var page dto.LogQueryResponse
	require.NoError(t, json.Unmarshal(queryRec.Body.Bytes(), &page))
	if assert.Len(t, page.Lines, 2) {
		assert.Equal(t, "one", page.Lines[0].Message, "ascending order returns the oldest line first")
		assert.Equal(t, "two", page.Lines[1].Message)
	}
}

func TestIngestLogsRejectsEmptyBatch(t *testing.T) {
	r := newTestRouter(t)
	rec := doJSON(t, r, http.MethodPost, "/v1/logs", dto.IngestLogsRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogsSinceWatermark(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/v1/logs", dto.IngestLogsRequest{Lines: []dto.LogLineInput{
		{Source: "central", Timestamp: "2026-08-06T10:00:00Z", Level: "INFO", Message: "one"},
		{Source: "central", Timestamp: "2026-08-06T10:00:01Z", Level: "INFO", Message: "two"},
	}})
	require.Equal(t, http.StatusCreated, rec.Code)
	var ingested dto.IngestLogsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ingested))

	sinceRec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/logs/since/"+strconv.FormatInt(ingested.FirstID, 10), nil)
	r.ServeHTTP(sinceRec, req)
	require.Equal(t, http.StatusOK, sinceRec.Code)

	var page dto.LogQueryResponse
	require.NoError(t, json.Unmarshal(sinceRec.Body.Bytes(), &page))
	if assert.Len(t, page.Lines, 1) {
		assert.Equal(t, "two", page.Lines[0].Message, "since returns only lines after the watermark, ascending")
	}
}
