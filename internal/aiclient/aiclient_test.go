package aiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisionAndText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/vision":
			_ = json.NewEncoder(w).Encode(VisionResult{PersonDetected: true, Confidence: 0.92, Objects: []string{"person", "dog"}})
		case "/v1/text":
			_ = json.NewEncoder(w).Encode(TextResult{Phrase: "person at the door", Description: "a person and a dog at the front door"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, 2*time.Second)
	vision, err := c.Vision(context.Background(), []byte("a"), []byte("b"))
	require.NoError(t, err)
	assert.True(t, vision.PersonDetected)
	assert.Equal(t, []string{"person", "dog"}, vision.Objects)

	text, err := c.Text(context.Background(), *vision)
	require.NoError(t, err)
	assert.Equal(t, "person at the door", text.Phrase)
}

func TestTextTruncatesLongPhrase(t *testing.T) {
	long := make([]byte, 600)
	for i := range long {
		long[i] = 'x'
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(TextResult{Phrase: string(long), Description: "d"})
	}))
	defer srv.Close()

	c := New(srv.URL, 2*time.Second)
	text, err := c.Text(context.Background(), VisionResult{})
	require.NoError(t, err)
	assert.Len(t, text.Phrase, 500)
}

func TestVisionPropagatesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, 2*time.Second)
	_, err := c.Vision(context.Background(), []byte("a"), []byte("b"))
	assert.Error(t, err)
	assert.False(t, IsCircuitOpen(err), "a single failed call must not yet be reported as an open circuit")
}

func TestCircuitOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, 2*time.Second)
	var lastErr error
	for i := 0; i < 10; i++ {
		_, lastErr = c.Vision(context.Background(), []byte("a"), []byte("b"))
	}
	require.Error(t, lastErr)
	assert.True(t, IsCircuitOpen(lastErr), "enough consecutive failures must trip the breaker open")
}
