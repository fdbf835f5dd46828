package aiworker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camcoord/coordinator/internal/aiclient"
	"github.com/camcoord/coordinator/internal/artifact"
	"github.com/camcoord/coordinator/internal/models"
	"github.com/camcoord/coordinator/internal/storetest"
)

func newClaimedEvent(t *testing.T, s *storetest.Fake, root, claimant string) models.Event {
	t.Helper()
	ctx := context.Background()
	_, err := s.RegisterCamera(ctx, "cam01", "Cam 01", "", "")
	require.NoError(t, err)
	created, err := s.CreateEvent(ctx, "cam01", time.Now(), 0.5, nil)
	require.NoError(t, err)

	for _, kind := range []models.ArtifactKind{models.ArtifactImageA, models.ArtifactImageB} {
		rel := "cam01/pictures/" + string(kind) + ".jpg"
		abs := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte("jpeg-bytes"), 0o644))
		require.NoError(t, s.UpdateFileStatus(ctx, created.ID, kind, rel, nil))
	}

	claimed, err := s.ClaimForAI(ctx, 10, claimant, time.Hour)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	return claimed[0]
}

// TestProcessLatchesErrorAfterRetryBudgetExhausted verifies that a model
// host returning ordinary (non-circuit) errors on every attempt still
// commits a latch, with ai_error set, once the retry budget runs out —
// spec.md §4.5.3's "exceeded retry budget" case, not an infinite retry.
func TestProcessLatchesErrorAfterRetryBudgetExhausted(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	root := t.TempDir()
	s := storetest.New()
	stage := &Stage{
		Store:       s,
		Artifacts:   artifact.New(root),
		AI:          aiclient.New(srv.URL, 2*time.Second),
		Claimant:    "workerA",
		RetryBudget: 3,
	}

	event := newClaimedEvent(t, s, root, "workerA")

	err := stage.Process(context.Background(), event)
	assert.NoError(t, err, "retry-budget exhaustion is a committed latch, not a job failure")
	assert.Equal(t, 3, calls, "must attempt exactly RetryBudget times before giving up")

	got, err := s.GetEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.True(t, got.AIProcessed, "latch must be set even on failure, so the event never reprocesses")
	require.NotNil(t, got.AIError)
	assert.NotEmpty(t, *got.AIError)
}

// TestProcessReleasesClaimWhenCircuitIsOpen verifies a transient,
// circuit-open condition is released rather than latched as a
// permanent failure: the event must remain eligible for a future
// attempt once the model host recovers.
func TestProcessReleasesClaimWhenCircuitIsOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	root := t.TempDir()
	s := storetest.New()
	client := aiclient.New(srv.URL, 2*time.Second)

	// Trip the circuit breaker open before the worker ever sees this event,
	// by exhausting it on vision calls directly via the same client.
	for i := 0; i < 10; i++ {
		_, _ = client.Vision(context.Background(), []byte("a"), []byte("b"))
	}

	stage := &Stage{
		Store:       s,
		Artifacts:   artifact.New(root),
		AI:          client,
		Claimant:    "workerA",
		RetryBudget: 3,
	}

	event := newClaimedEvent(t, s, root, "workerA")

	err := stage.Process(context.Background(), event)
	assert.NoError(t, err, "an open circuit is released, not surfaced as a job failure")

	got, err := s.GetEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.False(t, got.AIProcessed, "a released claim must not be latched")
	assert.Nil(t, got.AIClaimHolder)
}
