package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camcoord/coordinator/internal/models"
	"github.com/camcoord/coordinator/internal/store"
)

func seedReadyEvent(t *testing.T, f *Fake) int64 {
	t.Helper()
	ctx := context.Background()
	_, err := f.RegisterCamera(ctx, "cam01", "Cam One", "", "")
	require.NoError(t, err)

	e, err := f.CreateEvent(ctx, "cam01", time.Now(), 0.9, nil)
	require.NoError(t, err)

	h264 := "cam01/videos/clip.h264"
	require.NoError(t, f.UpdateFileStatus(ctx, e.ID, models.ArtifactVideoH264, h264, nil))
	return e.ID
}

func TestClaimForConversionIsExclusive(t *testing.T) {
	f := New()
	seedReadyEvent(t, f)
	ctx := context.Background()

	batchA, err := f.ClaimForConversion(ctx, 10, "worker-a", time.Minute)
	require.NoError(t, err)
	require.Len(t, batchA, 1)

	batchB, err := f.ClaimForConversion(ctx, 10, "worker-b", time.Minute)
	require.NoError(t, err)
	assert.Empty(t, batchB, "a claimed row must be invisible to a second claimant within the reclaim horizon")
}

func TestReleasedClaimIsReclaimable(t *testing.T) {
	f := New()
	id := seedReadyEvent(t, f)
	ctx := context.Background()

	batchA, err := f.ClaimForConversion(ctx, 10, "worker-a", time.Minute)
	require.NoError(t, err)
	require.Len(t, batchA, 1)

	require.NoError(t, f.ReleaseConversionClaim(ctx, id, "worker-a"))

	batchB, err := f.ClaimForConversion(ctx, 10, "worker-b", time.Minute)
	require.NoError(t, err)
	assert.Len(t, batchB, 1, "a released claim must become claimable again")
}

func TestCommitConversionRejectsWrongClaimant(t *testing.T) {
	f := New()
	id := seedReadyEvent(t, f)
	ctx := context.Background()

	_, err := f.ClaimForConversion(ctx, 10, "worker-a", time.Minute)
	require.NoError(t, err)

	err = f.CommitConversion(ctx, id, "worker-b", "cam01/videos/clip.mp4", 12.0)
	assert.Error(t, err, "a claimant may not commit a claim it does not hold")
}

func TestUpdateEventStatusIsMonotonic(t *testing.T) {
	f := New()
	ctx := context.Background()
	_, err := f.RegisterCamera(ctx, "cam01", "", "", "")
	require.NoError(t, err)
	e, err := f.CreateEvent(ctx, "cam01", time.Now(), 0.1, nil)
	require.NoError(t, err)

	require.NoError(t, f.UpdateEventStatus(ctx, e.ID, models.EventStatusComplete))

	err = f.UpdateEventStatus(ctx, e.ID, models.EventStatusFailed)
	assert.Error(t, err, "a terminal status must never be overwritten")
}

func TestBatchInsertLogsAssignsMonotonicIDs(t *testing.T) {
	f := New()
	ctx := context.Background()

	first, last, err := f.BatchInsertLogs(ctx, []models.LogLine{
		{Source: "central", Timestamp: time.Now(), Level: models.LogLevelInfo, Message: "one"},
		{Source: "central", Timestamp: time.Now(), Level: models.LogLevelInfo, Message: "two"},
	})
	require.NoError(t, err)
	assert.Equal(t, first+1, last)

	more, _, err := f.BatchInsertLogs(ctx, []models.LogLine{
		{Source: "central", Timestamp: time.Now(), Level: models.LogLevelInfo, Message: "three"},
	})
	require.NoError(t, err)
	assert.Greater(t, more, last, "IDs must increase monotonically across batches")
}

func TestListEventsPaginationBoundary(t *testing.T) {
	f := New()
	ctx := context.Background()
	_, err := f.RegisterCamera(ctx, "cam01", "", "", "")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := f.CreateEvent(ctx, "cam01", time.Now(), 0.1, nil)
		require.NoError(t, err)
	}

	page, total, err := f.ListEvents(ctx, store.EventFilter{}, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 1, "offset 4 with 5 total rows must return exactly the last row")

	page, total, err = f.ListEvents(ctx, store.EventFilter{}, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, page, "an offset at the end of the result set returns nothing, not an error")
}
