// Package storetest provides an in-memory store.Store used by handler
// and worker tests in place of a real Postgres connection, grounded on
// the interface-based Store pattern the rest of this repository
// follows: production wires *store.PostgresStore, tests wire this.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/camcoord/coordinator/internal/eventstate"
	"github.com/camcoord/coordinator/internal/models"
	"github.com/camcoord/coordinator/internal/store"
)

// Fake is a single-process, mutex-guarded implementation of
// store.Store. Claims are exclusive in the same sense the real
// claim-via-conditional-UPDATE primitive is: once a row is claimed by
// one claimant it is invisible to every other Claim* call until it is
// committed, failed, or released, or until its claim is older than the
// reclaim horizon passed to the Claim* call.
type Fake struct {
	mu      sync.Mutex
	cameras map[string]*models.Camera
	events  map[int64]*models.Event
	logs    []models.LogLine
	nextCam int64
	nextEvt int64
	nextLog int64
}

func New() *Fake {
	return &Fake{
		cameras: make(map[string]*models.Camera),
		events:  make(map[int64]*models.Event),
	}
}

func (f *Fake) Ping(ctx context.Context) error { return nil }
func (f *Fake) Close()                         {}

// RegisterCamera upserts by stable name, matching the real Store's
// INSERT ... ON CONFLICT (stable_name) DO UPDATE: a repeat call
// last-write-wins on everything but the stable name and returns the
// same record, per spec.md §4.3.1.
func (f *Fake) RegisterCamera(ctx context.Context, stableName, displayName, location, lastAddress string) (*models.Camera, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	if existing, ok := f.cameras[stableName]; ok {
		existing.DisplayName = displayName
		existing.Location = location
		existing.LastAddress = lastAddress
		existing.UpdatedAt = now
		return existing, nil
	}

	f.nextCam++
	cam := &models.Camera{
		ID:          f.nextCam,
		StableName:  stableName,
		DisplayName: displayName,
		Location:    location,
		LastAddress: lastAddress,
		Status:      models.CameraStatusOffline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.cameras[stableName] = cam
	return cam, nil
}

func (f *Fake) ListCameras(ctx context.Context) ([]models.Camera, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]models.Camera, 0, len(f.cameras))
	for _, c := range f.cameras {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StableName < out[j].StableName })
	return out, nil
}

func (f *Fake) GetCamera(ctx context.Context, stableName string) (*models.Camera, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.cameras[stableName]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// CreateEvent mirrors the real Store's behavior on an unknown camera:
// PostgresStore relies on the events.camera_stable_name foreign key
// and surfaces its violation as ErrConstraintViolation via
// classifyPgError, not a pre-check returning ErrNotFound.
func (f *Fake) CreateEvent(ctx context.Context, camera string, ts time.Time, motionScore float64, confidence *float64) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.cameras[camera]; !ok {
		return nil, fmt.Errorf("create event: %w", store.ErrConstraintViolation)
	}
	f.nextEvt++
	e := &models.Event{
		ID:                  f.nextEvt,
		Camera:              camera,
		Timestamp:           ts,
		CreatedAt:           time.Now(),
		MotionScore:         motionScore,
		Confidence:          confidence,
		Status:              models.EventStatusProcessing,
		MP4ConversionStatus: models.MP4StatusPending,
	}
	f.events[e.ID] = e
	cp := *e
	return &cp, nil
}

func (f *Fake) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.events[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *Fake) ListEvents(ctx context.Context, filter store.EventFilter, limit, offset int) ([]models.Event, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	matched := make([]models.Event, 0, len(f.events))
	for _, e := range f.events {
		if filter.Camera != "" && e.Camera != filter.Camera {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.MP4Status != "" && e.MP4ConversionStatus != filter.MP4Status {
			continue
		}
		if filter.AIProcessed != nil && e.AIProcessed != *filter.AIProcessed {
			continue
		}
		if filter.From != nil && e.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.Timestamp.After(*filter.To) {
			continue
		}
		matched = append(matched, *e)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total || limit <= 0 {
		end = total
	}
	return matched[offset:end], total, nil
}

func (f *Fake) EventNeighbors(ctx context.Context, id int64, camera string) (*int64, *int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ids []int64
	for eid, e := range f.events {
		if camera != "" && e.Camera != camera {
			continue
		}
		ids = append(ids, eid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var prev, next *int64
	for i, eid := range ids {
		if eid == id {
			if i > 0 {
				p := ids[i-1]
				prev = &p
			}
			if i < len(ids)-1 {
				n := ids[i+1]
				next = &n
			}
			break
		}
	}
	return prev, next, nil
}

// UpdateFileStatus mirrors PostgresStore's idempotent-resend/conflict
// rule: a second write of the same path is a silent no-op, a write of
// a different path is ErrConflict, matching spec.md §4.3.2.
func (f *Fake) UpdateFileStatus(ctx context.Context, id int64, kind models.ArtifactKind, path string, duration *float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.events[id]
	if !ok {
		return store.ErrNotFound
	}
	if existing := e.PathFor(kind); existing != nil {
		if *existing == path {
			return nil
		}
		return fmt.Errorf("%w: %s path already set to a different value", store.ErrConflict, kind)
	}
	switch kind {
	case models.ArtifactImageA:
		e.ImageAPath, e.ImageATransferred = &path, true
	case models.ArtifactImageB:
		e.ImageBPath, e.ImageBTransferred = &path, true
	case models.ArtifactThumbnail:
		e.ThumbnailPath, e.ThumbnailTransferred = &path, true
	case models.ArtifactVideoH264:
		e.VideoH264Path, e.VideoH264Transferred = &path, true
		e.VideoDurationSeconds = duration
	}
	return nil
}

func (f *Fake) UpdateEventStatus(ctx context.Context, id int64, target models.EventStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.events[id]
	if !ok {
		return store.ErrNotFound
	}
	if !eventstate.CanTransitionEventStatus(e.Status, target) {
		return fmt.Errorf("%w: event already in a terminal status", store.ErrConflict)
	}
	e.Status = target
	return nil
}

func (f *Fake) claimableEvents(pred func(*models.Event) bool, claimField func(*models.Event) *string, claimedAtField func(*models.Event) *time.Time, limit int, claimant string, reclaimHorizon time.Duration) []*models.Event {
	var out []*models.Event
	now := time.Now()
	for _, e := range f.events {
		if !pred(e) {
			continue
		}
		holder := claimField(e)
		claimedAt := claimedAtField(e)
		if holder != nil {
			if claimedAt != nil && now.Sub(*claimedAt) < reclaimHorizon {
				continue // held by another claimant within the horizon
			}
		}
		out = append(out, e)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func (f *Fake) ClaimForConversion(ctx context.Context, limit int, claimant string, reclaimHorizon time.Duration) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	candidates := f.claimableEvents(
		func(e *models.Event) bool { return eventstate.ReadyForConversion(e) },
		func(e *models.Event) *string { return e.MP4ClaimHolder },
		func(e *models.Event) *time.Time { return e.MP4ClaimedAt },
		limit, claimant, reclaimHorizon,
	)
	out := make([]models.Event, 0, len(candidates))
	now := time.Now()
	for _, e := range candidates {
		h := claimant
		e.MP4ClaimHolder = &h
		e.MP4ClaimedAt = &now
		e.MP4ConversionStatus = models.MP4StatusProcessing
		out = append(out, *e)
	}
	return out, nil
}

func (f *Fake) CommitConversion(ctx context.Context, id int64, claimant, mp4Path string, duration float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.events[id]
	if !ok || e.MP4ClaimHolder == nil || *e.MP4ClaimHolder != claimant {
		return fmt.Errorf("commit conversion: %w", store.ErrStaleClaim)
	}
	e.VideoMP4Path = &mp4Path
	e.VideoDurationSeconds = &duration
	e.MP4ConversionStatus = models.MP4StatusComplete
	now := time.Now()
	e.MP4ConvertedAt = &now
	e.MP4ClaimHolder, e.MP4ClaimedAt = nil, nil
	return nil
}

// FailConversion mirrors PostgresStore's commitResult: a commit
// attempt against a row that moved out from under the claimant (or
// never existed) is a stale claim, not a not-found.
func (f *Fake) FailConversion(ctx context.Context, id int64, claimant, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.events[id]
	if !ok || e.MP4ClaimHolder == nil || *e.MP4ClaimHolder != claimant {
		return fmt.Errorf("fail conversion: %w", store.ErrStaleClaim)
	}
	e.MP4ConversionStatus = models.MP4StatusFailed
	e.MP4ClaimHolder, e.MP4ClaimedAt = nil, nil
	return nil
}

// ReleaseConversionClaim is best-effort like PostgresStore's: it
// never errors on a missing or already-moved row, since the caller
// treats a vanished event as a non-error no-op (spec.md §9).
func (f *Fake) ReleaseConversionClaim(ctx context.Context, id int64, claimant string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.events[id]
	if !ok || e.MP4ClaimHolder == nil || *e.MP4ClaimHolder != claimant {
		return nil
	}
	e.MP4ConversionStatus = models.MP4StatusPending
	e.MP4ClaimHolder, e.MP4ClaimedAt = nil, nil
	return nil
}

func (f *Fake) ClaimForOptimization(ctx context.Context, limit int, claimant string, reclaimHorizon time.Duration) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	candidates := f.claimableEvents(
		// Mirrors claim.go: eligible when freshly complete, or already
		// processing with an MP4 path set but claimed past the reclaim
		// horizon (a crashed Optimization Worker's row), with the horizon
		// check itself applied generically below via the claim/claimedAt
		// fields.
		func(e *models.Event) bool {
			return eventstate.CanClaimForOptimization(e.MP4ConversionStatus) ||
				(e.MP4ConversionStatus == models.MP4StatusProcessing && e.VideoMP4Path != nil)
		},
		func(e *models.Event) *string { return e.MP4ClaimHolder },
		func(e *models.Event) *time.Time { return e.MP4ClaimedAt },
		limit, claimant, reclaimHorizon,
	)
	out := make([]models.Event, 0, len(candidates))
	now := time.Now()
	for _, e := range candidates {
		h := claimant
		e.MP4ClaimHolder = &h
		e.MP4ClaimedAt = &now
		e.MP4ConversionStatus = models.MP4StatusProcessing
		out = append(out, *e)
	}
	return out, nil
}

func (f *Fake) CommitOptimization(ctx context.Context, id int64, claimant, optimizedPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.events[id]
	if !ok || e.MP4ClaimHolder == nil || *e.MP4ClaimHolder != claimant {
		return fmt.Errorf("commit optimization: %w", store.ErrStaleClaim)
	}
	e.VideoMP4Path = &optimizedPath
	e.MP4ConversionStatus = models.MP4StatusOptimized
	e.MP4ClaimHolder, e.MP4ClaimedAt = nil, nil
	return nil
}

func (f *Fake) FailOptimization(ctx context.Context, id int64, claimant, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.events[id]
	if !ok || e.MP4ClaimHolder == nil || *e.MP4ClaimHolder != claimant {
		return fmt.Errorf("fail optimization: %w", store.ErrStaleClaim)
	}
	e.MP4ConversionStatus = models.MP4StatusFailed
	e.MP4ClaimHolder, e.MP4ClaimedAt = nil, nil
	return nil
}

func (f *Fake) ReleaseOptimizationClaim(ctx context.Context, id int64, claimant string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.events[id]
	if !ok || e.MP4ClaimHolder == nil || *e.MP4ClaimHolder != claimant {
		return nil
	}
	e.MP4ConversionStatus = models.MP4StatusComplete
	e.MP4ClaimHolder, e.MP4ClaimedAt = nil, nil
	return nil
}

func (f *Fake) ClaimForAI(ctx context.Context, limit int, claimant string, reclaimHorizon time.Duration) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	candidates := f.claimableEvents(
		func(e *models.Event) bool { return eventstate.CanClaimForAI(e) },
		func(e *models.Event) *string { return e.AIClaimHolder },
		func(e *models.Event) *time.Time { return e.AIClaimedAt },
		limit, claimant, reclaimHorizon,
	)
	out := make([]models.Event, 0, len(candidates))
	now := time.Now()
	for _, e := range candidates {
		h := claimant
		e.AIClaimHolder = &h
		e.AIClaimedAt = &now
		out = append(out, *e)
	}
	return out, nil
}

func (f *Fake) CommitAI(ctx context.Context, id int64, claimant string, result store.AIResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.events[id]
	if !ok || e.AIClaimHolder == nil || *e.AIClaimHolder != claimant {
		return fmt.Errorf("commit ai result: %w", store.ErrStaleClaim)
	}
	e.AIProcessed = true
	now := time.Now()
	e.AIProcessedAt = &now
	e.AIPersonDetected = result.PersonDetected
	e.AIConfidence = result.Confidence
	e.AIObjects = result.Objects
	e.AIDescription = result.Description
	e.AIPhrase = result.Phrase
	e.AIError = result.Error
	e.AIClaimHolder, e.AIClaimedAt = nil, nil
	return nil
}

func (f *Fake) ReleaseAIClaim(ctx context.Context, id int64, claimant string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.events[id]
	if !ok || e.AIClaimHolder == nil || *e.AIClaimHolder != claimant {
		return nil
	}
	e.AIClaimHolder, e.AIClaimedAt = nil, nil
	return nil
}

func (f *Fake) BatchInsertLogs(ctx context.Context, lines []models.LogLine) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(lines) == 0 {
		return 0, 0, fmt.Errorf("%w: empty batch", store.ErrConstraintViolation)
	}
	first := f.nextLog + 1
	for i := range lines {
		f.nextLog++
		lines[i].ID = f.nextLog
		f.logs = append(f.logs, lines[i])
	}
	return first, f.nextLog, nil
}

func (f *Fake) QueryLogs(ctx context.Context, filter store.LogFilter, order store.SortOrder, limit, offset int) ([]models.LogLine, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	matched := f.filterLogs(filter)
	if order == store.SortNewestFirst {
		sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	} else {
		sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	}

	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total || limit <= 0 {
		end = total
	}
	return matched[offset:end], total, nil
}

func (f *Fake) QueryLogsSinceID(ctx context.Context, sinceID int64, filter store.LogFilter, limit int) ([]models.LogLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	matched := f.filterLogs(filter)
	out := make([]models.LogLine, 0, len(matched))
	for _, l := range matched {
		if l.ID > sinceID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *Fake) filterLogs(filter store.LogFilter) []models.LogLine {
	var matched []models.LogLine
	for _, l := range f.logs {
		if filter.Source != "" && filter.Source != "all" && l.Source != filter.Source {
			continue
		}
		if len(filter.Levels) > 0 {
			found := false
			for _, lvl := range filter.Levels {
				if l.Level == lvl {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if filter.From != nil && l.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && l.Timestamp.After(*filter.To) {
			continue
		}
		matched = append(matched, l)
	}
	return matched
}

func (f *Fake) CameraStats(ctx context.Context) ([]store.CameraCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := make(map[string]int)
	for _, e := range f.events {
		counts[e.Camera]++
	}
	out := make([]store.CameraCount, 0, len(counts))
	for cam, n := range counts {
		out = append(out, store.CameraCount{Camera: cam, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Camera < out[j].Camera })
	return out, nil
}

func (f *Fake) StatusStats(ctx context.Context) ([]store.StatusCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := make(map[string]int)
	for _, e := range f.events {
		counts[string(e.Status)]++
	}
	out := make([]store.StatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, store.StatusCount{Status: status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (f *Fake) DailyStats(ctx context.Context, days int) ([]store.DailyCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -days)
	counts := make(map[string]int)
	for _, e := range f.events {
		if e.Timestamp.Before(cutoff) {
			continue
		}
		day := e.Timestamp.Format("2006-01-02")
		counts[day]++
	}
	out := make([]store.DailyCount, 0, len(counts))
	for day, n := range counts {
		out = append(out, store.DailyCount{Day: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

var _ store.Store = (*Fake)(nil)
