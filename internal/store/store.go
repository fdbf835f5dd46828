// Package store is the single source of truth for cameras, events, and
// log lines. It owns connection pooling and the claim primitive every
// worker uses to obtain at-most-one-claimant ownership of a row.
//
// Store is defined as an interface, grounded on the pattern used
// throughout the reference corpus of depending on a narrow interface
// rather than a concrete client: handlers and workers take a Store,
// production wires a *PostgresStore, tests wire an in-memory fake.
package store

import (
	"context"
	"time"

	"github.com/camcoord/coordinator/internal/models"
)

// EventFilter narrows List calls. Zero-value fields mean "no filter".
type EventFilter struct {
	Camera        string
	From, To      *time.Time
	Status        models.EventStatus
	MP4Status     models.MP4ConversionStatus
	AIProcessed   *bool
}

// LogFilter narrows log queries. Levels is a subset of the three
// severities; an empty slice means "all levels". Source == "" or
// "all" means "any source".
type LogFilter struct {
	Source   string
	Levels   []models.LogLevel
	From, To *time.Time
}

// SortOrder controls log query ordering.
type SortOrder string

const (
	SortNewestFirst SortOrder = "desc"
	SortOldestFirst SortOrder = "asc"
)

// CameraCount is one row of the per-camera stats aggregate.
type CameraCount struct {
	Camera string
	Count  int
}

// StatusCount is one row of the per-status stats aggregate.
type StatusCount struct {
	Status string
	Count  int
}

// DailyCount is one row of the per-day stats aggregate.
type DailyCount struct {
	Day   string
	Count int
}

type Store interface {
	Ping(ctx context.Context) error
	Close()

	RegisterCamera(ctx context.Context, stableName, displayName, location, lastAddress string) (*models.Camera, error)
	ListCameras(ctx context.Context) ([]models.Camera, error)
	GetCamera(ctx context.Context, stableName string) (*models.Camera, error)

	CreateEvent(ctx context.Context, camera string, ts time.Time, motionScore float64, confidence *float64) (*models.Event, error)
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	ListEvents(ctx context.Context, filter EventFilter, limit, offset int) ([]models.Event, int, error)
	EventNeighbors(ctx context.Context, id int64, camera string) (previousID, nextID *int64, err error)
	UpdateFileStatus(ctx context.Context, id int64, kind models.ArtifactKind, path string, duration *float64) error
	UpdateEventStatus(ctx context.Context, id int64, target models.EventStatus) error

	ClaimForConversion(ctx context.Context, limit int, claimant string, reclaimHorizon time.Duration) ([]models.Event, error)
	CommitConversion(ctx context.Context, id int64, claimant, mp4Path string, duration float64) error
	FailConversion(ctx context.Context, id int64, claimant, reason string) error
	ReleaseConversionClaim(ctx context.Context, id int64, claimant string) error

	ClaimForOptimization(ctx context.Context, limit int, claimant string, reclaimHorizon time.Duration) ([]models.Event, error)
	CommitOptimization(ctx context.Context, id int64, claimant, optimizedPath string) error
	FailOptimization(ctx context.Context, id int64, claimant, reason string) error
	ReleaseOptimizationClaim(ctx context.Context, id int64, claimant string) error

	ClaimForAI(ctx context.Context, limit int, claimant string, reclaimHorizon time.Duration) ([]models.Event, error)
	CommitAI(ctx context.Context, id int64, claimant string, result AIResult) error
	ReleaseAIClaim(ctx context.Context, id int64, claimant string) error

	BatchInsertLogs(ctx context.Context, lines []models.LogLine) (firstID, lastID int64, err error)
	QueryLogs(ctx context.Context, filter LogFilter, order SortOrder, limit, offset int) ([]models.LogLine, int, error)
	QueryLogsSinceID(ctx context.Context, sinceID int64, filter LogFilter, limit int) ([]models.LogLine, error)

	CameraStats(ctx context.Context) ([]CameraCount, error)
	StatusStats(ctx context.Context) ([]StatusCount, error)
	DailyStats(ctx context.Context, days int) ([]DailyCount, error)
}

// AIResult is the all-or-none payload the AI Worker commits exactly
// once per event, per spec.md §4.5.3.
type AIResult struct {
	PersonDetected *bool
	Confidence     *float64
	Objects        *string
	Description    *string
	Phrase         *string
	Error          *string
}
