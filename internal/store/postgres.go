package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/camcoord/coordinator/internal/config"
	"github.com/camcoord/coordinator/internal/models"
)

// PostgresStore is the production Store, backed by a pooled pgx
// connection. Grounded on the teacher's storage.PostgresStore: one
// method per operation, pgx.ErrNoRows mapped to a sentinel, no ORM.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig, pool config.PoolConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MinConns = int32(pool.MinConnections)
	poolCfg.MaxConns = int32(pool.MinConnections + pool.MaxOverflow)
	poolCfg.HealthCheckPeriod = 30 * time.Second

	acquireCtx, cancel := context.WithTimeout(ctx, pool.AcquireTimeout())
	defer cancel()

	pgxPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pgxPool.Ping(acquireCtx); err != nil {
		pgxPool.Close()
		return nil, fmt.Errorf("ping postgres: %w", classifyPgError(err))
	}

	return &PostgresStore{pool: pgxPool}, nil
}

func (s *PostgresStore) Close() { s.pool.Close() }

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// --- Cameras ---

func (s *PostgresStore) RegisterCamera(ctx context.Context, stableName, displayName, location, lastAddress string) (*models.Camera, error) {
	c := &models.Camera{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO cameras (stable_name, display_name, location, last_address, status)
		VALUES ($1, $2, $3, $4, 'offline')
		ON CONFLICT (stable_name) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			location = EXCLUDED.location,
			last_address = EXCLUDED.last_address,
			updated_at = now()
		RETURNING id, stable_name, display_name, location, last_address, status, created_at, updated_at, last_heartbeat_at
	`, stableName, displayName, location, lastAddress).Scan(
		&c.ID, &c.StableName, &c.DisplayName, &c.Location, &c.LastAddress,
		&c.Status, &c.CreatedAt, &c.UpdatedAt, &c.LastHeartbeatAt,
	)
	if err != nil {
		return nil, fmt.Errorf("register camera: %w", classifyPgError(err))
	}
	return c, nil
}

func (s *PostgresStore) ListCameras(ctx context.Context) ([]models.Camera, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, stable_name, display_name, location, last_address, status, created_at, updated_at, last_heartbeat_at
		FROM cameras ORDER BY stable_name`)
	if err != nil {
		return nil, fmt.Errorf("list cameras: %w", classifyPgError(err))
	}
	defer rows.Close()

	var out []models.Camera
	for rows.Next() {
		var c models.Camera
		if err := rows.Scan(&c.ID, &c.StableName, &c.DisplayName, &c.Location, &c.LastAddress,
			&c.Status, &c.CreatedAt, &c.UpdatedAt, &c.LastHeartbeatAt); err != nil {
			return nil, fmt.Errorf("scan camera: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetCamera(ctx context.Context, stableName string) (*models.Camera, error) {
	var c models.Camera
	err := s.pool.QueryRow(ctx, `
		SELECT id, stable_name, display_name, location, last_address, status, created_at, updated_at, last_heartbeat_at
		FROM cameras WHERE stable_name = $1`, stableName).Scan(
		&c.ID, &c.StableName, &c.DisplayName, &c.Location, &c.LastAddress,
		&c.Status, &c.CreatedAt, &c.UpdatedAt, &c.LastHeartbeatAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get camera: %w", classifyPgError(err))
	}
	return &c, nil
}

// --- Events ---

const eventColumns = `
	id, camera_stable_name, event_timestamp, created_at, motion_score, confidence_score, status,
	image_a_path, image_a_transferred, image_b_path, image_b_transferred,
	thumbnail_path, thumbnail_transferred, video_h264_path, video_h264_transferred,
	video_mp4_path, video_duration_seconds,
	mp4_conversion_status, mp4_converted_at, mp4_claim_holder, mp4_claimed_at,
	ai_processed, ai_processed_at, ai_person_detected, ai_confidence, ai_objects,
	ai_description, ai_phrase, ai_error, ai_claim_holder, ai_claimed_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(
		&e.ID, &e.Camera, &e.Timestamp, &e.CreatedAt, &e.MotionScore, &e.Confidence, &e.Status,
		&e.ImageAPath, &e.ImageATransferred, &e.ImageBPath, &e.ImageBTransferred,
		&e.ThumbnailPath, &e.ThumbnailTransferred, &e.VideoH264Path, &e.VideoH264Transferred,
		&e.VideoMP4Path, &e.VideoDurationSeconds,
		&e.MP4ConversionStatus, &e.MP4ConvertedAt, &e.MP4ClaimHolder, &e.MP4ClaimedAt,
		&e.AIProcessed, &e.AIProcessedAt, &e.AIPersonDetected, &e.AIConfidence, &e.AIObjects,
		&e.AIDescription, &e.AIPhrase, &e.AIError, &e.AIClaimHolder, &e.AIClaimedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *PostgresStore) CreateEvent(ctx context.Context, camera string, ts time.Time, motionScore float64, confidence *float64) (*models.Event, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO events (camera_stable_name, event_timestamp, motion_score, confidence_score, status, mp4_conversion_status)
		VALUES ($1, $2, $3, $4, 'processing', 'pending')
		RETURNING %s`, eventColumns), camera, ts, motionScore, confidence)
	e, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", classifyPgError(err))
	}
	return e, nil
}

func (s *PostgresStore) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns), id)
	e, err := scanEvent(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", classifyPgError(err))
	}
	return e, nil
}

func (s *PostgresStore) ListEvents(ctx context.Context, filter EventFilter, limit, offset int) ([]models.Event, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	where := "WHERE 1=1"
	args := []interface{}{}
	idx := 1
	add := func(clause string, val interface{}) {
		where += fmt.Sprintf(" AND %s $%d", clause, idx)
		args = append(args, val)
		idx++
	}
	if filter.Camera != "" {
		add("camera_stable_name =", filter.Camera)
	}
	if filter.From != nil {
		add("event_timestamp >=", *filter.From)
	}
	if filter.To != nil {
		add("event_timestamp <=", *filter.To)
	}
	if filter.Status != "" {
		add("status =", filter.Status)
	}
	if filter.MP4Status != "" {
		add("mp4_conversion_status =", filter.MP4Status)
	}
	if filter.AIProcessed != nil {
		add("ai_processed =", *filter.AIProcessed)
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM events "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", classifyPgError(err))
	}

	query := fmt.Sprintf(`SELECT %s FROM events %s ORDER BY event_timestamp DESC, id DESC LIMIT $%d OFFSET $%d`,
		eventColumns, where, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", classifyPgError(err))
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, *e)
	}
	return out, total, rows.Err()
}

func (s *PostgresStore) EventNeighbors(ctx context.Context, id int64, camera string) (*int64, *int64, error) {
	var prev, next *int64
	prevQ := `SELECT id FROM events WHERE id < $1`
	nextQ := `SELECT id FROM events WHERE id > $1`
	args := []interface{}{id}
	if camera != "" {
		prevQ += ` AND camera_stable_name = $2`
		nextQ += ` AND camera_stable_name = $2`
		args = append(args, camera)
	}
	prevQ += ` ORDER BY id DESC LIMIT 1`
	nextQ += ` ORDER BY id ASC LIMIT 1`

	if err := s.pool.QueryRow(ctx, prevQ, args...).Scan(&prev); err != nil && err != pgx.ErrNoRows {
		return nil, nil, fmt.Errorf("previous neighbor: %w", classifyPgError(err))
	}
	if err := s.pool.QueryRow(ctx, nextQ, args...).Scan(&next); err != nil && err != pgx.ErrNoRows {
		return nil, nil, fmt.Errorf("next neighbor: %w", classifyPgError(err))
	}
	return prev, next, nil
}

// UpdateFileStatus records an uploaded artifact's path with a single
// conditional UPDATE guarded by "<path column> IS NULL", the same
// claim-via-row-update discipline claim.go uses: no separate read
// before the write, so two concurrent uploads for the same artifact
// can't both observe "not set yet" and race to set different paths.
// A zero-rows-affected result is ambiguous between "event doesn't
// exist" and "path already set", so it falls back to one read solely
// to tell those two apart and decide idempotent-no-op vs. Conflict.
func (s *PostgresStore) UpdateFileStatus(ctx context.Context, id int64, kind models.ArtifactKind, path string, duration *float64) error {
	pathCol, flagCol, err := artifactColumns(kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE events SET %s = $1, %s = true`, pathCol, flagCol)
	args := []interface{}{path}
	idx := 2
	if kind == models.ArtifactVideoH264 {
		// mp4_conversion_status is already 'pending' from CreateEvent and
		// cannot have advanced before this flag is set (the Conversion
		// Worker's predicate requires it); nothing more to do here beyond
		// recording the camera-supplied duration.
		query += fmt.Sprintf(`, video_duration_seconds = $%d`, idx)
		args = append(args, duration)
		idx++
	}
	query += fmt.Sprintf(` WHERE id = $%d AND %s IS NULL`, idx, pathCol)
	args = append(args, id)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update file status: %w", classifyPgError(err))
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	existing, err := s.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if existing.PathFor(kind) != nil && *existing.PathFor(kind) == path {
		return nil // idempotent no-op, same path resent
	}
	return fmt.Errorf("%w: %s path already set to a different value", ErrConflict, kind)
}

func artifactColumns(kind models.ArtifactKind) (pathCol, flagCol string, err error) {
	switch kind {
	case models.ArtifactImageA:
		return "image_a_path", "image_a_transferred", nil
	case models.ArtifactImageB:
		return "image_b_path", "image_b_transferred", nil
	case models.ArtifactThumbnail:
		return "thumbnail_path", "thumbnail_transferred", nil
	case models.ArtifactVideoH264:
		return "video_h264_path", "video_h264_transferred", nil
	default:
		return "", "", fmt.Errorf("%w: unknown artifact kind %q", ErrConstraintViolation, kind)
	}
}

func (s *PostgresStore) UpdateEventStatus(ctx context.Context, id int64, target models.EventStatus) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE events SET status = $1
		WHERE id = $2 AND status = 'processing'`, target, id)
	if err != nil {
		return fmt.Errorf("update event status: %w", classifyPgError(err))
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Distinguish "doesn't exist" from "already terminal".
	if _, err := s.GetEvent(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: event already in a terminal status", ErrConflict)
}

// --- Stats ---

func (s *PostgresStore) CameraStats(ctx context.Context) ([]CameraCount, error) {
	rows, err := s.pool.Query(ctx, `SELECT camera_stable_name, COUNT(*) FROM events GROUP BY camera_stable_name ORDER BY camera_stable_name`)
	if err != nil {
		return nil, fmt.Errorf("camera stats: %w", classifyPgError(err))
	}
	defer rows.Close()
	var out []CameraCount
	for rows.Next() {
		var c CameraCount
		if err := rows.Scan(&c.Camera, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) StatusStats(ctx context.Context) ([]StatusCount, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM events GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("status stats: %w", classifyPgError(err))
	}
	defer rows.Close()
	var out []StatusCount
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DailyStats(ctx context.Context, days int) ([]DailyCount, error) {
	if days <= 0 {
		days = 30
	}
	rows, err := s.pool.Query(ctx, `
		SELECT to_char(date_trunc('day', event_timestamp), 'YYYY-MM-DD') AS day, COUNT(*)
		FROM events
		WHERE event_timestamp >= now() - ($1 || ' days')::interval
		GROUP BY day ORDER BY day`, days)
	if err != nil {
		return nil, fmt.Errorf("daily stats: %w", classifyPgError(err))
	}
	defer rows.Close()
	var out []DailyCount
	for rows.Next() {
		var c DailyCount
		if err := rows.Scan(&c.Day, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
