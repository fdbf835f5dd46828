package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/camcoord/coordinator/internal/models"
)

// The claim primitive is a single UPDATE ... WHERE id IN (SELECT ...
// FOR UPDATE SKIP LOCKED) RETURNING statement: one atomic, serializable
// step that selects unclaimed-or-stale rows, flips their sub-state, and
// stamps the claimant, all in one round trip. This is the pattern
// spec.md §9 insists on — never SELECT FOR UPDATE followed by a
// separate write, which races across process boundaries.

func (s *PostgresStore) ClaimForConversion(ctx context.Context, limit int, claimant string, reclaimHorizon time.Duration) ([]models.Event, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		UPDATE events SET
			mp4_conversion_status = 'processing',
			mp4_claim_holder = $1,
			mp4_claimed_at = now()
		WHERE id IN (
			SELECT id FROM events
			WHERE (
				(mp4_conversion_status = 'pending' AND video_h264_transferred AND video_h264_path IS NOT NULL)
				OR (mp4_conversion_status = 'processing' AND video_mp4_path IS NULL AND mp4_claimed_at < now() - $2::interval)
			)
			ORDER BY id
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING %s`, eventColumns), claimant, reclaimHorizon, limit)
	return scanEventRows(rows, err, "claim for conversion")
}

func (s *PostgresStore) CommitConversion(ctx context.Context, id int64, claimant, mp4Path string, duration float64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE events SET
			video_mp4_path = $1,
			video_duration_seconds = $2,
			mp4_conversion_status = 'complete',
			mp4_converted_at = now()
		WHERE id = $3 AND mp4_conversion_status = 'processing' AND mp4_claim_holder = $4`,
		mp4Path, duration, id, claimant)
	return commitResult(tag, err, "commit conversion")
}

func (s *PostgresStore) FailConversion(ctx context.Context, id int64, claimant, reason string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE events SET mp4_conversion_status = 'failed'
		WHERE id = $1 AND mp4_conversion_status = 'processing' AND mp4_claim_holder = $2`,
		id, claimant)
	return commitResult(tag, err, "fail conversion: "+reason)
}

func (s *PostgresStore) ReleaseConversionClaim(ctx context.Context, id int64, claimant string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE events SET mp4_conversion_status = 'pending', mp4_claim_holder = NULL, mp4_claimed_at = NULL
		WHERE id = $1 AND mp4_conversion_status = 'processing' AND mp4_claim_holder = $2`,
		id, claimant)
	if err != nil {
		return fmt.Errorf("release conversion claim: %w", classifyPgError(err))
	}
	return nil
}

func (s *PostgresStore) ClaimForOptimization(ctx context.Context, limit int, claimant string, reclaimHorizon time.Duration) ([]models.Event, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		UPDATE events SET
			mp4_conversion_status = 'processing',
			mp4_claim_holder = $1,
			mp4_claimed_at = now()
		WHERE id IN (
			SELECT id FROM events
			WHERE (
				mp4_conversion_status = 'complete'
				OR (mp4_conversion_status = 'processing' AND video_mp4_path IS NOT NULL AND mp4_claimed_at < now() - $2::interval)
			)
			ORDER BY id
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING %s`, eventColumns), claimant, reclaimHorizon, limit)
	return scanEventRows(rows, err, "claim for optimization")
}

func (s *PostgresStore) CommitOptimization(ctx context.Context, id int64, claimant, optimizedPath string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE events SET
			video_mp4_path = $1,
			mp4_conversion_status = 'optimized'
		WHERE id = $2 AND mp4_conversion_status = 'processing' AND mp4_claim_holder = $3`,
		optimizedPath, id, claimant)
	return commitResult(tag, err, "commit optimization")
}

func (s *PostgresStore) FailOptimization(ctx context.Context, id int64, claimant, reason string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE events SET mp4_conversion_status = 'failed'
		WHERE id = $1 AND mp4_conversion_status = 'processing' AND mp4_claim_holder = $2`,
		id, claimant)
	return commitResult(tag, err, "fail optimization: "+reason)
}

func (s *PostgresStore) ReleaseOptimizationClaim(ctx context.Context, id int64, claimant string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE events SET mp4_conversion_status = 'complete', mp4_claim_holder = NULL, mp4_claimed_at = NULL
		WHERE id = $1 AND mp4_conversion_status = 'processing' AND mp4_claim_holder = $2`,
		id, claimant)
	if err != nil {
		return fmt.Errorf("release optimization claim: %w", classifyPgError(err))
	}
	return nil
}

// AI claiming has no dedicated sub-state column (spec.md §9's "AI
// latch design" note: one latch, not multiple in-progress states), so
// the claim holder/claimed-at pair alone marks ownership; the
// predicate excludes rows already latched to ai_processed = true.
func (s *PostgresStore) ClaimForAI(ctx context.Context, limit int, claimant string, reclaimHorizon time.Duration) ([]models.Event, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		UPDATE events SET
			ai_claim_holder = $1,
			ai_claimed_at = now()
		WHERE id IN (
			SELECT id FROM events
			WHERE ai_processed = false
				AND image_a_transferred AND image_b_transferred
				AND (ai_claim_holder IS NULL OR ai_claimed_at < now() - $2::interval)
			ORDER BY id
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING %s`, eventColumns), claimant, reclaimHorizon, limit)
	return scanEventRows(rows, err, "claim for ai")
}

func (s *PostgresStore) CommitAI(ctx context.Context, id int64, claimant string, result AIResult) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE events SET
			ai_processed = true,
			ai_processed_at = now(),
			ai_person_detected = $1,
			ai_confidence = $2,
			ai_objects = $3,
			ai_description = $4,
			ai_phrase = $5,
			ai_error = $6
		WHERE id = $7 AND ai_processed = false AND ai_claim_holder = $8`,
		result.PersonDetected, result.Confidence, result.Objects, result.Description, result.Phrase, result.Error,
		id, claimant)
	return commitResult(tag, err, "commit ai result")
}

func (s *PostgresStore) ReleaseAIClaim(ctx context.Context, id int64, claimant string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE events SET ai_claim_holder = NULL, ai_claimed_at = NULL
		WHERE id = $1 AND ai_processed = false AND ai_claim_holder = $2`,
		id, claimant)
	if err != nil {
		return fmt.Errorf("release ai claim: %w", classifyPgError(err))
	}
	return nil
}

func scanEventRows(rows pgx.Rows, err error, op string) ([]models.Event, error) {
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classifyPgError(err))
	}
	defer rows.Close()
	var out []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// commitResult turns a zero-rows-affected commit into ErrStaleClaim:
// the row moved out from under the caller (reclaimed by another
// worker, or the event vanished via cascading delete).
func commitResult(tag pgconn.CommandTag, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, classifyPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, ErrStaleClaim)
	}
	return nil
}
