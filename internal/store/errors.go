package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/camcoord/coordinator/internal/apierr"
)

// Sentinel errors the Store surfaces, per spec.md §4.1. Callers use
// errors.Is; the API layer maps these to apierr kinds.
var (
	ErrNotFound            = errors.New("store: not found")
	ErrConflict            = errors.New("store: conflict")
	ErrConstraintViolation = errors.New("store: constraint violation")
	ErrUnavailable         = errors.New("store: unavailable")

	// ErrStaleClaim is returned by a worker's commit call when the claim
	// it holds no longer matches the row (a reclaimer took over).
	ErrStaleClaim = errors.New("store: claim is stale")
)

// classifyPgError maps a raw pgx/pgconn error into one of the sentinel
// errors above, following Postgres error codes; connection failures and
// timeouts (including a pool acquire that outlives its context) become
// ErrUnavailable.
func classifyPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return ErrConflict
		case "23514", "23502", "23503": // check/not-null/fk violation
			return ErrConstraintViolation
		}
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// ClassifyError maps an error returned by any Store method to the
// apierr.Kind the API layer should shape it as, by walking its chain
// for one of the sentinels above with errors.Is. Every Store method
// wraps a sentinel with fmt.Errorf's %w rather than returning an
// *apierr.Error directly, so this is the one place that bridges the
// two; ok is false if err carries none of them.
func ClassifyError(err error) (kind apierr.Kind, ok bool) {
	switch {
	case errors.Is(err, ErrNotFound):
		return apierr.KindNotFound, true
	case errors.Is(err, ErrConflict), errors.Is(err, ErrStaleClaim):
		return apierr.KindConflict, true
	case errors.Is(err, ErrConstraintViolation):
		return apierr.KindConstraintViolation, true
	case errors.Is(err, ErrUnavailable):
		return apierr.KindUnavailable, true
	}
	return "", false
}
