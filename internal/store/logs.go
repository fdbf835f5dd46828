package store

import (
	"context"
	"fmt"

	"github.com/camcoord/coordinator/internal/models"
)

// BatchInsertLogs inserts all lines in one statement so the batch is
// accepted or rejected atomically, per spec.md §4.3.3 and §7. IDs are
// contiguous and ascending within the batch because they come from one
// sequence advanced by one statement.
func (s *PostgresStore) BatchInsertLogs(ctx context.Context, lines []models.LogLine) (int64, int64, error) {
	if len(lines) == 0 {
		return 0, 0, fmt.Errorf("%w: empty batch", ErrConstraintViolation)
	}

	query := `INSERT INTO log_lines (source, line_timestamp, level, message) VALUES `
	args := make([]interface{}, 0, len(lines)*4)
	for i, l := range lines {
		if i > 0 {
			query += ", "
		}
		base := i * 4
		query += fmt.Sprintf("($%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4)
		args = append(args, l.Source, l.Timestamp, l.Level, l.Message)
	}
	query += " RETURNING id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return 0, 0, fmt.Errorf("batch insert logs: %w", classifyPgError(err))
	}
	defer rows.Close()

	var first, last int64
	count := 0
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, 0, fmt.Errorf("scan inserted log id: %w", err)
		}
		if count == 0 {
			first = id
		}
		last = id
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, 0, err
	}
	return first, last, nil
}

func buildLogWhere(filter LogFilter, startIdx int) (string, []interface{}, int) {
	where := "WHERE 1=1"
	args := []interface{}{}
	idx := startIdx

	if filter.Source != "" && filter.Source != "all" {
		where += fmt.Sprintf(" AND source = $%d", idx)
		args = append(args, filter.Source)
		idx++
	}
	if len(filter.Levels) > 0 {
		where += fmt.Sprintf(" AND level = ANY($%d)", idx)
		args = append(args, filter.Levels)
		idx++
	}
	if filter.From != nil {
		where += fmt.Sprintf(" AND line_timestamp >= $%d", idx)
		args = append(args, *filter.From)
		idx++
	}
	if filter.To != nil {
		where += fmt.Sprintf(" AND line_timestamp <= $%d", idx)
		args = append(args, *filter.To)
		idx++
	}
	return where, args, idx
}

func (s *PostgresStore) QueryLogs(ctx context.Context, filter LogFilter, order SortOrder, limit, offset int) ([]models.LogLine, int, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	if order != SortOldestFirst {
		order = SortNewestFirst
	}

	where, args, idx := buildLogWhere(filter, 1)

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM log_lines "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count logs: %w", classifyPgError(err))
	}

	dir := "DESC"
	if order == SortOldestFirst {
		dir = "ASC"
	}
	query := fmt.Sprintf(`SELECT id, source, line_timestamp, level, message FROM log_lines %s
		ORDER BY line_timestamp %s, id %s LIMIT $%d OFFSET $%d`, where, dir, dir, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query logs: %w", classifyPgError(err))
	}
	defer rows.Close()

	var out []models.LogLine
	for rows.Next() {
		var l models.LogLine
		if err := rows.Scan(&l.ID, &l.Source, &l.Timestamp, &l.Level, &l.Message); err != nil {
			return nil, 0, fmt.Errorf("scan log line: %w", err)
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

// QueryLogsSinceID returns up to limit lines with ID strictly greater
// than sinceID, ascending, so a caller can advance a watermark.
func (s *PostgresStore) QueryLogsSinceID(ctx context.Context, sinceID int64, filter LogFilter, limit int) ([]models.LogLine, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	where, args, idx := buildLogWhere(filter, 2)
	query := fmt.Sprintf(`SELECT id, source, line_timestamp, level, message FROM log_lines %s AND id > $1
		ORDER BY id ASC LIMIT $%d`, where, idx)
	args = append([]interface{}{sinceID}, args...)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query logs since id: %w", classifyPgError(err))
	}
	defer rows.Close()

	var out []models.LogLine
	for rows.Next() {
		var l models.LogLine
		if err := rows.Scan(&l.ID, &l.Source, &l.Timestamp, &l.Level, &l.Message); err != nil {
			return nil, fmt.Errorf("scan log line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
