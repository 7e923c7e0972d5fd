package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// execer is the subset of *sql.DB and *sql.Tx used by the retention helpers.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// EnforceHistoryLimit deletes the oldest unpinned entries until at most
// maxItems unpinned entries remain. Pinned entries are neither counted nor
// removed. Returns the number of removed entries.
func (s *Store) EnforceHistoryLimit(ctx context.Context, maxItems int) (int64, error) {
	if maxItems < 0 {
		return 0, fmt.Errorf("enforce history limit: negative limit %d", maxItems)
	}

	var removed int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		removed, err = enforceLimit(ctx, tx, maxItems)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("enforce history limit: %w", err)
	}
	return removed, nil
}

// SweepExpired deletes unpinned entries whose expiry has passed.
// Returns the number of removed entries.
func (s *Store) SweepExpired(ctx context.Context) (int64, error) {
	removed, err := sweepExpired(ctx, s.db, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("sweep expired: %w", err)
	}
	return removed, nil
}

func enforceLimit(ctx context.Context, q execer, maxItems int) (int64, error) {
	var unpinned int64
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clipboard_history WHERE is_pinned = 0`,
	).Scan(&unpinned); err != nil {
		return 0, fmt.Errorf("count unpinned: %w", err)
	}

	excess := unpinned - int64(maxItems)
	if excess <= 0 {
		return 0, nil
	}

	result, err := q.ExecContext(ctx, `
		DELETE FROM clipboard_history
		WHERE id IN (
			SELECT id FROM clipboard_history
			WHERE is_pinned = 0
			ORDER BY timestamp ASC, id ASC
			LIMIT ?
		)
	`, excess)
	if err != nil {
		return 0, fmt.Errorf("evict oldest: %w", err)
	}
	return result.RowsAffected()
}

func sweepExpired(ctx context.Context, q execer, now time.Time) (int64, error) {
	result, err := q.ExecContext(ctx, `
		DELETE FROM clipboard_history
		WHERE is_pinned = 0
		AND expiration_time IS NOT NULL
		AND expiration_time <= ?
	`, formatTime(now))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
