package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/JudeLabs/ClipCache/internal/clip"
)

// Stats summarizes the stored history.
type Stats struct {
	Total  int64 `json:"total"`
	Pinned int64 `json:"pinned"`
}

// History returns up to limit entries, pinned first, then newest first.
// Entries whose expiry has passed are swept in the same transaction, so an
// expired entry is never returned. limit <= 0 means DefaultHistoryLimit.
//
// Returns an empty slice (not nil) when the history is empty.
func (s *Store) History(ctx context.Context, limit int) ([]clip.Entry, error) {
	return s.Search(ctx, "", limit)
}

// Search is History restricted to text entries containing query.
// Matching is case-insensitive for ASCII letters. An empty query matches
// every entry, images included.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]clip.Entry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	where := `length(content) > 0`
	args := []any{}
	if query != "" {
		where += ` AND content_type = 'text' AND CAST(content AS TEXT) LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(query)+"%")
	}
	args = append(args, limit)

	entries := []clip.Entry{}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := sweepExpired(ctx, tx, s.clock.Now()); err != nil {
			return fmt.Errorf("sweep expired: %w", err)
		}

		rows, err := tx.QueryContext(ctx, `
			SELECT id, content_type, content, timestamp, expiration_time, is_pinned, is_sensitive
			FROM clipboard_history
			WHERE `+where+`
			ORDER BY is_pinned DESC, timestamp DESC, id DESC
			LIMIT ?
		`, args...)
		if err != nil {
			return fmt.Errorf("query history: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			entry, err := scanEntry(rows)
			if errors.Is(err, clip.ErrUnknownType) {
				s.logger.Warn("skipping history entry", "error", err)
				continue
			}
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	return entries, nil
}

// Item returns the content of a single entry. The boolean reports whether
// the entry exists; an absent id is not an error.
func (s *Store) Item(ctx context.Context, id int64) (clip.Content, bool, error) {
	var (
		typeName string
		data     []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT content_type, content FROM clipboard_history WHERE id = ?`, id,
	).Scan(&typeName, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return clip.Content{}, false, nil
	}
	if err != nil {
		return clip.Content{}, false, fmt.Errorf("get item %d: %w", id, err)
	}

	ct, err := clip.ParseContentType(typeName)
	if err != nil {
		return clip.Content{}, false, fmt.Errorf("get item %d: %w", id, err)
	}
	return clip.Content{Type: ct, Data: data}, true, nil
}

// Count returns total and pinned entry counts.
func (s *Store) Count(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_pinned = 1 THEN 1 ELSE 0 END), 0)
		FROM clipboard_history
	`).Scan(&stats.Total, &stats.Pinned)
	if err != nil {
		return Stats{}, fmt.Errorf("count history: %w", err)
	}
	return stats, nil
}

// scanEntry scans a history row.
func scanEntry(rows *sql.Rows) (clip.Entry, error) {
	var (
		entry     clip.Entry
		typeName  string
		captured  dbTime
		expires   dbTime
		pinned    sql.NullBool
		sensitive sql.NullBool
	)
	if err := rows.Scan(
		&entry.ID,
		&typeName,
		&entry.Content,
		&captured,
		&expires,
		&pinned,
		&sensitive,
	); err != nil {
		return clip.Entry{}, fmt.Errorf("scan entry: %w", err)
	}

	ct, err := clip.ParseContentType(typeName)
	if err != nil {
		return clip.Entry{}, fmt.Errorf("entry %d: %w", entry.ID, err)
	}

	entry.Type = ct
	entry.CapturedAt = captured.Time
	entry.ExpiresAt = expires.ptr()
	entry.Pinned = pinned.Bool
	entry.Sensitive = sensitive.Bool
	return entry, nil
}

// escapeLike escapes LIKE wildcards so query matches literally.
func escapeLike(query string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(query)
}
