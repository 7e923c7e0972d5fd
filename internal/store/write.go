package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/JudeLabs/ClipCache/internal/clip"
	"github.com/JudeLabs/ClipCache/internal/retention"
	"github.com/JudeLabs/ClipCache/internal/sanitize"
	"github.com/JudeLabs/ClipCache/internal/sensitive"
)

// ErrEmptyContent is returned by Save when nothing is left to store.
var ErrEmptyContent = errors.New("empty content")

// ErrUnknownType is returned by Save for content types other than text and image.
var ErrUnknownType = clip.ErrUnknownType

// Save records a new history entry and returns its id.
//
// Text is classified on the captured bytes, then sanitized before storage.
// Image bytes are stored as-is and never classified as sensitive. The
// expiry comes from the current auto-clear settings. The insert and the
// capacity trim to max_history_size commit together.
//
// Save performs no dedup: saving the same content twice yields two entries.
func (s *Store) Save(ctx context.Context, ct clip.ContentType, raw []byte) (int64, error) {
	if !ct.Valid() {
		return 0, fmt.Errorf("save: %w: %q", ErrUnknownType, ct)
	}

	isSensitive := sensitive.Classify(clip.Content{Type: ct, Data: raw})
	content := raw
	if ct == clip.Text {
		content = sanitize.Bytes(raw)
	}
	if len(content) == 0 {
		return 0, fmt.Errorf("save: %w", ErrEmptyContent)
	}

	cfg := s.prefs.Settings()
	now := s.clock.Now()
	expires := retention.ExpiresAt(now, cfg)

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO clipboard_history
			(content_type, content, timestamp, expiration_time, is_pinned, is_sensitive)
			VALUES (?, ?, ?, ?, 0, ?)
		`,
			string(ct),
			content,
			formatTime(now),
			nullableTime(expires),
			isSensitive,
		)
		if err != nil {
			return fmt.Errorf("insert: %w", err)
		}

		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		if _, err := enforceLimit(ctx, tx, cfg.MaxHistorySize); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("save: %w", err)
	}

	return id, nil
}

// Delete removes an entry. Deleting a missing id is a no-op.
func (s *Store) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM clipboard_history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// Clear removes all unpinned entries, or every entry when includePinned is
// set. Returns the number of removed entries.
func (s *Store) Clear(ctx context.Context, includePinned bool) (int64, error) {
	query := `DELETE FROM clipboard_history WHERE is_pinned = 0`
	if includePinned {
		query = `DELETE FROM clipboard_history`
	}

	result, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear history: rows affected: %w", err)
	}
	return n, nil
}

// TogglePin flips the pin state of an entry and reports the new state.
//
// Pinning clears the expiry. Unpinning assigns a fresh expiry from the
// current auto-clear settings, or none when auto-clear is off; the expiry
// the entry had before it was pinned is not restored.
//
// found is false when the id does not exist; nothing changes in that case.
func (s *Store) TogglePin(ctx context.Context, id int64) (pinned bool, found bool, err error) {
	cfg := s.prefs.Settings()
	now := s.clock.Now()

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var current bool
		err := tx.QueryRowContext(ctx,
			`SELECT is_pinned FROM clipboard_history WHERE id = ?`, id,
		).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("select pin state: %w", err)
		}
		found = true

		if current {
			_, err = tx.ExecContext(ctx, `
				UPDATE clipboard_history
				SET is_pinned = 0, expiration_time = ?
				WHERE id = ?
			`, nullableTime(retention.ExpiresAt(now, cfg)), id)
		} else {
			_, err = tx.ExecContext(ctx, `
				UPDATE clipboard_history
				SET is_pinned = 1, expiration_time = NULL
				WHERE id = ?
			`, id)
		}
		if err != nil {
			return fmt.Errorf("update pin state: %w", err)
		}
		pinned = !current
		return nil
	})
	if err != nil {
		return false, false, fmt.Errorf("toggle pin: %w", err)
	}

	return pinned, found, nil
}
