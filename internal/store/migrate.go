package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking (PRAGMA user_version):
// 0 - no marker: empty file, or a store written before versioning
// 1 - base table
// 2 - is_sensitive column
// 3 - expiration_time column
// 4 - NULL pin/sensitive flags normalized to 0
// 5 - ordering and expiry indexes
const currentSchemaVersion = 5

// ErrSchemaTooNew is returned when the store was written by a newer release.
var ErrSchemaTooNew = errors.New("store schema is newer than this release")

type migration struct {
	version int
	name    string
	apply   func(ctx context.Context, tx *sql.Tx) error
}

// migrations run in order; each one is idempotent and commits together
// with its version bump.
var migrations = []migration{
	{1, "base table", createBaseTable},
	{2, "is_sensitive column", addColumn("is_sensitive", "INTEGER NOT NULL DEFAULT 0")},
	{3, "expiration_time column", addColumn("expiration_time", "DATETIME")},
	{4, "normalize flags", normalizeFlags},
	{5, "indexes", createIndexes},
}

// applySchema brings the database up to currentSchemaVersion.
func applySchema(db *sql.DB, logger *slog.Logger) error {
	ctx := context.Background()

	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("%w: version %d, supported %d", ErrSchemaTooNew, version, currentSchemaVersion)
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if err := runMigration(ctx, db, m); err != nil {
			return err
		}
		logger.Debug("store migrated", "version", m.version, "step", m.name)
	}

	return nil
}

func runMigration(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate to v%d: begin tx: %w", m.version, err)
	}
	defer tx.Rollback()

	if err := m.apply(ctx, tx); err != nil {
		return fmt.Errorf("migrate to v%d (%s): %w", m.version, m.name, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		return fmt.Errorf("migrate to v%d: set user_version: %w", m.version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate to v%d: commit: %w", m.version, err)
	}
	return nil
}

func createBaseTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, schemaSQL)
	return err
}

// addColumn adds a column unless a legacy store already has it.
func addColumn(name, definition string) func(context.Context, *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		exists, err := columnExists(ctx, tx, "clipboard_history", name)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		_, err = tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE clipboard_history ADD COLUMN %s %s", name, definition))
		return err
	}
}

func columnExists(ctx context.Context, tx *sql.Tx, table, column string) (bool, error) {
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("inspect %s.%s: %w", table, column, err)
	}
	return count > 0, nil
}

// normalizeFlags rewrites NULL flags from legacy rows so predicates such as
// is_pinned = 0 match them.
func normalizeFlags(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`UPDATE clipboard_history SET is_pinned = 0 WHERE is_pinned IS NULL`,
		`UPDATE clipboard_history SET is_sensitive = 0 WHERE is_sensitive IS NULL`,
		`UPDATE clipboard_history SET expiration_time = NULL WHERE is_pinned = 1`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func createIndexes(ctx context.Context, tx *sql.Tx) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_history_order ON clipboard_history(is_pinned DESC, timestamp DESC, id DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_history_expiry ON clipboard_history(expiration_time) WHERE expiration_time IS NOT NULL`,
	}
	for _, idx := range indexes {
		if _, err := tx.ExecContext(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}
