package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JudeLabs/ClipCache/internal/clip"
)

// createLegacyDB writes an unversioned store with the given table definition.
func createLegacyDB(t *testing.T, table string, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(table)
	require.NoError(t, err)
	for _, row := range rows {
		_, err = db.Exec(row)
		require.NoError(t, err)
	}
	return path
}

func TestMigrate_AddsMissingColumns(t *testing.T) {
	path := createLegacyDB(t,
		`CREATE TABLE clipboard_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content_type TEXT NOT NULL,
			content BLOB,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			is_pinned BOOLEAN DEFAULT 0
		)`,
		`INSERT INTO clipboard_history (content_type, content, timestamp, is_pinned)
		 VALUES ('text', X'68656C6C6F', '2024-05-01 10:00:00', 0)`,
		`INSERT INTO clipboard_history (content_type, content, timestamp, is_pinned)
		 VALUES ('text', X'776F726C64', '2024-05-01 11:00:00', 1)`,
	)

	s, err := Open(path, nil)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	for _, column := range []string{"is_sensitive", "expiration_time"} {
		tx, err := s.db.BeginTx(ctx, nil)
		require.NoError(t, err)
		exists, err := columnExists(ctx, tx, "clipboard_history", column)
		require.NoError(t, tx.Rollback())
		require.NoError(t, err)
		assert.True(t, exists, column)
	}

	entries, err := s.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "world", string(entries[0].Content))
	assert.True(t, entries[0].Pinned)
	assert.Equal(t, "hello", string(entries[1].Content))
	assert.False(t, entries[1].Sensitive)
	assert.Nil(t, entries[1].ExpiresAt)
	assert.Equal(t, 2024, entries[1].CapturedAt.Year())
}

func TestMigrate_PartialLegacySchema(t *testing.T) {
	// is_sensitive present, expiration_time missing, NULL flags.
	path := createLegacyDB(t,
		`CREATE TABLE clipboard_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content_type TEXT NOT NULL,
			content BLOB,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			is_pinned BOOLEAN,
			is_sensitive BOOLEAN
		)`,
		`INSERT INTO clipboard_history (content_type, content, timestamp, is_pinned, is_sensitive)
		 VALUES ('text', X'6B6579', '2024-05-01 10:00:00', NULL, 1)`,
	)

	s, err := Open(path, nil)
	require.NoError(t, err)
	defer s.Close()

	entries, err := s.History(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Pinned)
	assert.True(t, entries[0].Sensitive)

	// NULL pins were normalized, so capacity counts the row.
	removed, err := s.EnforceHistoryLimit(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestMigrate_SkipsUnknownContentTypes(t *testing.T) {
	path := createLegacyDB(t,
		`CREATE TABLE clipboard_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content_type TEXT NOT NULL,
			content BLOB,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			is_pinned BOOLEAN DEFAULT 0
		)`,
		`INSERT INTO clipboard_history (content_type, content, timestamp)
		 VALUES ('html', X'3C623E', '2024-05-01 10:00:00')`,
		`INSERT INTO clipboard_history (content_type, content, timestamp)
		 VALUES ('text', X'', '2024-05-01 10:30:00')`,
		`INSERT INTO clipboard_history (content_type, content, timestamp)
		 VALUES ('text', X'6F6B', '2024-05-01 11:00:00')`,
	)

	s, err := Open(path, nil)
	require.NoError(t, err)
	defer s.Close()

	entries, err := s.History(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, clip.Text, entries[0].Type)
	assert.Equal(t, "ok", string(entries[0].Content))
}

func TestMigrate_SchemaTooNew(t *testing.T) {
	path := createLegacyDB(t, `PRAGMA user_version = 99`)

	_, err := Open(path, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaTooNew)
}
