package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/JudeLabs/ClipCache/internal/clock"
	"github.com/JudeLabs/ClipCache/internal/settings"
)

const (
	dirPerm  os.FileMode = 0o700
	filePerm os.FileMode = 0o600
)

// DefaultHistoryLimit is the page size used when a read passes limit <= 0.
const DefaultHistoryLimit = 500

// Store provides durable storage for clipboard history.
// Uses SQLite with WAL mode and a single connection.
type Store struct {
	db     *sql.DB
	path   string
	prefs  settings.Provider
	clock  clock.Clock
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock used for captured and expiry times.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithLogger sets the logger used for skipped legacy rows and migrations.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open creates or opens the history database at path.
// Applies file permissions, pragmas and migrations automatically.
//
// prefs supplies max_history_size and auto-clear policy at the time of each
// operation, so settings changes apply without reopening.
//
// This function is idempotent - safe to call multiple times.
func Open(path string, prefs settings.Provider, opts ...Option) (*Store, error) {
	if prefs == nil {
		prefs = settings.Static(settings.Defaults())
	}
	s := &Store{
		path:   path,
		prefs:  prefs,
		clock:  clock.System{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := prepareFiles(path); err != nil {
		return nil, err
	}

	// _txlock=immediate makes BeginTx take the write lock at once, so the
	// busy timeout covers read-then-write transactions too.
	db, err := sql.Open("sqlite3", path+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db, s.logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	// WAL and SHM files exist only after the first statements ran.
	if err := secureFiles(path); err != nil {
		db.Close()
		return nil, err
	}

	s.db = db
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	// busy_timeout first so the journal mode switch waits for other openers.
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// prepareFiles creates the directory and an empty database file with
// owner-only permissions before SQLite opens it, and re-applies those
// permissions if they were loosened.
func prepareFiles(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	if err := os.Chmod(dir, dirPerm); err != nil {
		return fmt.Errorf("secure store directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, filePerm)
	if err != nil {
		return fmt.Errorf("create store file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("create store file: %w", err)
	}
	return secureFiles(path)
}

// secureFiles forces 0600 on the database and its side files.
func secureFiles(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Chmod(p, filePerm); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("secure %s: %w", filepath.Base(p), err)
		}
	}
	return nil
}

// withTx runs fn inside a transaction and commits if fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
