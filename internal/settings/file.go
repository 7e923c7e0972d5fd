package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// File is a Provider backed by a YAML file. Keys missing from the file keep
// their defaults. The file is written with owner-only permissions.
type File struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	current Settings
}

// Load reads settings from path. A missing file yields Defaults.
func Load(path string) (*File, error) {
	f := &File{path: path, logger: slog.Default()}
	s, err := f.read()
	if err != nil {
		return nil, err
	}
	f.current = s
	return f, nil
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// SetLogger replaces the logger used by Watch.
func (f *File) SetLogger(logger *slog.Logger) {
	if logger != nil {
		f.logger = logger
	}
}

// Settings returns the most recently loaded settings.
func (f *File) Settings() Settings {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// Update applies fn to a copy of the current settings, validates the result
// and persists it. The in-memory settings change only if the write succeeds.
func (f *File) Update(fn func(*Settings) error) (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := f.current
	if err := fn(&next); err != nil {
		return f.current, err
	}
	if err := next.Validate(); err != nil {
		return f.current, err
	}
	if err := write(f.path, next); err != nil {
		return f.current, err
	}
	f.current = next
	return next, nil
}

// Reload re-reads the file. On error the previous settings are kept.
func (f *File) Reload() (Settings, error) {
	s, err := f.read()
	if err != nil {
		return f.Settings(), err
	}
	f.mu.Lock()
	f.current = s
	f.mu.Unlock()
	return s, nil
}

// Watch reloads the file whenever it changes on disk and passes the new
// settings to onChange. The watch is established before Watch returns and
// stops when ctx is done. The parent directory is watched so editors that
// replace the file by rename are handled.
func (f *File) Watch(ctx context.Context, onChange func(Settings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		watcher.Close()
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch settings directory: %w", err)
	}

	go func() {
		defer watcher.Close()
		name := filepath.Clean(f.path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != name {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				s, err := f.Reload()
				if err != nil {
					f.logger.Warn("settings reload failed, keeping previous values", "path", f.path, "error", err)
					continue
				}
				f.logger.Debug("settings reloaded", "path", f.path)
				if onChange != nil {
					onChange(s)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				f.logger.Warn("settings watcher error", "error", err)
			}
		}
	}()
	return nil
}

func (f *File) read() (Settings, error) {
	s := Defaults()
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings %s: %w", f.path, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("settings %s: %w", f.path, err)
	}
	return s, nil
}

// write replaces path atomically via a temporary file in the same directory.
func write(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
