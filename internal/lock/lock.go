// Package lock provides the single-owner lock file taken by the long-running
// watcher, so two processes never capture into the same history store.
//
// The file holds a YAML record with a random UUIDv7 token and the owner pid.
// A lock whose pid is no longer running is stale and is taken over.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ErrHeld is returned by Acquire when a live process owns the lock.
var ErrHeld = errors.New("lock is held by another process")

// Owner describes the process holding a lock.
type Owner struct {
	Token      string    `yaml:"token"`
	PID        int       `yaml:"pid"`
	AcquiredAt time.Time `yaml:"acquired_at"`
}

// Lock is a held lock file.
type Lock struct {
	path  string
	owner Owner
}

// Acquire creates the lock file at path. A stale lock left by a dead
// process is replaced; a live one yields ErrHeld wrapped with its owner.
func Acquire(path string) (*Lock, error) {
	token, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate lock token: %w", err)
	}
	owner := Owner{
		Token:      token.String(),
		PID:        os.Getpid(),
		AcquiredAt: time.Now().UTC(),
	}

	// One takeover attempt; losing the race to another process is ErrHeld.
	for attempt := 0; attempt < 2; attempt++ {
		err := create(path, owner)
		if err == nil {
			return &Lock{path: path, owner: owner}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, err
		}

		current, err := Read(path)
		if err != nil {
			return nil, err
		}
		if alive(current.PID) {
			return nil, fmt.Errorf("%w: pid %d", ErrHeld, current.PID)
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale lock: %w", err)
		}
	}
	return nil, ErrHeld
}

// Read returns the owner recorded in the lock file at path.
// An unreadable record reports PID 0, which is never alive.
func Read(path string) (Owner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Owner{}, fmt.Errorf("read lock: %w", err)
	}
	var owner Owner
	if err := yaml.Unmarshal(data, &owner); err != nil {
		return Owner{}, nil
	}
	return owner, nil
}

// Held reports whether a live process owns the lock at path.
func Held(path string) (Owner, bool, error) {
	owner, err := Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return Owner{}, false, nil
	}
	if err != nil {
		return Owner{}, false, err
	}
	return owner, alive(owner.PID), nil
}

// Owner returns the record written by this lock.
func (l *Lock) Owner() Owner {
	return l.owner
}

// Release removes the lock file if it still carries this lock's token.
func (l *Lock) Release() error {
	current, err := Read(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if current.Token != l.owner.Token {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// create publishes the record with a hard link so the lock file is never
// visible half-written.
func create(path string, owner Owner) error {
	data, err := yaml.Marshal(owner)
	if err != nil {
		return fmt.Errorf("encode lock: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create lock: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write lock: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write lock: %w", err)
	}
	return os.Link(tmp.Name(), path)
}
