package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	homedir "github.com/mitchellh/go-homedir"
)

// DBLock serialises history writes between exifscope processes through a
// sidecar "<db>.lock" file.
type DBLock struct {
	flock *flock.Flock
	file  string
}

func NewDBLock(dbPath string) (*DBLock, error) {
	abs, err := GetAbsDBPath(dbPath)
	if err != nil {
		return nil, fmt.Errorf("resolving history path: %w", err)
	}
	file := abs + ".lock"
	return &DBLock{flock: flock.New(file), file: file}, nil
}

// Lock blocks until the lock is held, telling the user when another run
// is in the way.
func (l *DBLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.file), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(l.file), err)
	}

	ok, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("locking %s: %w", l.file, err)
	}
	if ok {
		return nil
	}

	Log.Infof("Run history is busy, waiting for %s", l.file)
	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("locking %s: %w", l.file, err)
	}
	return nil
}

func (l *DBLock) Unlock() error {
	err := l.flock.Unlock()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unlocking %s: %w", l.file, err)
	}
	return nil
}

// GetAbsDBPath resolves the history database path. An empty path means
// ~/.config/exifscope/history.sqlite.
func GetAbsDBPath(dbPath string) (string, error) {
	if dbPath == "" {
		home, err := homedir.Dir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "exifscope", "history.sqlite"), nil
	}
	return filepath.Abs(ExpandPath(dbPath))
}
