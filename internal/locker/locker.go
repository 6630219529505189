// Package locker keeps the per-account record of the last successful
// download in a JSON state file guarded by an exclusive file lock.
package locker

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"wxdata/internal/config"
	apperrors "wxdata/internal/errors"
)

// ErrAlreadyDownloaded is returned by BeginDate when the account was
// already downloaded today.
var ErrAlreadyDownloaded = errors.New("account already downloaded today")

// Locker reads and updates the download state file. Each call takes the
// lock for its own duration only; a second process holding it makes the
// call fail with a LOCKED error instead of waiting.
type Locker struct {
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// New creates a locker over the state file at path.
func New(path string, logger *slog.Logger) *Locker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locker{path: path, logger: logger, now: time.Now}
}

// NewForPaths creates a locker over the default state file in the locks
// directory.
func NewForPaths(paths *config.Paths, logger *slog.Logger) *Locker {
	return New(paths.LockPath(config.DownloadLockFile), logger)
}

// Path returns the state file path.
func (l *Locker) Path() string {
	return l.path
}

// LastDownload returns the last recorded download day of account.
func (l *Locker) LastDownload(account string) (time.Time, bool, error) {
	var last time.Time
	var found bool
	err := l.withState(func(state map[string]string) (bool, error) {
		v, ok := state[account]
		if !ok {
			return false, nil
		}
		t, err := time.ParseInLocation(time.DateOnly, v, time.Local)
		if err != nil {
			l.logger.Warn("Ignoring unreadable download date",
				slog.String("account", account),
				slog.String("value", v))
			return false, nil
		}
		last, found = t, true
		return false, nil
	})
	return last, found, err
}

// RecordDownload stores date as the last download day of account.
func (l *Locker) RecordDownload(account string, date time.Time) error {
	return l.withState(func(state map[string]string) (bool, error) {
		state[account] = date.Format(time.DateOnly)
		return true, nil
	})
}

// BeginDate picks the first day to download for account. An explicit
// begin wins. Otherwise the range restarts backDays before the last
// recorded download, or config.DefaultLookbackDays before end when
// nothing is recorded. A download already recorded for today yields
// ErrAlreadyDownloaded.
func (l *Locker) BeginDate(account string, explicit, end time.Time, backDays int) (time.Time, error) {
	if !explicit.IsZero() {
		return truncateDay(explicit), nil
	}

	last, found, err := l.LastDownload(account)
	if err != nil {
		return time.Time{}, err
	}
	if !found {
		return truncateDay(end).AddDate(0, 0, -config.DefaultLookbackDays), nil
	}
	if !last.Before(truncateDay(l.now())) {
		return time.Time{}, fmt.Errorf("%w: %s", ErrAlreadyDownloaded, account)
	}
	return last.AddDate(0, 0, -backDays), nil
}

// withState runs fn under the lock with the decoded state. When fn
// reports a change the state is written back before the lock is released.
func (l *Locker) withState(fn func(map[string]string) (bool, error)) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create locks directory", err).
			WithContext("path", l.path)
	}

	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return apperrors.NewStorageError("failed to open lock file", err).
			WithContext("path", l.path)
	}
	defer f.Close()

	if err := lockFile(f); err != nil {
		if errors.Is(err, errWouldBlock) {
			return apperrors.NewLockedError(l.path, err)
		}
		return apperrors.NewStorageError("failed to lock file", err).
			WithContext("path", l.path)
	}
	defer unlockFile(f)

	state, err := readState(f)
	if err != nil {
		// A damaged state only loses the bookkeeping; start over.
		l.logger.Warn("Lock file unreadable, starting with empty state",
			slog.String("path", l.path),
			slog.String("error", err.Error()))
		state = make(map[string]string)
	}

	changed, err := fn(state)
	if err != nil || !changed {
		return err
	}

	if err := writeState(f, state); err != nil {
		return apperrors.NewStorageError("failed to write lock file", err).
			WithContext("path", l.path)
	}
	return nil
}

func readState(f *os.File) (map[string]string, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	state := make(map[string]string)
	if len(data) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return state, nil
}

func writeState(f *os.File, state map[string]string) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.WriteAt(data, 0); err != nil {
		return err
	}
	return f.Sync()
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
