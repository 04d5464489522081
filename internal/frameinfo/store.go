package frameinfo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"reelpress/internal/film"
)

// ErrMissing is returned when no size has been recorded for a frame.
var ErrMissing = errors.New("frame info: no entry")

// Store persists frame byte sizes across builds, backed by SQLite. It is
// what lets an incremental rebuild skip re-encoding by replaying recorded
// sizes through fake writes.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const schema = `
CREATE TABLE IF NOT EXISTS frame_info (
	reel INTEGER NOT NULL,
	frame INTEGER NOT NULL,
	eyes INTEGER NOT NULL,
	size INTEGER NOT NULL,
	PRIMARY KEY (reel, frame, eyes)
)`

// Open initializes or connects to the frame-info database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init frame_info schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Record stores the byte size of one written frame, replacing any previous
// entry for the same position.
func (s *Store) Record(ctx context.Context, reel int, frame int64, eyes film.Eyes, size int64) error {
	return retryOnBusy(ensureContext(ctx), func() error {
		_, err := s.db.ExecContext(ensureContext(ctx),
			`INSERT INTO frame_info (reel, frame, eyes, size) VALUES (?, ?, ?, ?)
			 ON CONFLICT(reel, frame, eyes) DO UPDATE SET size = excluded.size`,
			reel, frame, int(eyes), size)
		return err
	})
}

// Size returns the recorded byte size for one frame position, or ErrMissing.
func (s *Store) Size(ctx context.Context, reel int, frame int64, eyes film.Eyes) (int64, error) {
	var size int64
	err := retryOnBusy(ensureContext(ctx), func() error {
		row := s.db.QueryRowContext(ensureContext(ctx),
			`SELECT size FROM frame_info WHERE reel = ? AND frame = ? AND eyes = ?`,
			reel, frame, int(eyes))
		return row.Scan(&size)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w for reel %d frame %d eyes %s", ErrMissing, reel, frame, eyes)
	}
	if err != nil {
		return 0, err
	}
	return size, nil
}

// FirstMissingFrame returns the lowest frame index within a reel that has no
// recorded entry, which bounds how far a rebuild can fake-write.
func (s *Store) FirstMissingFrame(ctx context.Context, reel int, eyes film.Eyes) (int64, error) {
	var next sql.NullInt64
	err := retryOnBusy(ensureContext(ctx), func() error {
		row := s.db.QueryRowContext(ensureContext(ctx),
			`SELECT MAX(frame) FROM frame_info WHERE reel = ? AND eyes = ?`,
			reel, int(eyes))
		return row.Scan(&next)
	})
	if err != nil {
		return 0, err
	}
	if !next.Valid {
		return 0, nil
	}
	// Entries may have holes; walk up from zero.
	for frame := int64(0); frame <= next.Int64; frame++ {
		if _, err := s.Size(ctx, reel, frame, eyes); errors.Is(err, ErrMissing) {
			return frame, nil
		} else if err != nil {
			return 0, err
		}
	}
	return next.Int64 + 1, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
