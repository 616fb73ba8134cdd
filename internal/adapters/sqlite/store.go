// Package sqlite implements the position store on an embedded SQLite
// database. The driver is CGo-free (modernc.org/sqlite) so the daemon
// cross-compiles without a toolchain.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tapeworks/watchlater/internal/domain"
	"github.com/tapeworks/watchlater/internal/ports"
)

// Store is a PositionStore backed by SQLite.
type Store struct {
	db       *sql.DB
	readOnly bool
}

// Options tune the SQLite connection.
type Options struct {
	// BusyTimeout is how long a statement waits on a locked database.
	BusyTimeout time.Duration

	// ReadOnly opens the database without write access. Used by the
	// list command so it can run next to a live daemon.
	ReadOnly bool
}

func dsn(path string, readOnly bool) (string, error) {
	if !readOnly {
		return path, nil
	}
	if path == ":memory:" {
		return "", fmt.Errorf("sqlite: read-only mode requires a file-backed database")
	}
	s := path
	if !strings.HasPrefix(s, "file:") {
		s = "file:" + s
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set("mode", "ro")
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// Open opens (and if necessary creates and migrates) the position database
// at path. Use ":memory:" for an ephemeral store.
func Open(path string, options Options) (*Store, error) {
	source, err := dsn(path, options.ReadOnly)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", source)
	if err != nil {
		return nil, err
	}

	if options.BusyTimeout <= 0 {
		options.BusyTimeout = 5 * time.Second
	}
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout=%d", int(options.BusyTimeout/time.Millisecond)),
	}
	if !options.ReadOnly {
		pragmas = append(pragmas,
			"PRAGMA journal_mode=WAL",
			"PRAGMA synchronous=NORMAL",
		)
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	store := &Store{db: db, readOnly: options.ReadOnly}
	if !options.ReadOnly {
		if err := store.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save writes or overwrites the record for record.Path.
func (s *Store) Save(ctx context.Context, record domain.PositionRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO positions (path, position_seconds, duration_seconds, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			position_seconds = excluded.position_seconds,
			duration_seconds = excluded.duration_seconds,
			updated_at = excluded.updated_at`,
		record.Path,
		int64(record.Position/time.Second),
		int64(record.Duration/time.Second),
		record.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("save position: %w", err)
	}
	return nil
}

// Load retrieves the record for the given path.
func (s *Store) Load(ctx context.Context, path string) (domain.PositionRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT path, position_seconds, duration_seconds, updated_at
		FROM positions WHERE path = ?`, path)
	return scanRecord(row)
}

// MostRecent retrieves the record with the greatest updated_at. Ties are
// broken by insertion order, most recently written first.
func (s *Store) MostRecent(ctx context.Context) (domain.PositionRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT path, position_seconds, duration_seconds, updated_at
		FROM positions ORDER BY updated_at DESC, rowid DESC LIMIT 1`)
	return scanRecord(row)
}

// List retrieves all records, most recently updated first.
func (s *Store) List(ctx context.Context) ([]domain.PositionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, position_seconds, duration_seconds, updated_at
		FROM positions ORDER BY updated_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	var records []domain.PositionRecord
	for rows.Next() {
		var (
			record           domain.PositionRecord
			position, length int64
			updated          int64
		)
		if err := rows.Scan(&record.Path, &position, &length, &updated); err != nil {
			return nil, err
		}
		record.Position = time.Duration(position) * time.Second
		record.Duration = time.Duration(length) * time.Second
		record.UpdatedAt = time.Unix(updated, 0)
		records = append(records, record)
	}
	return records, rows.Err()
}

// Delete removes the record for the given path.
func (s *Store) Delete(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM positions WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete position: %w", err)
	}
	return nil
}

func scanRecord(row *sql.Row) (domain.PositionRecord, bool, error) {
	var (
		record           domain.PositionRecord
		position, length int64
		updated          int64
	)
	err := row.Scan(&record.Path, &position, &length, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PositionRecord{}, false, nil
	}
	if err != nil {
		return domain.PositionRecord{}, false, err
	}
	record.Position = time.Duration(position) * time.Second
	record.Duration = time.Duration(length) * time.Second
	record.UpdatedAt = time.Unix(updated, 0)
	return record, true, nil
}

var _ ports.PositionStore = (*Store)(nil)
