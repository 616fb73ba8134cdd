package ports

import (
	"context"

	"github.com/tapeworks/watchlater/internal/domain"
)

// PositionStore persists playback position records.
//
// Implementations must guarantee at most one record per path: Save is an
// upsert keyed on the record's Path. A missing record on Load or MostRecent
// is reported through the boolean, not an error; errors are reserved for
// actual storage failures.
type PositionStore interface {
	// Save writes or overwrites the record for record.Path.
	Save(ctx context.Context, record domain.PositionRecord) error

	// Load retrieves the record for the given path.
	Load(ctx context.Context, path string) (domain.PositionRecord, bool, error)

	// MostRecent retrieves the record with the greatest UpdatedAt.
	MostRecent(ctx context.Context) (domain.PositionRecord, bool, error)

	// List retrieves all records, most recently updated first.
	List(ctx context.Context) ([]domain.PositionRecord, error)

	// Delete removes the record for the given path. Deleting a path
	// without a record is not an error.
	Delete(ctx context.Context, path string) error

	// Close releases the underlying storage.
	Close() error
}
