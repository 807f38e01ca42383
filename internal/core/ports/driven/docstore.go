package driven

import (
	"context"

	"github.com/custodia-labs/flexdb/internal/core/domain"
)

// DocumentStore persists schemaless documents, one record per document.
// Every mutating call commits on its own; there is no multi-call transaction.
type DocumentStore interface {
	// Insert serialises doc and stores it, returning the assigned id.
	// A write rejected by the JSON validity check returns an error
	// wrapping domain.ErrIntegrityViolation and stores nothing.
	Insert(ctx context.Context, doc domain.Document) (int64, error)

	// InsertRaw stores already-serialised JSON text as is. Invalid JSON
	// wraps domain.ErrIntegrityViolation; valid JSON that is not an object
	// wraps domain.ErrInvalidInput.
	InsertRaw(ctx context.Context, text string) (int64, error)

	// Select returns records whose top-level field key equals value,
	// newest first. No match is an empty result, not an error.
	Select(ctx context.Context, key string, value any) ([]domain.Record, error)

	// Get retrieves a record by id, or domain.ErrNotFound.
	Get(ctx context.Context, id int64) (*domain.Record, error)

	// UpdateField sets a top-level field on one record and returns the
	// number of rows changed. A missing id changes nothing and is not an error.
	UpdateField(ctx context.Context, id int64, key string, value any) (int64, error)

	// Delete removes a record and reports whether anything was removed.
	Delete(ctx context.Context, id int64) (bool, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// Close releases the underlying resources. Later calls fail with
	// domain.ErrStoreClosed.
	Close() error
}
