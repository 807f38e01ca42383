package driving

import (
	"context"

	"github.com/custodia-labs/flexdb/internal/core/domain"
)

// DocumentService is the entry point used by the CLI and library facade.
type DocumentService interface {
	// Insert stores a document and returns its id.
	Insert(ctx context.Context, doc domain.Document) (int64, error)

	// InsertRaw stores JSON text without re-encoding it.
	InsertRaw(ctx context.Context, text string) (int64, error)

	// Select returns records whose field key equals value, newest first.
	Select(ctx context.Context, key string, value any) ([]domain.Record, error)

	// Get retrieves a record by id.
	Get(ctx context.Context, id int64) (*domain.Record, error)

	// UpdateField sets one top-level field. A missing id is a no-op.
	UpdateField(ctx context.Context, id int64, key string, value any) error

	// Delete removes a record and reports whether it existed.
	Delete(ctx context.Context, id int64) (bool, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)
}
