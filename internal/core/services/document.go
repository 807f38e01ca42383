package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/flexdb/internal/core/domain"
	"github.com/custodia-labs/flexdb/internal/core/ports/driven"
	"github.com/custodia-labs/flexdb/internal/core/ports/driving"
	"github.com/custodia-labs/flexdb/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService stores and queries documents through a driven.DocumentStore.
type DocumentService struct {
	docStore driven.DocumentStore
}

// NewDocumentService creates a new document service.
func NewDocumentService(docStore driven.DocumentStore) *DocumentService {
	return &DocumentService{docStore: docStore}
}

// Insert stores a document and returns its id.
func (s *DocumentService) Insert(ctx context.Context, doc domain.Document) (int64, error) {
	if s.docStore == nil {
		return 0, domain.ErrStoreClosed
	}
	id, err := s.docStore.Insert(ctx, doc)
	return s.logInsert(id, err)
}

// InsertRaw stores JSON text without re-encoding it.
func (s *DocumentService) InsertRaw(ctx context.Context, text string) (int64, error) {
	if s.docStore == nil {
		return 0, domain.ErrStoreClosed
	}
	id, err := s.docStore.InsertRaw(ctx, text)
	return s.logInsert(id, err)
}

func (s *DocumentService) logInsert(id int64, err error) (int64, error) {
	if errors.Is(err, domain.ErrIntegrityViolation) {
		logger.Warn("database rejected invalid JSON data")
		return 0, err
	}
	if err != nil {
		return 0, err
	}
	logger.Info("saved record", "id", id)
	return id, nil
}

// Select returns records whose field key equals value, newest first.
func (s *DocumentService) Select(ctx context.Context, key string, value any) ([]domain.Record, error) {
	if s.docStore == nil {
		return nil, domain.ErrStoreClosed
	}

	records, err := s.docStore.Select(ctx, key, value)
	if err != nil {
		return nil, err
	}
	logger.Debug("selected records", "key", key, "value", value, "matches", len(records))
	return records, nil
}

// Get retrieves a record by id.
func (s *DocumentService) Get(ctx context.Context, id int64) (*domain.Record, error) {
	if s.docStore == nil {
		return nil, domain.ErrStoreClosed
	}
	return s.docStore.Get(ctx, id)
}

// UpdateField sets one top-level field. The diagnostic is emitted whether
// or not a record matched.
func (s *DocumentService) UpdateField(ctx context.Context, id int64, key string, value any) error {
	if s.docStore == nil {
		return domain.ErrStoreClosed
	}

	n, err := s.docStore.UpdateField(ctx, id, key, value)
	if err != nil {
		return fmt.Errorf("updating field %q: %w", key, err)
	}
	logger.Info("updated field", "key", key, "id", id)
	if n == 0 {
		logger.Debug("no record matched update", "id", id)
	}
	return nil
}

// Delete removes a record and reports whether it existed.
func (s *DocumentService) Delete(ctx context.Context, id int64) (bool, error) {
	if s.docStore == nil {
		return false, domain.ErrStoreClosed
	}

	ok, err := s.docStore.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	logger.Debug("deleted record", "id", id, "found", ok)
	return ok, nil
}

// Count returns the number of stored records.
func (s *DocumentService) Count(ctx context.Context) (int64, error) {
	if s.docStore == nil {
		return 0, domain.ErrStoreClosed
	}
	return s.docStore.Count(ctx)
}
