package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/tidwall/btree"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/custodia-labs/flexdb/internal/core/domain"
	"github.com/custodia-labs/flexdb/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// entry is a stored record in its serialised form.
type entry struct {
	data      []byte
	createdAt time.Time
}

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Records are kept in id order, which is also insertion order, so newest
// first is a reverse scan.
type DocumentStore struct {
	mu      sync.RWMutex
	records btree.Map[int64, entry]
	lastID  int64
	closed  bool
	now     func() time.Time
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		now: func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// Insert serialises doc and stores it.
func (s *DocumentStore) Insert(ctx context.Context, doc domain.Document) (int64, error) {
	if doc == nil {
		doc = domain.Document{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("%w: marshalling document: %v", domain.ErrInvalidInput, err)
	}
	return s.InsertRaw(ctx, string(data))
}

// InsertRaw stores text if it is a valid JSON object. Invalid JSON is an
// integrity violation, like the SQLite CHECK constraint reports.
func (s *DocumentStore) InsertRaw(_ context.Context, text string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, domain.ErrStoreClosed
	}

	if !gjson.Valid(text) {
		return 0, fmt.Errorf("inserting record: %w", domain.ErrIntegrityViolation)
	}
	if !gjson.Parse(text).IsObject() {
		return 0, fmt.Errorf("%w: document must be a JSON object", domain.ErrInvalidInput)
	}

	s.lastID++
	s.records.Set(s.lastID, entry{data: []byte(text), createdAt: s.now()})
	return s.lastID, nil
}

// Select returns records whose field key equals value, newest first.
func (s *DocumentStore) Select(_ context.Context, key string, value any) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreClosed
	}

	if err := domain.ValidateIdentifier(key); err != nil {
		return nil, err
	}
	want, err := domain.NormalizeScalar(value)
	if err != nil {
		return nil, err
	}

	records := []domain.Record{}
	var decodeErr error
	s.records.Reverse(func(id int64, e entry) bool {
		if !matches(gjson.GetBytes(e.data, key), want) {
			return true
		}
		rec, err := decode(id, e)
		if err != nil {
			decodeErr = err
			return false
		}
		records = append(records, *rec)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}

	return records, nil
}

// Get retrieves a record by id.
func (s *DocumentStore) Get(_ context.Context, id int64) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreClosed
	}

	e, ok := s.records.Get(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return decode(id, e)
}

// UpdateField sets key on record id, adding it when absent.
func (s *DocumentStore) UpdateField(_ context.Context, id int64, key string, value any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, domain.ErrStoreClosed
	}

	if err := domain.ValidateIdentifier(key); err != nil {
		return 0, err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return 0, fmt.Errorf("%w: marshalling value: %v", domain.ErrInvalidInput, err)
	}

	e, ok := s.records.Get(id)
	if !ok || !gjson.ParseBytes(e.data).IsObject() {
		return 0, nil
	}

	data, err := sjson.SetRawBytes(e.data, key, raw)
	if err != nil {
		return 0, fmt.Errorf("updating record %d: %w", id, err)
	}
	e.data = data
	s.records.Set(id, e)
	return 1, nil
}

// Delete removes record id.
func (s *DocumentStore) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, domain.ErrStoreClosed
	}

	_, ok := s.records.Delete(id)
	return ok, nil
}

// Count returns the number of stored records.
func (s *DocumentStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, domain.ErrStoreClosed
	}
	return int64(s.records.Len()), nil
}

// Close discards all records.
func (s *DocumentStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.records = btree.Map[int64, entry]{}
	return nil
}

func decode(id int64, e entry) (*domain.Record, error) {
	doc, err := domain.DecodeDocument(e.data)
	if err != nil {
		return nil, fmt.Errorf("decoding record %d: %w", id, err)
	}
	return &domain.Record{ID: id, Data: doc, CreatedAt: e.createdAt}, nil
}

// matches compares an extracted field with a normalised scalar the way
// SQLite compares the result of ->> with a bound parameter: JSON true and
// false extract as 1 and 0, text never equals a number, and integer literals
// compare exactly.
func matches(got gjson.Result, want any) bool {
	if !got.Exists() {
		return false
	}
	switch w := want.(type) {
	case nil:
		return got.Type == gjson.Null
	case string:
		return got.Type == gjson.String && got.Str == w
	case int64:
		if got.Type == gjson.Number {
			if n, err := strconv.ParseInt(got.Raw, 10, 64); err == nil {
				return n == w
			}
		}
		n, ok := number(got)
		return ok && n == float64(w)
	case float64:
		n, ok := number(got)
		return ok && n == w
	default:
		return false
	}
}

func number(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Num, true
	case gjson.True:
		return 1, true
	case gjson.False:
		return 0, true
	default:
		return 0, false
	}
}
