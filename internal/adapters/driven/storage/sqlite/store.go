package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/custodia-labs/flexdb/internal/adapters/driven/storage/sqlite/schema"
	"github.com/custodia-labs/flexdb/internal/core/domain"
	"github.com/custodia-labs/flexdb/internal/core/ports/driven"
)

// memoryPath opens a private in-memory database.
const memoryPath = ":memory:"

var _ driven.DocumentStore = (*Store)(nil)

// Store keeps documents in one table of a SQLite database file.
type Store struct {
	db     *sql.DB
	path   string
	table  string
	quoted string
	closed atomic.Bool
}

// Option configures a Store.
type Option func(*options)

type options struct {
	table string
}

// WithTable selects the table holding documents. Several tables may live
// in one file, each an independent collection.
func WithTable(name string) Option {
	return func(o *options) {
		o.table = name
	}
}

// NewStore opens or creates the database at path and ensures the document
// table exists.
func NewStore(path string, opts ...Option) (*Store, error) {
	o := options{table: domain.DefaultTable}
	for _, opt := range opts {
		opt(&o)
	}

	if err := domain.ValidateIdentifier(o.table); err != nil {
		return nil, fmt.Errorf("table name: %w", err)
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty database path", domain.ErrInvalidInput)
	}

	dsn := path
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		// WAL mode for better concurrency with other processes
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One owner, one connection. Also keeps :memory: databases alive.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:     db,
		path:   path,
		table:  o.table,
		quoted: `"` + o.table + `"`,
	}

	if _, err := db.Exec(schema.CreateTable(s.quoted)); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table %s: %w", o.table, err)
	}

	return s, nil
}

// Close closes the database connection. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Table returns the document table name.
func (s *Store) Table() string {
	return s.table
}

func (s *Store) checkOpen() error {
	if s.closed.Load() {
		return domain.ErrStoreClosed
	}
	return nil
}

// Insert serialises doc and stores it.
func (s *Store) Insert(ctx context.Context, doc domain.Document) (int64, error) {
	if doc == nil {
		doc = domain.Document{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("%w: marshalling document: %v", domain.ErrInvalidInput, err)
	}
	return s.InsertRaw(ctx, string(data))
}

// InsertRaw stores text unchanged. Validity is left to the table's CHECK
// constraint; valid JSON that is not an object is refused before it reaches
// the table, since it could never be read back as a document.
func (s *Store) InsertRaw(ctx context.Context, text string) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if gjson.Valid(text) && !gjson.Parse(text).IsObject() {
		return 0, fmt.Errorf("%w: document must be a JSON object", domain.ErrInvalidInput)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO "+s.quoted+" (json_data) VALUES (?)", text)
	if err != nil {
		if isConstraintError(err) {
			return 0, fmt.Errorf("inserting record: %w", domain.ErrIntegrityViolation)
		}
		return 0, fmt.Errorf("inserting record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading record id: %w", err)
	}
	return id, nil
}

// Select returns records whose top-level field key equals value, newest
// first. Records inserted within the same second are ordered by id.
func (s *Store) Select(ctx context.Context, key string, value any) ([]domain.Record, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	path, err := domain.FieldPath(key)
	if err != nil {
		return nil, err
	}
	want, err := domain.NormalizeScalar(value)
	if err != nil {
		return nil, err
	}

	var rows *sql.Rows
	if want == nil {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, json_data, created_at FROM `+s.quoted+`
			WHERE json_type(json_data, ?) = 'null'
			ORDER BY created_at DESC, id DESC
		`, path)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, json_data, created_at FROM `+s.quoted+`
			WHERE json_data ->> ? = ?
			ORDER BY created_at DESC, id DESC
		`, path, want)
	}
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	records := []domain.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return records, nil
}

// Get retrieves a record by id.
func (s *Store) Get(ctx context.Context, id int64) (*domain.Record, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT id, json_data, created_at FROM "+s.quoted+" WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return rec, err
}

// UpdateField sets key on record id using json_set, adding the field when
// absent. value is bound as JSON text so its JSON type is preserved. Rows
// holding something other than a JSON object are left alone.
func (s *Store) UpdateField(ctx context.Context, id int64, key string, value any) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	path, err := domain.FieldPath(key)
	if err != nil {
		return 0, err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return 0, fmt.Errorf("%w: marshalling value: %v", domain.ErrInvalidInput, err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE `+s.quoted+`
		SET json_data = json_set(json_data, ?, json(?))
		WHERE id = ? AND json_type(json_data) = 'object'
	`, path, string(raw), id)
	if err != nil {
		if isConstraintError(err) {
			return 0, fmt.Errorf("updating record %d: %w", id, domain.ErrIntegrityViolation)
		}
		return 0, fmt.Errorf("updating record %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}
	return n, nil
}

// Delete removes record id.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM "+s.quoted+" WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting record %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return n > 0, nil
}

// Count returns the number of records in the table.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+s.quoted).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*domain.Record, error) {
	var rec domain.Record
	var data string
	var createdAt any
	if err := row.Scan(&rec.ID, &data, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}

	doc, err := domain.DecodeDocument([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("decoding record %d: %w", rec.ID, err)
	}
	rec.Data = doc

	ts, err := parseTimestamp(createdAt)
	if err != nil {
		return nil, fmt.Errorf("decoding record %d: %w", rec.ID, err)
	}
	rec.CreatedAt = ts

	return &rec, nil
}

// parseTimestamp accepts created_at as the driver returns it. Columns
// declared TIMESTAMP usually arrive as time.Time; files written by other
// tools may hold plain text.
func parseTimestamp(v any) (time.Time, error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return x.UTC(), nil
	case []byte:
		return parseTimestamp(string(x))
	case string:
		for _, layout := range []string{domain.TimestampLayout, "2006-01-02 15:04:05.999999999", time.RFC3339Nano} {
			if t, err := time.ParseInLocation(layout, strings.TrimSpace(x), time.UTC); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognised created_at %q", x)
	case int64:
		return time.Unix(x, 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unexpected created_at type %T", v)
	}
}

// isConstraintError reports whether err is a SQLite constraint failure.
// Extended codes such as SQLITE_CONSTRAINT_CHECK share the primary code in
// their low byte.
func isConstraintError(err error) bool {
	var se *msqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
