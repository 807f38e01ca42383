// Package flexdb is a small document store on top of SQLite's JSON support.
//
// Documents are arbitrary JSON objects kept in a single table:
//
//	CREATE TABLE IF NOT EXISTS flex (
//	    id INTEGER PRIMARY KEY AUTOINCREMENT,
//	    json_data TEXT CHECK(json_valid(json_data)),
//	    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
//	)
//
// Queries match one top-level field by equality and updates replace one
// top-level field in place, both through SQLite JSON path functions.
//
//	db, err := flexdb.Open("data.db")
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	id, err := db.Insert(ctx, flexdb.Document{"name": "a", "score": 1})
//	docs, err := db.Select(ctx, "score", 1)
//
// A DB owns one connection and is meant for one caller at a time. Every
// mutating call commits on its own.
package flexdb

import (
	"context"
	"errors"

	"github.com/custodia-labs/flexdb/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/flexdb/internal/core/domain"
	"github.com/custodia-labs/flexdb/internal/core/services"
)

// Document is a schemaless JSON object.
type Document = domain.Document

// Record is a stored document with its id and creation time.
type Record = domain.Record

// Option configures Open.
type Option = sqlite.Option

// Errors returned by DB methods. Use errors.Is to test for them.
var (
	ErrIntegrityViolation = domain.ErrIntegrityViolation
	ErrInvalidIdentifier  = domain.ErrInvalidIdentifier
	ErrInvalidInput       = domain.ErrInvalidInput
	ErrNotFound           = domain.ErrNotFound
	ErrClosed             = domain.ErrStoreClosed
)

// DefaultTable is the table used unless WithTable is given.
const DefaultTable = domain.DefaultTable

// WithTable selects the table holding documents, so one file can hold
// several independent collections. Names must be plain identifiers.
func WithTable(name string) Option {
	return sqlite.WithTable(name)
}

// DB is an open document store.
type DB struct {
	store *sqlite.Store
	svc   *services.DocumentService
}

// Open opens or creates the database file at path and ensures the
// document table exists.
func Open(path string, opts ...Option) (*DB, error) {
	store, err := sqlite.NewStore(path, opts...)
	if err != nil {
		return nil, err
	}
	return &DB{store: store, svc: services.NewDocumentService(store)}, nil
}

// With opens the database, calls fn, and closes the database whether or
// not fn succeeds. The first error encountered is returned.
func With(path string, fn func(db *DB) error, opts ...Option) (err error) {
	db, err := Open(path, opts...)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, db.Close())
	}()
	return fn(db)
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.store.Path()
}

// Table returns the document table name.
func (db *DB) Table() string {
	return db.store.Table()
}

// Insert stores doc and returns its id. If the database rejects the
// serialised text the error wraps ErrIntegrityViolation and nothing is
// stored.
func (db *DB) Insert(ctx context.Context, doc Document) (int64, error) {
	return db.svc.Insert(ctx, doc)
}

// InsertJSON stores JSON text exactly as given. The text must be a JSON
// object: invalid JSON returns ErrIntegrityViolation, other JSON values
// return ErrInvalidInput.
func (db *DB) InsertJSON(ctx context.Context, text string) (int64, error) {
	return db.svc.InsertRaw(ctx, text)
}

// Select returns documents whose top-level field key equals value, newest
// first, each with db_id, id and created_at merged in. Those three keys
// overwrite document fields of the same name; use Records to keep them
// apart. value must be a string, number, bool or nil.
func (db *DB) Select(ctx context.Context, key string, value any) ([]Document, error) {
	records, err := db.svc.Select(ctx, key, value)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(records))
	for _, rec := range records {
		docs = append(docs, rec.Flatten())
	}
	return docs, nil
}

// Records is Select without merging record metadata into the documents.
func (db *DB) Records(ctx context.Context, key string, value any) ([]Record, error) {
	return db.svc.Select(ctx, key, value)
}

// Get returns the record with the given id, or ErrNotFound.
func (db *DB) Get(ctx context.Context, id int64) (*Record, error) {
	return db.svc.Get(ctx, id)
}

// UpdateField sets the top-level field key of record id to value, adding
// the field if needed. Updating an id that does not exist does nothing.
func (db *DB) UpdateField(ctx context.Context, id int64, key string, value any) error {
	return db.svc.UpdateField(ctx, id, key, value)
}

// Delete removes record id and reports whether it existed.
func (db *DB) Delete(ctx context.Context, id int64) (bool, error) {
	return db.svc.Delete(ctx, id)
}

// Count returns the number of stored documents.
func (db *DB) Count(ctx context.Context) (int64, error) {
	return db.svc.Count(ctx)
}

// Close releases the database. Later calls return ErrClosed.
func (db *DB) Close() error {
	return db.store.Close()
}
