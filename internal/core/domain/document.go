package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// Reserved keys merged into flattened query output.
const (
	KeyDBID      = "db_id"
	KeyID        = "id"
	KeyCreatedAt = "created_at"
)

// DefaultTable is the table used when none is configured.
const DefaultTable = "flex"

// TimestampLayout is the layout SQLite uses for CURRENT_TIMESTAMP.
const TimestampLayout = "2006-01-02 15:04:05"

// Document is an arbitrary JSON object. Any value encoding/json accepts may
// be stored. Decoded documents hold strings, bool, nil, []any and
// map[string]any, with integers that fit in int64 as int64 and every other
// number as float64.
type Document map[string]any

// Record is one persisted row.
type Record struct {
	// ID is assigned by the storage engine and never reused.
	ID int64

	// Data is the decoded document.
	Data Document

	// CreatedAt is captured by the storage engine at insertion time.
	CreatedAt time.Time
}

// Flatten returns the document with db_id, id and created_at merged in.
// Document fields with those names are overwritten.
func (r Record) Flatten() Document {
	out := make(Document, len(r.Data)+3)
	maps.Copy(out, r.Data)
	out[KeyDBID] = r.ID
	out[KeyID] = r.ID
	out[KeyCreatedAt] = r.CreatedAt.UTC().Format(TimestampLayout)
	return out
}

// IsReservedKey reports whether key collides with flattened output keys.
func IsReservedKey(key string) bool {
	return key == KeyDBID || key == KeyID || key == KeyCreatedAt
}

// DecodeDocument parses stored JSON text into a Document. Integral numbers
// keep their exact value, so an int64 above 2^53 reads back unchanged and can
// be used to select its own record.
func DecodeDocument(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: stored value is not a JSON object", ErrInvalidInput)
	}

	for k, v := range doc {
		doc[k] = decodeNumbers(v)
	}
	return doc, nil
}

func decodeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		// Out of float64 range; keep the literal.
		return x
	case map[string]any:
		for k, e := range x {
			x[k] = decodeNumbers(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = decodeNumbers(e)
		}
		return x
	default:
		return v
	}
}
