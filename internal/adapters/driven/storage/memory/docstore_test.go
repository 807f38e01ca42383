package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/custodia-labs/flexdb/internal/core/domain"
	"github.com/custodia-labs/flexdb/internal/core/ports/driven"
	"github.com/custodia-labs/flexdb/internal/core/ports/driven/driventest"
)

func TestDocumentStore_Conformance(t *testing.T) {
	driventest.RunDocumentStoreTests(t, func(_ *testing.T) driven.DocumentStore {
		return NewDocumentStore()
	})
}

func TestDocumentStore_CreatedAtFromClock(t *testing.T) {
	store := NewDocumentStore()
	fixed := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	ctx := context.Background()

	id, err := store.Insert(ctx, domain.Document{"x": 1})
	require.NoError(t, err)

	_, err = store.UpdateField(ctx, id, "x", 2)
	require.NoError(t, err)

	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, fixed, rec.CreatedAt)
	assert.Equal(t, "2024-06-01 10:00:00", rec.Flatten()[domain.KeyCreatedAt])
}

func TestDocumentStore_InsertRawKeepsText(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	id, err := store.InsertRaw(ctx, `{"b": 1, "a": 2}`)
	require.NoError(t, err)

	e, ok := store.records.Get(id)
	require.True(t, ok)
	assert.Equal(t, `{"b": 1, "a": 2}`, string(e.data))
}

func TestDocumentStore_CloseDiscardsRecords(t *testing.T) {
	store := NewDocumentStore()
	_, err := store.Insert(context.Background(), domain.Document{"x": 1})
	require.NoError(t, err)

	require.NoError(t, store.Close())
	assert.Zero(t, store.records.Len())
}

func TestMatches(t *testing.T) {
	doc := []byte(`{"s": "1", "n": 1, "f": 2.5, "t": true, "z": false, "null": null, "obj": {"a": 1},
		"big": 9007199254740993, "whole": 3.0}`)

	tests := []struct {
		name string
		key  string
		want any
		ok   bool
	}{
		{"string equal", "s", "1", true},
		{"string vs number", "s", int64(1), false},
		{"number equal", "n", int64(1), true},
		{"number vs string", "n", "1", false},
		{"float equal", "f", 2.5, true},
		{"true as one", "t", int64(1), true},
		{"false as zero", "z", int64(0), true},
		{"null", "null", nil, true},
		{"missing is not null", "missing", nil, false},
		{"object never equals scalar", "obj", "x", false},
		{"large integer exact", "big", int64(9007199254740993), true},
		{"large integer neighbour", "big", int64(9007199254740992), false},
		{"whole real equals int", "whole", int64(3), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, matches(gjson.GetBytes(doc, tt.key), tt.want))
		})
	}
}

func TestDocumentStore_NonObjectEntry(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	store.records.Set(1, entry{data: []byte(`[1, 2]`), createdAt: store.now()})
	store.lastID = 1

	n, err := store.UpdateField(ctx, 1, "x", 1)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = store.Get(ctx, 1)
	assert.ErrorContains(t, err, "decoding record 1")
}
