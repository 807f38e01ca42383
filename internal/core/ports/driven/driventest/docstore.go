// Package driventest holds behaviour tests shared by every driven.DocumentStore
// implementation.
package driventest

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/flexdb/internal/core/domain"
	"github.com/custodia-labs/flexdb/internal/core/ports/driven"
)

// NewStoreFunc returns an empty store. The suite closes it.
type NewStoreFunc func(t *testing.T) driven.DocumentStore

// RunDocumentStoreTests exercises the DocumentStore contract against newStore.
func RunDocumentStoreTests(t *testing.T, newStore NewStoreFunc) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s driven.DocumentStore)
	}{
		{"RoundTrip", testRoundTrip},
		{"LargeIntegerRoundTrip", testLargeIntegerRoundTrip},
		{"SelectOrdersNewestFirst", testSelectOrdersNewestFirst},
		{"SelectNoMatch", testSelectNoMatch},
		{"SelectValueTypes", testSelectValueTypes},
		{"SelectNull", testSelectNull},
		{"SelectRejectsBadInput", testSelectRejectsBadInput},
		{"InsertRawRejectsInvalidJSON", testInsertRawRejectsInvalidJSON},
		{"InsertRawRejectsNonObjects", testInsertRawRejectsNonObjects},
		{"IDsNeverReused", testIDsNeverReused},
		{"UpdateField", testUpdateField},
		{"UpdateFieldAddsMissingKey", testUpdateFieldAddsMissingKey},
		{"UpdateFieldMissingID", testUpdateFieldMissingID},
		{"UpdateFieldValueTypes", testUpdateFieldValueTypes},
		{"UpdateFieldRejectsBadKey", testUpdateFieldRejectsBadKey},
		{"Delete", testDelete},
		{"DeleteMissingID", testDeleteMissingID},
		{"GetMissing", testGetMissing},
		{"ClosedStore", testClosedStore},
		{"ScenarioUpdateThenDelete", testScenarioUpdateThenDelete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()
			tt.fn(t, s)
		})
	}
}

func mustInsert(t *testing.T, s driven.DocumentStore, doc domain.Document) int64 {
	t.Helper()
	id, err := s.Insert(context.Background(), doc)
	require.NoError(t, err)
	require.Positive(t, id)
	return id
}

func ids(records []domain.Record) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func testRoundTrip(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	doc := domain.Document{
		"name":   "widget",
		"price":  9.5,
		"stock":  int64(3),
		"active": true,
		"tags":   []any{"a", "b"},
		"dims":   map[string]any{"w": int64(2), "h": 4.5},
		"note":   nil,
	}
	id := mustInsert(t, s, doc)

	for _, key := range []string{"name", "price", "stock", "active"} {
		records, err := s.Select(ctx, key, doc[key])
		require.NoError(t, err, key)
		require.Len(t, records, 1, key)
		assert.Equal(t, id, records[0].ID)
		if diff := cmp.Diff(doc, records[0].Data); diff != "" {
			t.Errorf("document mismatch for key %s (-want +got):\n%s", key, diff)
		}

		flat := records[0].Flatten()
		assert.Equal(t, id, flat[domain.KeyDBID])
		assert.Equal(t, id, flat[domain.KeyID])
		assert.NotEmpty(t, flat[domain.KeyCreatedAt])
	}
}

func testLargeIntegerRoundTrip(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	const big = int64(9007199254740993) // 2^53 + 1
	id := mustInsert(t, s, domain.Document{"n": big, "neg": -big, "list": []any{big}})
	mustInsert(t, s, domain.Document{"n": big - 1})

	rec, err := s.Get(ctx, id)
	require.NoError(t, err)
	want := domain.Document{"n": big, "neg": -big, "list": []any{big}}
	if diff := cmp.Diff(want, rec.Data); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}

	records, err := s.Select(ctx, "n", rec.Data["n"])
	require.NoError(t, err)
	assert.Equal(t, []int64{id}, ids(records))
}

func testSelectOrdersNewestFirst(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	a := mustInsert(t, s, domain.Document{"name": "a", "score": 1})
	b := mustInsert(t, s, domain.Document{"name": "b", "score": 1})
	c := mustInsert(t, s, domain.Document{"name": "c", "score": 2})
	d := mustInsert(t, s, domain.Document{"name": "d", "score": 1})

	records, err := s.Select(ctx, "score", 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{d, b, a}, ids(records))
	assert.Equal(t, "d", records[0].Data["name"])
	assert.Equal(t, "a", records[2].Data["name"])
	assert.NotContains(t, ids(records), c)
}

func testSelectNoMatch(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	mustInsert(t, s, domain.Document{"x": 1})

	records, err := s.Select(ctx, "x", 99)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	records, err = s.Select(ctx, "missing", "x")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func testSelectValueTypes(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	str := mustInsert(t, s, domain.Document{"v": "1"})
	num := mustInsert(t, s, domain.Document{"v": 1})
	flt := mustInsert(t, s, domain.Document{"v": 1.5})
	yes := mustInsert(t, s, domain.Document{"flag": true})
	no := mustInsert(t, s, domain.Document{"flag": false})

	tests := []struct {
		name  string
		key   string
		value any
		want  []int64
	}{
		{"string does not match number", "v", "1", []int64{str}},
		{"int does not match string", "v", 1, []int64{num}},
		{"whole float matches int", "v", 1.0, []int64{num}},
		{"fraction", "v", 1.5, []int64{flt}},
		{"true", "flag", true, []int64{yes}},
		{"false", "flag", false, []int64{no}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := s.Select(ctx, tt.key, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(records))
		})
	}
}

func testSelectNull(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	withNull := mustInsert(t, s, domain.Document{"v": nil})
	mustInsert(t, s, domain.Document{"other": 1})
	mustInsert(t, s, domain.Document{"v": 0})

	records, err := s.Select(ctx, "v", nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{withNull}, ids(records))
}

func testSelectRejectsBadInput(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	mustInsert(t, s, domain.Document{"x": 1})

	_, err := s.Select(ctx, "a.b", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)

	_, err = s.Select(ctx, "x') OR 1=1 --", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)

	_, err = s.Select(ctx, "x", map[string]any{"a": 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func testInsertRawRejectsInvalidJSON(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()

	for _, text := range []string{`{"a": 1`, `not json`, `{'a': 1}`, ``} {
		id, err := s.InsertRaw(ctx, text)
		assert.ErrorIs(t, err, domain.ErrIntegrityViolation, "text %q", text)
		assert.Zero(t, id)
	}

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	id, err := s.InsertRaw(ctx, `{"a": 1}`)
	require.NoError(t, err)
	rec, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.Document{"a": int64(1)}, rec.Data)
}

func testInsertRawRejectsNonObjects(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()

	for _, text := range []string{`[1, 2]`, `"text"`, `3`, `null`, `true`} {
		id, err := s.InsertRaw(ctx, text)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "text %q", text)
		assert.Zero(t, id)
	}

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testIDsNeverReused(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	first := mustInsert(t, s, domain.Document{"n": 1})
	second := mustInsert(t, s, domain.Document{"n": 2})
	assert.Greater(t, second, first)

	ok, err := s.Delete(ctx, second)
	require.NoError(t, err)
	require.True(t, ok)

	third := mustInsert(t, s, domain.Document{"n": 3})
	assert.Greater(t, third, second)
}

func testUpdateField(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	id := mustInsert(t, s, domain.Document{"x": 1, "keep": "me"})
	other := mustInsert(t, s, domain.Document{"x": 1})

	before, err := s.Get(ctx, id)
	require.NoError(t, err)

	n, err := s.UpdateField(ctx, id, "x", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	after, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.Document{"x": int64(2), "keep": "me"}, after.Data)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)

	untouched, err := s.Get(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, domain.Document{"x": int64(1)}, untouched.Data)
}

func testUpdateFieldAddsMissingKey(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	id := mustInsert(t, s, domain.Document{"x": 1})

	_, err := s.UpdateField(ctx, id, "y", "new")
	require.NoError(t, err)

	rec, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.Document{"x": int64(1), "y": "new"}, rec.Data)
}

func testUpdateFieldMissingID(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	id := mustInsert(t, s, domain.Document{"x": 1})

	n, err := s.UpdateField(ctx, id+100, "x", 5)
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	rec, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.Document{"x": int64(1)}, rec.Data)
}

func testUpdateFieldValueTypes(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	id := mustInsert(t, s, domain.Document{})

	values := map[string]any{
		"s":   "text",
		"q":   `has "quotes"`,
		"n":   int64(42),
		"f":   1.25,
		"b":   true,
		"nil": nil,
		"arr": []any{int64(1), "two"},
		"obj": map[string]any{"k": "v"},
	}
	for k, v := range values {
		_, err := s.UpdateField(ctx, id, k, v)
		require.NoError(t, err, k)
	}

	rec, err := s.Get(ctx, id)
	require.NoError(t, err)
	if diff := cmp.Diff(domain.Document(values), rec.Data); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}

	records, err := s.Select(ctx, "b", true)
	require.NoError(t, err)
	assert.Equal(t, []int64{id}, ids(records))
}

func testUpdateFieldRejectsBadKey(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	id := mustInsert(t, s, domain.Document{"x": 1})

	_, err := s.UpdateField(ctx, id, "x', 1) --", 2)
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)

	_, err = s.UpdateField(ctx, id, "nested.path", 2)
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)

	_, err = s.UpdateField(ctx, id, "x", func() {})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func testDelete(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	id := mustInsert(t, s, domain.Document{"x": 1})
	keep := mustInsert(t, s, domain.Document{"x": 1})

	ok, err := s.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	records, err := s.Select(ctx, "x", 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{keep}, ids(records))

	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ok, err = s.Delete(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testDeleteMissingID(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	mustInsert(t, s, domain.Document{"x": 1})

	ok, err := s.Delete(ctx, 12345)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func testGetMissing(t *testing.T, s driven.DocumentStore) {
	_, err := s.Get(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testClosedStore(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	id := mustInsert(t, s, domain.Document{"x": 1})

	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())

	_, err := s.Insert(ctx, domain.Document{"x": 2})
	assert.ErrorIs(t, err, domain.ErrStoreClosed)
	_, err = s.Select(ctx, "x", 1)
	assert.ErrorIs(t, err, domain.ErrStoreClosed)
	_, err = s.UpdateField(ctx, id, "x", 3)
	assert.ErrorIs(t, err, domain.ErrStoreClosed)
	_, err = s.Delete(ctx, id)
	assert.ErrorIs(t, err, domain.ErrStoreClosed)
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrStoreClosed)
	_, err = s.Count(ctx)
	assert.ErrorIs(t, err, domain.ErrStoreClosed)

	// Closed wins over argument errors.
	_, err = s.Select(ctx, "a.b", map[string]any{})
	assert.ErrorIs(t, err, domain.ErrStoreClosed)
	_, err = s.UpdateField(ctx, id, "a.b", func() {})
	assert.ErrorIs(t, err, domain.ErrStoreClosed)
	_, err = s.InsertRaw(ctx, `[1]`)
	assert.ErrorIs(t, err, domain.ErrStoreClosed)
}

func testScenarioUpdateThenDelete(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	id := mustInsert(t, s, domain.Document{"x": 1})
	assert.Equal(t, int64(1), id)

	_, err := s.UpdateField(ctx, id, "x", 2)
	require.NoError(t, err)

	records, err := s.Select(ctx, "x", 2)
	require.NoError(t, err)
	require.Len(t, records, 1)
	flat := records[0].Flatten()
	assert.Equal(t, int64(2), flat["x"])
	assert.Equal(t, int64(1), flat["db_id"])
	assert.Equal(t, int64(1), flat["id"])
	assert.Contains(t, flat, "created_at")
	assert.Len(t, flat, 4)

	ok, err := s.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	records, err = s.Select(ctx, "x", 2)
	require.NoError(t, err)
	assert.Empty(t, records)
}
