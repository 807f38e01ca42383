package services

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/flexdb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/flexdb/internal/core/domain"
	"github.com/custodia-labs/flexdb/internal/logger"
)

// captureLogs routes diagnostics into a buffer for the duration of the test.
func captureLogs(t *testing.T, verbose bool) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	logger.SetOutput(buf)
	logger.SetVerbose(verbose)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
		logger.SetVerbose(false)
	})
	return buf
}

func TestNewDocumentService(t *testing.T) {
	svc := NewDocumentService(memory.NewDocumentStore())
	require.NotNil(t, svc)
}

func TestDocumentService_NilStore(t *testing.T) {
	svc := NewDocumentService(nil)
	ctx := context.Background()

	_, err := svc.Insert(ctx, domain.Document{})
	assert.ErrorIs(t, err, domain.ErrStoreClosed)
	_, err = svc.InsertRaw(ctx, "{}")
	assert.ErrorIs(t, err, domain.ErrStoreClosed)
	_, err = svc.Select(ctx, "x", 1)
	assert.ErrorIs(t, err, domain.ErrStoreClosed)
	_, err = svc.Get(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrStoreClosed)
	assert.ErrorIs(t, svc.UpdateField(ctx, 1, "x", 1), domain.ErrStoreClosed)
	_, err = svc.Delete(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrStoreClosed)
	_, err = svc.Count(ctx)
	assert.ErrorIs(t, err, domain.ErrStoreClosed)
}

func TestDocumentService_Insert(t *testing.T) {
	buf := captureLogs(t, true)
	svc := NewDocumentService(memory.NewDocumentStore())

	id, err := svc.Insert(context.Background(), domain.Document{"name": "a"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Contains(t, buf.String(), "saved record")
	assert.Contains(t, buf.String(), "id=1")
}

func TestDocumentService_InsertRawIntegrityViolation(t *testing.T) {
	buf := captureLogs(t, false)
	store := memory.NewDocumentStore()
	svc := NewDocumentService(store)
	ctx := context.Background()

	id, err := svc.InsertRaw(ctx, `{"broken"`)

	assert.ErrorIs(t, err, domain.ErrIntegrityViolation)
	assert.Zero(t, id)
	assert.Contains(t, buf.String(), "database rejected invalid JSON data")

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDocumentService_SelectScenario(t *testing.T) {
	svc := NewDocumentService(memory.NewDocumentStore())
	ctx := context.Background()

	_, err := svc.Insert(ctx, domain.Document{"name": "a", "score": 1})
	require.NoError(t, err)
	_, err = svc.Insert(ctx, domain.Document{"name": "b", "score": 1})
	require.NoError(t, err)

	records, err := svc.Select(ctx, "score", 1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b", records[0].Data["name"])
	assert.Equal(t, "a", records[1].Data["name"])
}

func TestDocumentService_SelectInvalidKey(t *testing.T) {
	svc := NewDocumentService(memory.NewDocumentStore())

	_, err := svc.Select(context.Background(), "a.b", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)
}

func TestDocumentService_UpdateField(t *testing.T) {
	buf := captureLogs(t, true)
	store := memory.NewDocumentStore()
	svc := NewDocumentService(store)
	ctx := context.Background()

	id, err := svc.Insert(ctx, domain.Document{"x": 1})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateField(ctx, id, "x", 2))

	rec, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Data["x"])
	assert.Contains(t, buf.String(), "updated field")
	assert.Contains(t, buf.String(), "key=x")
}

func TestDocumentService_UpdateFieldMissingIDLogsAnyway(t *testing.T) {
	buf := captureLogs(t, true)
	svc := NewDocumentService(memory.NewDocumentStore())

	err := svc.UpdateField(context.Background(), 99, "x", 2)

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "updated field")
	assert.Contains(t, buf.String(), "id=99")
	assert.Contains(t, buf.String(), "no record matched update")
}

func TestDocumentService_UpdateFieldInvalidKey(t *testing.T) {
	svc := NewDocumentService(memory.NewDocumentStore())

	err := svc.UpdateField(context.Background(), 1, "bad key", 2)
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)
}

func TestDocumentService_DeleteAndCount(t *testing.T) {
	svc := NewDocumentService(memory.NewDocumentStore())
	ctx := context.Background()

	id, err := svc.Insert(ctx, domain.Document{"x": 1})
	require.NoError(t, err)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err := svc.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Delete(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err = svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
