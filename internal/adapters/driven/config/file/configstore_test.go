package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/flexdb/internal/core/domain"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "config")

	_, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestDefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot determine home directory")
	}

	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".flexdb"), dir)
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	err = store.Set("test_key", "test_value")
	require.NoError(t, err)

	val, ok := store.Get("test_key")
	assert.True(t, ok)
	assert.Equal(t, "test_value", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_GetString(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("string_key", "hello world"))
	assert.Equal(t, "hello world", store.GetString("string_key"))

	// Non-existent key
	assert.Equal(t, "", store.GetString("nonexistent"))

	// Wrong type
	require.NoError(t, store.Set("int_key", 42))
	assert.Equal(t, "", store.GetString("int_key"))
}

func TestConfigStore_PersistsNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("database.path", "/data/flex.db"))
	require.NoError(t, store.Set("database.table", "people"))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[database]")
	assert.NotContains(t, string(raw), "'database.path'")

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "/data/flex.db", reloaded.GetString("database.path"))
	assert.Equal(t, "people", reloaded.GetString("database.table"))
}

func TestConfigStore_LoadExistingFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := "[database]\npath = \"/srv/docs.db\"\ntable = \"docs\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "/srv/docs.db", store.GetString("database.path"))
	assert.Equal(t, "docs", store.GetString("database.table"))
}

func TestConfigStore_LoadInvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not = [valid"), 0600))

	_, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save())

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_RejectsOverlappingKeys(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("database.path", "/tmp/a.db"))
	assert.ErrorIs(t, store.Set("database", "oops"), domain.ErrConfigKeyConflict)
	assert.ErrorIs(t, store.Set("database.path.extra", "oops"), domain.ErrConfigKeyConflict)

	// Repeat the reload so a map-order dependent save would show up.
	for i := 0; i < 5; i++ {
		reloaded, err := NewConfigStore(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/a.db", reloaded.GetString("database.path"))
		_, ok := reloaded.Get("database")
		assert.False(t, ok)
		assert.Equal(t, []string{"database.path"}, reloaded.Keys())
	}
}

func TestConfigStore_RejectsMalformedKeys(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.ErrorIs(t, store.Set("database.", "x"), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.Set("", "x"), domain.ErrInvalidInput)
	assert.NoFileExists(t, store.Path())
}

func TestConfigStore_Keys(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, store.Keys())

	require.NoError(t, store.Set("database.table", "flex"))
	require.NoError(t, store.Set("database.path", "x.db"))
	assert.Equal(t, []string{"database.path", "database.table"}, store.Keys())
}

func TestFlattenAndNestMap(t *testing.T) {
	nested := map[string]any{
		"database": map[string]any{"path": "x.db", "table": "flex"},
		"top":      true,
	}

	flat := flattenMap(nested, "")
	assert.Equal(t, map[string]any{"database.path": "x.db", "database.table": "flex", "top": true}, flat)
	assert.Equal(t, nested, nestMap(flat))
}
