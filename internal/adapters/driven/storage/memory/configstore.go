package memory

import (
	"maps"
	"path/filepath"
	"slices"
	"sync"

	"github.com/custodia-labs/flexdb/internal/core/domain"
	"github.com/custodia-labs/flexdb/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps dotted config keys in memory, applying the same key
// rules as the TOML store. A saved snapshot stands in for the file.
type ConfigStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]any
	saved  map[string]any
}

// NewConfigStore creates an empty store that reports dir/config.toml as its
// path.
func NewConfigStore(dir string) *ConfigStore {
	return &ConfigStore{
		path:   filepath.Join(dir, "config.toml"),
		values: make(map[string]any),
		saved:  make(map[string]any),
	}
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, ok := s.Get(key)
	if !ok {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

// Keys returns every set key in sorted order.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.values))
}

// Set stores a value and marks it saved.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := domain.ValidateConfigKey(key, s.values); err != nil {
		return err
	}
	s.values[key] = value
	s.saved = maps.Clone(s.values)
	return nil
}

// Save snapshots the current values.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = maps.Clone(s.values)
	return nil
}

// Load restores the last snapshot.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = maps.Clone(s.saved)
	return nil
}

// Path returns the config file path this store stands in for.
func (s *ConfigStore) Path() string {
	return s.path
}
