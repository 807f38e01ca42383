package driven

// ConfigStore holds flexdb settings such as database.path and
// database.table. Keys are dotted paths into nested tables; a key may not
// name a table that holds other keys, so "database" and "database.path"
// cannot both be set.
type ConfigStore interface {
	// Get returns the value for key and whether it is set.
	Get(key string) (any, bool)

	// GetString returns the value for key, or "" when it is unset or not
	// a string.
	GetString(key string) string

	// Keys returns every set key in sorted order.
	Keys() []string

	// Set stores a value and persists it immediately. Overlapping keys
	// return an error wrapping domain.ErrConfigKeyConflict.
	Set(key string, value any) error

	// Save persists the current configuration.
	Save() error

	// Load replaces the in-memory configuration with the persisted one.
	Load() error

	// Path returns the config.toml path. The default database file lives
	// next to it.
	Path() string
}
