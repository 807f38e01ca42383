package domain

import (
	"fmt"
	"slices"
	"strings"
)

// ValidateConfigKey checks key against the keys already set. Config keys are
// dotted paths into nested tables, so a key cannot name a table that another
// key lives under: "database" and "database.path" may not both hold values.
// Setting an existing key again is allowed.
func ValidateConfigKey(key string, existing map[string]any) error {
	if key == "" || slices.Contains(strings.Split(key, "."), "") {
		return fmt.Errorf("%w: config key %q", ErrInvalidInput, key)
	}

	for other := range existing {
		if other == key {
			continue
		}
		if strings.HasPrefix(other, key+".") || strings.HasPrefix(key, other+".") {
			return fmt.Errorf("%w: %q overlaps %q", ErrConfigKeyConflict, key, other)
		}
	}
	return nil
}
