package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier checks that name is a plain top-level field or table
// name. Nested paths such as "a.b" are not accepted.
func ValidateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}

// FieldPath returns the JSON path addressing a top-level field.
func FieldPath(key string) (string, error) {
	if err := ValidateIdentifier(key); err != nil {
		return "", err
	}
	return "$." + key, nil
}

// NormalizeScalar converts a lookup value into one of nil, string, int64 or
// float64. Booleans become 0 or 1, which is how SQLite extracts JSON true
// and false. Objects and arrays are rejected.
func NormalizeScalar(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return x, nil
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return unsignedScalar(uint64(x)), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return unsignedScalar(x), nil
	case float32:
		return floatScalar(float64(x))
	case float64:
		return floatScalar(x)
	case json.Number:
		if i, err := strconv.ParseInt(string(x), 10, 64); err == nil {
			return i, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: number %q", ErrInvalidInput, x)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("%w: %T is not a JSON scalar", ErrInvalidInput, v)
	}
}

func unsignedScalar(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}

// floatScalar keeps whole numbers as int64 so decoded JSON numbers
// (always float64) compare the same way integers do.
func floatScalar(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %v has no JSON representation", ErrInvalidInput, f)
	}
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f), nil
	}
	return f, nil
}
