package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrInvalidIdentifier", ErrInvalidIdentifier},
		{"ErrIntegrityViolation", ErrIntegrityViolation},
		{"ErrConfigKeyConflict", ErrConfigKeyConflict},
		{"ErrStoreClosed", ErrStoreClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Distinct tests that no two sentinel errors match each other
func TestErrors_Distinct(t *testing.T) {
	all := []error{ErrNotFound, ErrInvalidInput, ErrInvalidIdentifier, ErrIntegrityViolation, ErrConfigKeyConflict, ErrStoreClosed}
	for i, a := range all {
		for j, b := range all {
			assert.Equal(t, i == j, errors.Is(a, b), "%v vs %v", a, b)
		}
	}
}

// TestErrIntegrityViolation_Wrapped tests detection through wrapping
func TestErrIntegrityViolation_Wrapped(t *testing.T) {
	err := fmt.Errorf("inserting record: %w", ErrIntegrityViolation)
	assert.True(t, errors.Is(err, ErrIntegrityViolation))
	assert.False(t, errors.Is(err, ErrInvalidInput))
}
