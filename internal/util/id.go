// Package util provides small helpers shared across Stock Up.
package util

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID generates a new UUIDv7 identifier.
// UUIDv7 is time-ordered, so rows inserted later sort later in indexes.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source is unavailable.
		return uuid.New().String()
	}
	return id.String()
}

// ParseID validates and normalizes a UUID string.
func ParseID(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid ID format: %w", err)
	}
	return id.String(), nil
}

// IsValidID checks if a string is a valid UUID.
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
