// Package id generates identifiers for crawl runs.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator produces run identifiers.
type Generator func() (string, error)

// NewRunID returns a time-ordered UUIDv7 string.
func NewRunID() (string, error) {
	v, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}
	return v.String(), nil
}

// Fixed returns a Generator that always yields value.
func Fixed(value string) Generator {
	return func() (string, error) { return value, nil }
}
