// Package storage provides durable storage for the serialized session blob.
package storage

import "errors"

// ErrNotFound is returned by Load when no session blob has been saved, or
// when the saved entry is unusable and should be treated as absent.
var ErrNotFound = errors.New("storage: no session entry")

// Store persists a single serialized session under a fixed key.
type Store interface {
	// Load returns the saved blob, or ErrNotFound when none exists.
	Load() ([]byte, error)
	// Save replaces the saved blob.
	Save(data []byte) error
	// Delete removes the saved blob. Deleting an absent entry is not an error.
	Delete() error
}
