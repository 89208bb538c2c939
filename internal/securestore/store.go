// Package securestore holds the on-device secret key-value stores that back
// session persistence. Every failure is reported as domain.ErrStorageUnavailable.
package securestore

import (
	"context"
	"fmt"

	"github.com/karsaku/session-gate/internal/domain"
)

// Store is an async key-value store for session secrets.
type Store interface {
	// Get returns the value and true, or "" and false when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores the value durably before returning.
	Set(ctx context.Context, key, value string) error
	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

func unavailable(op, key string, err error) error {
	return fmt.Errorf("securestore %s %q: %w: %w", op, key, domain.ErrStorageUnavailable, err)
}
