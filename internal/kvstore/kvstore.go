// Package kvstore abstracts the small client-state key-value store used for
// per-user UI state that outlives a single session: the active suite id and
// the onboarding interaction counter. Entries are plain strings keyed by
// user-scoped keys; last write wins.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is a minimal string key-value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
