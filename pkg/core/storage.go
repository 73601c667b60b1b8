package core

import (
	"context"
	"fmt"
	"time"
)

// Storage is the durable key-value primitive the store is built on.
// Adhering to this interface keeps the core independent of the
// underlying mechanism (files, pebble, sqlite, memory).
type Storage interface {
	// Get returns the value under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value under key.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases the underlying resources.
	Close() error
}

// Watchable is implemented by storage that can report changes made by
// other writers (another process sharing the same data directory).
type Watchable interface {
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// Clock is the wall-clock time source.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the local wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// ValidateKey rejects keys that cannot be used as a flat file name or
// table key: empty, path-like, or containing characters outside
// [a-zA-Z0-9._-].
func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
