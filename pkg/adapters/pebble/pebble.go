// Package pebble stores keys in an embedded Pebble LSM database.
package pebble

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/aretw0/introspection"
	"github.com/cockroachdb/pebble"

	"github.com/aretw0/dusk/pkg/core"
)

// keyPrefix namespaces dusk keys inside the database.
var keyPrefix = []byte("dusk:")

// Storage implements core.Storage on top of Pebble. Every write is synced.
type Storage struct {
	Path   string
	db     *pebble.DB
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	writes atomic.Int64
}

// Option configures a Storage.
type Option func(*Storage)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Storage) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open opens (or creates) the database directory at path.
func Open(path string, opts ...Option) (*Storage, error) {
	s := &Storage{
		Path:   path,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, fmt.Errorf("pebble: create %s: %w", path, err)
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble: open %s: %w", path, err)
	}
	s.db = db
	s.logger.Debug("pebble storage opened", "path", path)
	return s, nil
}

func dbKey(key string) ([]byte, error) {
	if err := core.ValidateKey(key); err != nil {
		return nil, err
	}
	return append(append([]byte(nil), keyPrefix...), key...), nil
}

// acquire holds the read lock for the duration of a database call so
// Close cannot race it. The caller must call the returned release.
func (s *Storage) acquire(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, pebble.ErrClosed
	}
	return s.mu.RUnlock, nil
}

// Get implements core.Storage.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	k, err := dbKey(key)
	if err != nil {
		return nil, err
	}

	v, closer, err := s.db.Get(k)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, core.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pebble: get %s: %w", key, err)
	}
	defer closer.Close()

	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set implements core.Storage.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	k, err := dbKey(key)
	if err != nil {
		return err
	}
	if err := s.db.Set(k, value, pebble.Sync); err != nil {
		return fmt.Errorf("pebble: set %s: %w", key, err)
	}
	s.countWrite()
	return nil
}

// Remove implements core.Storage.
func (s *Storage) Remove(ctx context.Context, key string) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	k, err := dbKey(key)
	if err != nil {
		return err
	}
	if err := s.db.Delete(k, pebble.Sync); err != nil {
		return fmt.Errorf("pebble: delete %s: %w", key, err)
	}
	s.countWrite()
	return nil
}

// Keys lists the stored keys in order.
func (s *Storage) Keys(ctx context.Context) ([]string, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: keyPrefix})
	if err != nil {
		return nil, fmt.Errorf("pebble: iterate: %w", err)
	}
	defer it.Close()

	var keys []string
	for ok := it.First(); ok; ok = it.Next() {
		k := it.Key()
		if !bytes.HasPrefix(k, keyPrefix) {
			break
		}
		keys = append(keys, string(k[len(keyPrefix):]))
	}
	return keys, it.Error()
}

// Close flushes and closes the database. Closing twice is a no-op.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.db == nil {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Storage) countWrite() {
	s.writes.Add(1)
}

// StorageState exposes internal state for observability.
type StorageState struct {
	Path   string `json:"path"`
	Closed bool   `json:"closed"`
	Writes int64  `json:"writes"`
}

// State implements introspection.Introspectable.
func (s *Storage) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StorageState{Path: s.Path, Closed: s.closed, Writes: s.writes.Load()}
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "pebble"
}

var _ core.Storage = (*Storage)(nil)
var _ introspection.Introspectable = (*Storage)(nil)
var _ introspection.Component = (*Storage)(nil)
