// Package memory is an in-process implementation of core.Storage.
// It backs tests and ephemeral sessions; nothing survives Close.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/aretw0/dusk/pkg/core"
)

var errClosed = errors.New("memory storage is closed")

// Storage keeps values in a map guarded by a RWMutex.
type Storage struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool

	// injected faults, nil when healthy
	failGet    error
	failSet    error
	failRemove error
}

// New creates an empty Storage.
func New() *Storage {
	return &Storage{data: make(map[string][]byte)}
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed
	}
	if s.failGet != nil {
		return nil, s.failGet
	}
	v, ok := s.data[key]
	if !ok {
		return nil, core.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed
	}
	if s.failSet != nil {
		return s.failSet
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *Storage) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed
	}
	if s.failRemove != nil {
		return s.failRemove
	}
	delete(s.data, key)
	return nil
}

func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.data = nil
	return nil
}

// FailGet makes every Get return err until called again with nil.
func (s *Storage) FailGet(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failGet = err
}

// FailSet makes every Set return err until called again with nil.
func (s *Storage) FailSet(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSet = err
}

// FailRemove makes every Remove return err until called again with nil.
func (s *Storage) FailRemove(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRemove = err
}

// Keys returns the stored keys in sorted order.
func (s *Storage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "memory"
}

var _ core.Storage = (*Storage)(nil)
