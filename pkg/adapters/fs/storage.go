// Package fs stores each key as a JSON file inside a data directory.
//
// Writes go through a temp file and a rename, so a crash mid-write leaves
// the previous value intact. The directory can be watched for changes made
// by another process sharing it.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/aretw0/dusk/pkg/core"
)

// Extension is appended to every key to form its file name.
const Extension = ".json"

// Config holds the adapter settings.
type Config struct {
	// Path is the data directory.
	Path string
	// AutoInit creates Path on Initialize when it does not exist.
	AutoInit bool
	// ReadOnly rejects Set and Remove.
	ReadOnly bool
	// Debounce coalesces bursts of filesystem events per key.
	Debounce time.Duration
	Logger   *slog.Logger
	// ErrorHandler receives watcher errors. Optional.
	ErrorHandler func(error)
}

// Storage implements core.Storage on a directory of JSON files.
type Storage struct {
	Path   string
	config Config

	mu            sync.RWMutex
	closed        bool
	watchers      int
	lastWrite     *time.Time
	lastEvent     *time.Time
	writeFailures int
	suppressed    int
	own           map[string]ownWrite
}

// ownWrite fingerprints the last value this Storage wrote for a key.
type ownWrite struct {
	sum     uint64
	removed bool
}

// DefaultDebounce is used when Config.Debounce is zero.
const DefaultDebounce = 50 * time.Millisecond

var errReadOnly = errors.New("storage is read-only")
var errClosed = errors.New("storage is closed")

// New creates a Storage. Call Initialize before use.
func New(config Config) *Storage {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	return &Storage{
		Path:   config.Path,
		config: config,
		own:    make(map[string]ownWrite),
	}
}

// Initialize ensures the data directory exists.
func (s *Storage) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Path == "" {
		return fmt.Errorf("fs: empty data path")
	}

	info, err := os.Stat(s.Path)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("fs: %s is not a directory", s.Path)
	case err == nil:
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("fs: stat %s: %w", s.Path, err)
	case !s.config.AutoInit:
		return fmt.Errorf("fs: data directory %s does not exist", s.Path)
	}

	s.config.Logger.Debug("creating data directory", "path", s.Path)
	if err := os.MkdirAll(s.Path, 0o755); err != nil {
		return fmt.Errorf("fs: create %s: %w", s.Path, err)
	}
	return nil
}

func (s *Storage) filename(key string) (string, error) {
	if err := core.ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.Path, key+Extension), nil
}

func (s *Storage) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errClosed
	}
	return nil
}

// Get implements core.Storage.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	name, err := s.filename(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, core.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fs: read %s: %w", key, err)
	}
	return data, nil
}

// Set implements core.Storage.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.config.ReadOnly {
		return errReadOnly
	}
	name, err := s.filename(key)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(name, value, 0o644); err != nil {
		s.recordWrite(false)
		return fmt.Errorf("fs: write %s: %w", key, err)
	}
	s.recordWrite(true)
	s.remember(key, ownWrite{sum: xxhash.Sum64(value)})
	return nil
}

// Remove implements core.Storage.
func (s *Storage) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.config.ReadOnly {
		return errReadOnly
	}
	name, err := s.filename(key)
	if err != nil {
		return err
	}

	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.recordWrite(false)
		return fmt.Errorf("fs: remove %s: %w", key, err)
	}
	s.recordWrite(true)
	s.remember(key, ownWrite{removed: true})
	return nil
}

// Close marks the storage closed. Active watchers stop with their context.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Storage) recordWrite(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		s.writeFailures++
		return
	}
	now := time.Now()
	s.lastWrite = &now
}

func (s *Storage) remember(key string, w ownWrite) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.own[key] = w
}

// isOwnChange reports whether the file for key still holds exactly what
// this Storage last wrote (or is still absent after its own Remove).
// Watchers drop such events: another writer has not touched the key.
func (s *Storage) isOwnChange(key string) bool {
	s.mu.RLock()
	w, ok := s.own[key]
	s.mu.RUnlock()
	if !ok {
		return false
	}

	data, err := os.ReadFile(filepath.Join(s.Path, key+Extension))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return w.removed
	case err != nil:
		return false
	}
	return !w.removed && xxhash.Sum64(data) == w.sum
}

var _ core.Storage = (*Storage)(nil)
var _ core.Watchable = (*Storage)(nil)
