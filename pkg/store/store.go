// Package store persists the journal and board collections on top of a
// core.Storage key-value primitive.
//
// Every collection is one JSON array under one key and every write is a
// read-modify-write of the whole array. Reads never fail: missing or
// corrupt data is an empty collection. Writes report storage faults as
// errors wrapping core.ErrStorage.
package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/dusk/pkg/core"
	"github.com/aretw0/dusk/pkg/metrics"
)

const (
	// DefaultBoardCapacity is how many board messages survive an append.
	DefaultBoardCapacity = 50

	// RetentionHorizon is the age after which board messages are pruned.
	RetentionHorizon = 7 * 24 * time.Hour
)

// Store owns the persisted collections.
type Store struct {
	mu sync.Mutex

	storage  core.Storage
	clock    core.Clock
	logger   *slog.Logger
	metrics  *metrics.Metrics
	capacity int
	newID    func() (string, error)

	lastWrite *time.Time
	faults    int
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for createdAt and pruning.
func WithClock(c core.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithLogger sets the logger for storage faults and lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithMetrics records appends, rejections and faults.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithBoardCapacity overrides the number of board messages retained on append.
// Values below 1 keep the default.
func WithBoardCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithIDGenerator replaces the record id generator.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// New creates a Store on top of storage.
func New(storage core.Storage, opts ...Option) *Store {
	s := &Store{
		storage:  storage,
		clock:    core.SystemClock,
		capacity: DefaultBoardCapacity,
		newID:    newTimeOrderedID,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// newTimeOrderedID returns a UUIDv7, which embeds a millisecond timestamp.
func newTimeOrderedID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// now returns the clock time in the stored precision (UTC, milliseconds).
func (s *Store) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Millisecond)
}

// Capacity returns the board capacity.
func (s *Store) Capacity() int {
	return s.capacity
}

var _ core.RecordStore = (*Store)(nil)
