package dusk

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/dusk/internal/platform"
	"github.com/aretw0/dusk/pkg/core"
	"github.com/aretw0/dusk/pkg/window"
)

// --- Types ---

// Service is the collaborator handed to a presentation layer.
type Service = core.Service

// Schedule is the plaza opening window.
type Schedule = window.Schedule

// JournalEntry is a private, archived journal entry.
type JournalEntry = core.JournalEntry

// BoardMessage is a public twilight-board message.
type BoardMessage = core.BoardMessage

// MessageRef identifies a message together with its origin.
type MessageRef = core.MessageRef

// Snapshot is the export document.
type Snapshot = core.Snapshot

// DefaultSchedule opens the plaza from 19:00 to 01:00.
var DefaultSchedule = window.Default

// --- Configuration ---

// Option defines a functional option for configuring dusk.
type Option = platform.Option

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStorage injects a storage backend.
func WithStorage(s core.Storage) Option {
	return platform.WithStorage(s)
}

// WithAdapter selects the storage adapter by name: fs (default), memory, pebble or sqlite.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithClock replaces the wall clock.
func WithClock(c core.Clock) Option {
	return platform.WithClock(c)
}

// WithSchedule sets the plaza opening hours.
func WithSchedule(s Schedule) Option {
	return platform.WithSchedule(s)
}

// WithSeed makes filler generation deterministic.
func WithSeed(seed uint64) Option {
	return platform.WithSeed(seed)
}

// WithMetrics registers the dusk counters on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return platform.WithMetrics(reg)
}

// WithBoardCapacity caps the number of persisted board messages.
func WithBoardCapacity(n int) Option {
	return platform.WithBoardCapacity(n)
}

// WithRetention sets the board prune horizon.
func WithRetention(d time.Duration) Option {
	return platform.WithRetention(d)
}

// WithFillerCount sets how many synthetic messages a feed receives.
func WithFillerCount(n int) Option {
	return platform.WithFillerCount(n)
}

// WithFeedLimit caps a mixed feed.
func WithFeedLimit(n int) Option {
	return platform.WithFeedLimit(n)
}

// WithAutoInit creates the data directory when missing.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithReadOnly rejects writes.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the `go run` sandbox.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithWatcherErrorHandler receives runtime watcher failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New creates a dusk Service over the data directory at uri.
func New(uri string, opts ...Option) (*Service, error) {
	return platform.New(context.Background(), uri, opts...)
}

// NewContext is New with a caller-provided context for opening storage.
func NewContext(ctx context.Context, uri string, opts ...Option) (*Service, error) {
	return platform.New(ctx, uri, opts...)
}

// --- Safety & Utils ---

// ResolveDataPath determines the actual data path based on safety rules.
func ResolveDataPath(userPath string, forceTemp bool) string {
	return platform.ResolveDataPath(userPath, forceTemp)
}

// IsDevRun reports whether the process runs via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot looks upwards for a project holding .dusk or dusk.yaml.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
