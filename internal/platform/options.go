package platform

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/dusk/pkg/core"
	"github.com/aretw0/dusk/pkg/window"
)

// options holds the internal configuration for a dusk service.
type options struct {
	storage      core.Storage
	logger       *slog.Logger
	adapter      string
	clock        core.Clock
	schedule     window.Schedule
	seed         *uint64
	registerer   prometheus.Registerer
	capacity     int
	retention    time.Duration
	fillerCount  int
	feedLimit    int
	autoInit     bool
	readOnly     bool
	forceTemp    bool
	devSafety    bool
	errorHandler func(error)
}

// Option defines a functional option for configuring dusk.
type Option func(*options)

// Adapter names accepted by WithAdapter.
const (
	AdapterFS     = "fs"
	AdapterMemory = "memory"
	AdapterPebble = "pebble"
	AdapterSQLite = "sqlite"
)

// Adapters lists the known adapter names.
func Adapters() []string {
	return []string{AdapterFS, AdapterMemory, AdapterPebble, AdapterSQLite}
}

func defaultOptions() *options {
	return &options{
		adapter:   AdapterFS,
		clock:     core.SystemClock,
		schedule:  window.Default,
		autoInit:  true,
		devSafety: true,
	}
}

func (o *options) apply(opts []Option) *options {
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStorage injects a storage backend (e.g. a memory fake).
// If provided, the adapter selected by name is skipped.
func WithStorage(s core.Storage) Option {
	return func(o *options) {
		o.storage = s
	}
}

// WithAdapter selects the storage adapter by name. Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithClock replaces the wall clock. Tests use it to freeze time.
func WithClock(c core.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithSchedule sets the plaza opening hours.
func WithSchedule(s window.Schedule) Option {
	return func(o *options) {
		o.schedule = s
	}
}

// WithSeed makes filler generation deterministic.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = &seed
	}
}

// WithMetrics registers the dusk counters on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithBoardCapacity caps the number of persisted board messages.
func WithBoardCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithRetention sets how long board messages survive a prune.
func WithRetention(d time.Duration) Option {
	return func(o *options) {
		o.retention = d
	}
}

// WithFillerCount sets how many synthetic messages each feed receives.
// Negative values disable filler.
func WithFillerCount(n int) Option {
	return func(o *options) {
		o.fillerCount = n
	}
}

// WithFeedLimit caps a mixed feed.
func WithFeedLimit(n int) Option {
	return func(o *options) {
		o.feedLimit = n
	}
}

// WithAutoInit creates the data directory when missing. Enabled by default.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.autoInit = auto
	}
}

// WithReadOnly rejects writes. Read-only runs bypass the dev sandbox.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety controls the sandbox used under `go run` and `go test`.
// By default (true) data is re-rooted into a temporary directory.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithWatcherErrorHandler receives runtime watcher failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}
