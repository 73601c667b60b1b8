package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// RecordStore is the persistence contract the service relies on.
type RecordStore interface {
	ListEntries(ctx context.Context) []JournalEntry
	AppendEntry(ctx context.Context, content string) (JournalEntry, error)
	ListMessages(ctx context.Context) []BoardMessage
	AppendMessage(ctx context.Context, content string) (BoardMessage, error)
	RemoveByID(ctx context.Context, c Collection, id string) error
	PruneOlderThan(ctx context.Context, c Collection, horizon time.Duration) (int, error)
	Export(ctx context.Context) (*Snapshot, error)
	ClearAll(ctx context.Context) error
	Statistics(ctx context.Context) Statistics
}

// Reactor applies one viewer's resonances.
type Reactor interface {
	React(ctx context.Context, msg BoardMessage) (BoardMessage, bool, error)
	Annotate(msgs []BoardMessage) []BoardMessage
	Forget()
}

// Oracle answers whether the plaza is open.
type Oracle interface {
	IsOpen(now time.Time) bool
	NextOpen(now time.Time) time.Time
}

// FillerSource produces synthetic messages and mixes them into a feed.
type FillerSource interface {
	Generate(count int) []BoardMessage
	Mix(persisted, synthetic []BoardMessage, limit int) []BoardMessage
}

// Components wires a Service. Records, Reactor, Oracle and Filler are required.
type Components struct {
	Records RecordStore
	Reactor Reactor
	Oracle  Oracle
	Filler  FillerSource

	// Events is optional; set when the storage can report external changes.
	Events Watchable
	// Closer releases the storage. Optional.
	Closer io.Closer

	Clock       Clock
	Logger      *slog.Logger
	FillerCount int
	FeedLimit   int
	Retention   time.Duration
}

// Service is the collaborator interface handed to the presentation layer.
type Service struct {
	mu sync.RWMutex

	records RecordStore
	reactor Reactor
	oracle  Oracle
	filler  FillerSource
	events  Watchable
	closer  io.Closer
	closed  bool

	clock       Clock
	logger      *slog.Logger
	fillerCount int
	feedLimit   int
	retention   time.Duration
}

// NewService creates a new Service.
func NewService(c Components) *Service {
	if c.Clock == nil {
		c.Clock = SystemClock
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		records:     c.Records,
		reactor:     c.Reactor,
		oracle:      c.Oracle,
		filler:      c.Filler,
		events:      c.Events,
		closer:      c.Closer,
		clock:       c.Clock,
		logger:      c.Logger,
		fillerCount: c.FillerCount,
		feedLimit:   c.FeedLimit,
		retention:   c.Retention,
	}
}

// ListEntries returns the archived journal entries.
func (s *Service) ListEntries(ctx context.Context) []JournalEntry {
	return s.records.ListEntries(ctx)
}

// ArchiveEntry stores a new journal entry.
func (s *Service) ArchiveEntry(ctx context.Context, content string) (JournalEntry, error) {
	return s.records.AppendEntry(ctx, content)
}

// DeleteEntry removes a journal entry. Unknown ids are not an error.
func (s *Service) DeleteEntry(ctx context.Context, id string) error {
	return s.records.RemoveByID(ctx, Journal, id)
}

// ListMessages returns the persisted board messages as this viewer sees them.
func (s *Service) ListMessages(ctx context.Context) []BoardMessage {
	return s.reactor.Annotate(s.records.ListMessages(ctx))
}

// SubmitMessage posts to the board. It is refused while the plaza is closed.
func (s *Service) SubmitMessage(ctx context.Context, content string) (BoardMessage, error) {
	if !s.IsBoardOpen() {
		return BoardMessage{}, ErrBoardClosed
	}
	return s.records.AppendMessage(ctx, content)
}

// ReactToMessage resonates with msg once for this viewer.
// The bool reports whether the counter moved.
func (s *Service) ReactToMessage(ctx context.Context, msg BoardMessage) (BoardMessage, bool, error) {
	return s.reactor.React(ctx, msg)
}

// IsBoardOpen reports whether the plaza is open right now.
func (s *Service) IsBoardOpen() bool {
	return s.oracle.IsOpen(s.clock.Now())
}

// NextOpenTime returns the next opening of the plaza.
func (s *Service) NextOpenTime() time.Time {
	return s.oracle.NextOpen(s.clock.Now())
}

// GenerateFillerMessages returns count synthetic messages.
func (s *Service) GenerateFillerMessages(count int) []BoardMessage {
	return s.filler.Generate(count)
}

// Feed assembles one display cycle: persisted messages mixed with filler.
func (s *Service) Feed(ctx context.Context) ([]BoardMessage, error) {
	if !s.IsBoardOpen() {
		return nil, ErrBoardClosed
	}
	persisted := s.ListMessages(ctx)
	synthetic := s.reactor.Annotate(s.filler.Generate(s.fillerCount))
	return s.filler.Mix(persisted, synthetic, s.feedLimit), nil
}

// PruneMessages drops board messages older than the retention horizon.
func (s *Service) PruneMessages(ctx context.Context) (int, error) {
	n, err := s.records.PruneOlderThan(ctx, Board, s.retention)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("pruned board messages", "removed", n, "horizon", s.retention)
	}
	return n, nil
}

// ExportSnapshot returns a versioned copy of every collection.
func (s *Service) ExportSnapshot(ctx context.Context) (*Snapshot, error) {
	return s.records.Export(ctx)
}

// WipeAll removes every persisted bucket and the viewer's reaction history.
func (s *Service) WipeAll(ctx context.Context) error {
	if err := s.records.ClearAll(ctx); err != nil {
		return err
	}
	s.reactor.Forget()
	return nil
}

// Statistics summarizes the persisted collections.
func (s *Service) Statistics(ctx context.Context) Statistics {
	return s.records.Statistics(ctx)
}

// Watch observes changes in the underlying storage if supported.
func (s *Service) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	if s.events == nil {
		return nil, errors.New("storage does not support watching")
	}
	return s.events.Watch(ctx, pattern)
}

// CanWatch reports whether Watch is available.
func (s *Service) CanWatch() bool {
	return s.events != nil
}

// Close releases the underlying storage. Further calls are no-ops.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.closer == nil {
		s.closed = true
		return nil
	}
	s.closed = true
	return s.closer.Close()
}
