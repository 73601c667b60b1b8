// Package plaza drives a viewer's live board: it follows the opening
// window, refreshes the mixed feed periodically and applies resonances to
// the displayed copy.
package plaza

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"

	lcsource "github.com/aretw0/dusk/pkg/adapters/lifecycle"
	"github.com/aretw0/dusk/pkg/core"
)

const (
	// DefaultTick is how often the opening window is rechecked.
	DefaultTick = time.Second
	// DefaultRefresh is how often an open board is reloaded.
	DefaultRefresh = 30 * time.Second
)

// ErrAlreadyStarted is returned by a second Start.
var ErrAlreadyStarted = errors.New("session already started")

// Board is what a session needs from the service. *core.Service implements it.
type Board interface {
	IsBoardOpen() bool
	Feed(ctx context.Context) ([]core.BoardMessage, error)
	ReactToMessage(ctx context.Context, msg core.BoardMessage) (core.BoardMessage, bool, error)
	CanWatch() bool
	Watch(ctx context.Context, pattern string) (<-chan core.Event, error)
}

// Session holds one viewer's display state.
type Session struct {
	board   Board
	tick    time.Duration
	refresh time.Duration
	logger  *slog.Logger

	mu        sync.Mutex
	open      bool
	feed      []core.BoardMessage
	refreshes int
	onState   func(open bool)
	onFeed    func([]core.BoardMessage)
	cancel    context.CancelFunc
	stopped   bool

	kick chan struct{}
	wg   sync.WaitGroup
}

// Option configures a Session.
type Option func(*Session)

// WithTick sets the window recheck interval.
func WithTick(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithRefresh sets the board refresh interval.
func WithRefresh(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.refresh = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession creates a stopped session over board.
func NewSession(board Board, opts ...Option) *Session {
	s := &Session{
		board:   board,
		tick:    DefaultTick,
		refresh: DefaultRefresh,
		logger:  slog.New(slog.DiscardHandler),
		kick:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnStateChange registers fn to run when the plaza opens or closes.
func (s *Session) OnStateChange(fn func(open bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onState = fn
}

// OnFeed registers fn to run whenever the displayed feed changes.
func (s *Session) OnFeed(fn func([]core.BoardMessage)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFeed = fn
}

// Start loads the initial state and launches the periodic tasks.
// They run until ctx is cancelled or Stop is called.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	if open, _ := s.checkWindow(); open {
		if err := s.Refresh(runCtx); err != nil {
			s.logger.Warn("initial refresh failed", "error", err)
		}
	}

	s.spawn(runCtx, "window", s.windowLoop)
	s.spawn(runCtx, "refresh", s.refreshLoop)
	if s.board.CanWatch() {
		if err := s.startWatch(runCtx); err != nil {
			s.logger.Warn("board watch unavailable", "error", err)
		}
	}
	return nil
}

// Stop cancels the tasks and waits for them to exit.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.stopped = cancel != nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// IsOpen reports the last observed window state.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Feed returns a copy of the displayed messages.
func (s *Session) Feed() []core.BoardMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.feed)
}

// Refresh reloads the feed now. A closed board empties the display.
func (s *Session) Refresh(ctx context.Context) error {
	feed, err := s.board.Feed(ctx)
	if errors.Is(err, core.ErrBoardClosed) {
		feed, err = nil, nil
	}
	if err != nil {
		return err
	}

	// The window may have closed while Feed ran. Once started, the
	// session's own window state wins over a late result.
	open := s.board.IsBoardOpen()

	s.mu.Lock()
	if !open || (s.cancel != nil && !s.open) {
		stale := len(s.feed) > 0
		s.feed = nil
		fn := s.onFeed
		s.mu.Unlock()

		s.logger.Debug("board closed during refresh, result dropped", "messages", len(feed))
		if stale && fn != nil {
			fn(nil)
		}
		return nil
	}
	s.feed = feed
	s.refreshes++
	fn := s.onFeed
	s.mu.Unlock()

	s.logger.Debug("board refreshed", "messages", len(feed))
	if fn != nil {
		fn(slices.Clone(feed))
	}
	return nil
}

// React resonates with the displayed message identified by ref and
// updates the displayed copy. Synthetic increments never leave the session.
func (s *Session) React(ctx context.Context, ref core.MessageRef) (core.BoardMessage, bool, error) {
	s.mu.Lock()
	i := slices.IndexFunc(s.feed, func(m core.BoardMessage) bool { return m.Ref() == ref })
	if i < 0 {
		s.mu.Unlock()
		return core.BoardMessage{}, false, fmt.Errorf("%w: %s", core.ErrNotFound, ref)
	}
	msg := s.feed[i]
	s.mu.Unlock()

	updated, changed, err := s.board.ReactToMessage(ctx, msg)
	if err != nil {
		return msg, false, err
	}

	s.mu.Lock()
	// The feed may have been replaced meanwhile; patch whatever copy is shown.
	if j := slices.IndexFunc(s.feed, func(m core.BoardMessage) bool { return m.Ref() == ref }); j >= 0 {
		s.feed[j] = updated
	}
	feed := slices.Clone(s.feed)
	fn := s.onFeed
	s.mu.Unlock()

	if changed && fn != nil {
		fn(feed)
	}
	return updated, changed, nil
}

// spawn runs fn as a tracked task.
func (s *Session) spawn(ctx context.Context, name string, fn func(context.Context) error) {
	s.wg.Add(1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer s.wg.Done()
		return fn(ctx)
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("plaza task failed", "task", name, "error", err)
	}))
}

// checkWindow samples the window and fires callbacks on a transition.
func (s *Session) checkWindow() (open, changed bool) {
	open = s.board.IsBoardOpen()

	s.mu.Lock()
	changed = open != s.open
	s.open = open
	var cleared bool
	if changed && !open && len(s.feed) > 0 {
		s.feed = nil
		cleared = true
	}
	onState, onFeed := s.onState, s.onFeed
	s.mu.Unlock()

	if changed {
		s.logger.Info("plaza window changed", "open", open)
		if onState != nil {
			onState(open)
		}
	}
	if cleared && onFeed != nil {
		onFeed(nil)
	}
	return open, changed
}

// wake asks the refresh task for an immediate refresh.
func (s *Session) wake() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Session) windowLoop(ctx context.Context) error {
	t := time.NewTicker(s.tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if open, changed := s.checkWindow(); open && changed {
				s.wake()
			}
		}
	}
}

// refreshLoop is the only caller of the periodic refresh, so refreshes
// never overlap each other.
func (s *Session) refreshLoop(ctx context.Context) error {
	t := time.NewTicker(s.refresh)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		case <-s.kick:
		}
		if !s.IsOpen() {
			continue
		}
		if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("board refresh failed", "error", err)
		}
	}
}

func (s *Session) startWatch(ctx context.Context) error {
	events, err := s.board.Watch(ctx, core.Board.Key())
	if err != nil {
		return err
	}
	src := lcsource.NewSource(events, core.Board.Key())
	if err := src.Start(ctx); err != nil {
		return err
	}

	s.spawn(ctx, "watch", func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-src.Events():
				if !ok {
					return nil
				}
				s.logger.Debug("board changed externally", "event", e.String())
				s.wake()
			}
		}
	})
	return nil
}

// SessionState exposes internal state for observability.
type SessionState struct {
	Open      bool          `json:"open"`
	Running   bool          `json:"running"`
	Displayed int           `json:"displayed"`
	Refreshes int           `json:"refreshes"`
	Tick      time.Duration `json:"tick"`
	Refresh   time.Duration `json:"refresh"`
}

// State implements introspection.Introspectable.
func (s *Session) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionState{
		Open:      s.open,
		Running:   s.cancel != nil && !s.stopped,
		Displayed: len(s.feed),
		Refreshes: s.refreshes,
		Tick:      s.tick,
		Refresh:   s.refresh,
	}
}

// ComponentType implements introspection.Component.
func (s *Session) ComponentType() string {
	return "plaza"
}

var _ introspection.Introspectable = (*Session)(nil)
var _ introspection.Component = (*Session)(nil)
