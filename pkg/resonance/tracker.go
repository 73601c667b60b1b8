// Package resonance applies at-most-once-per-viewer reactions to board messages.
//
// A Tracker is one viewer session. The shared counter lives in the record
// store; which messages this viewer already resonated with lives only in
// the Tracker and vanishes with it.
package resonance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/dusk/pkg/core"
	"github.com/aretw0/dusk/pkg/metrics"
)

// MessageUpdater is the part of the record store the tracker writes through.
type MessageUpdater interface {
	UpdateMessage(ctx context.Context, id string, fn func(*core.BoardMessage)) (core.BoardMessage, error)
}

// Tracker deduplicates resonances for a single viewer.
type Tracker struct {
	mu      sync.Mutex
	seen    map[core.MessageRef]struct{}
	store   MessageUpdater
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the tracker logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = l
	}
}

// WithMetrics records applied resonances.
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}

// NewTracker creates a tracker for a fresh viewer session.
func NewTracker(store MessageUpdater, opts ...Option) *Tracker {
	t := &Tracker{
		seen:  make(map[core.MessageRef]struct{}),
		store: store,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.New(slog.DiscardHandler)
	}
	return t
}

// React resonates with msg once. It returns the message as this viewer
// should now display it and whether the counter moved.
//
// Persisted messages are incremented in the store; synthetic ones only in
// the returned copy. A failed store write leaves the viewer free to retry.
func (t *Tracker) React(ctx context.Context, msg core.BoardMessage) (core.BoardMessage, bool, error) {
	ref := msg.Ref()

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[ref]; ok {
		msg.HasResonated = true
		return msg, false, nil
	}

	var updated core.BoardMessage
	if ref.IsSynthetic() {
		updated = msg
		updated.ResonanceCount++
	} else {
		var err error
		updated, err = t.store.UpdateMessage(ctx, ref.ID, func(m *core.BoardMessage) {
			m.ResonanceCount++
		})
		if err != nil {
			t.logger.Warn("resonance not recorded", "ref", ref.String(), "error", err)
			return msg, false, fmt.Errorf("resonate with %s: %w", ref, err)
		}
	}

	updated.HasResonated = true
	t.seen[ref] = struct{}{}
	t.metrics.Resonated(ref.Origin.String())
	t.logger.Debug("resonated", "ref", ref.String(), "count", updated.ResonanceCount)
	return updated, true, nil
}

// HasResonated reports whether this viewer already resonated with ref.
func (t *Tracker) HasResonated(ref core.MessageRef) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.seen[ref]
	return ok
}

// Annotate sets HasResonated on each message from this viewer's history.
// The input slice is not modified.
func (t *Tracker) Annotate(msgs []core.BoardMessage) []core.BoardMessage {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]core.BoardMessage, len(msgs))
	for i, m := range msgs {
		_, m.HasResonated = t.seen[m.Ref()]
		out[i] = m
	}
	return out
}

// Forget clears the viewer history, as a new session would.
func (t *Tracker) Forget() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.seen)
}

var _ core.Reactor = (*Tracker)(nil)
