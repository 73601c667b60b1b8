package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aretw0/dusk/pkg/core"
	"github.com/aretw0/dusk/pkg/metrics"
)

// ListEntries returns the journal entries in insertion order.
func (s *Store) ListEntries(ctx context.Context) []core.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return list[core.JournalEntry](ctx, s, core.Journal)
}

// ListMessages returns the board messages in insertion order.
func (s *Store) ListMessages(ctx context.Context) []core.BoardMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return list[core.BoardMessage](ctx, s, core.Board)
}

// AppendEntry archives a journal entry. Content is trimmed and must not be empty.
func (s *Store) AppendEntry(ctx context.Context, content string) (core.JournalEntry, error) {
	text, err := s.validate(content, 0)
	if err != nil {
		return core.JournalEntry{}, err
	}

	id, err := s.newID()
	if err != nil {
		return core.JournalEntry{}, fmt.Errorf("generate id: %w", err)
	}

	entry := core.JournalEntry{
		ID:         id,
		Content:    text,
		CreatedAt:  s.now(),
		IsArchived: true,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := read[core.JournalEntry](ctx, s, core.Journal)
	if err != nil {
		return core.JournalEntry{}, err
	}
	entries = append(entries, entry)
	if err := write(ctx, s, core.Journal, entries); err != nil {
		return core.JournalEntry{}, err
	}

	s.metrics.Appended(core.Journal.Key())
	s.logger.Debug("journal entry archived", "id", entry.ID)
	return entry, nil
}

// AppendMessage posts a board message. Content is trimmed, must not be
// empty and must fit core.MaxMessageLength. After the append only the
// newest messages up to the board capacity are kept.
func (s *Store) AppendMessage(ctx context.Context, content string) (core.BoardMessage, error) {
	text, err := s.validate(content, core.MaxMessageLength)
	if err != nil {
		return core.BoardMessage{}, err
	}

	id, err := s.newID()
	if err != nil {
		return core.BoardMessage{}, fmt.Errorf("generate id: %w", err)
	}

	msg := core.BoardMessage{
		ID:        id,
		Content:   text,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msgs, err := read[core.BoardMessage](ctx, s, core.Board)
	if err != nil {
		return core.BoardMessage{}, err
	}
	msgs = append(msgs, msg)
	if evicted := len(msgs) - s.capacity; evicted > 0 {
		msgs = msgs[evicted:]
		s.logger.Debug("board over capacity, oldest evicted", "evicted", evicted, "capacity", s.capacity)
	}
	if err := write(ctx, s, core.Board, msgs); err != nil {
		return core.BoardMessage{}, err
	}

	s.metrics.Appended(core.Board.Key())
	s.logger.Debug("board message posted", "id", msg.ID)
	return msg, nil
}

// validate trims content and checks it. limit <= 0 disables the length check.
func (s *Store) validate(content string, limit int) (string, error) {
	text := strings.TrimSpace(content)
	if text == "" {
		s.metrics.Rejected(metrics.ReasonEmpty)
		return "", core.ErrEmptyContent
	}
	if limit > 0 && utf8.RuneCountInString(text) > limit {
		s.metrics.Rejected(metrics.ReasonTooLong)
		return "", fmt.Errorf("%w: %d > %d characters", core.ErrContentTooLong, utf8.RuneCountInString(text), limit)
	}
	return text, nil
}

// RemoveByID drops the record with id from c. Unknown ids succeed.
func (s *Store) RemoveByID(ctx context.Context, c core.Collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch c {
	case core.Journal:
		return removeByID[core.JournalEntry](ctx, s, c, id)
	case core.Board:
		return removeByID[core.BoardMessage](ctx, s, c, id)
	default:
		return fmt.Errorf("collection %q does not hold records", c)
	}
}

// PruneOlderThan drops records whose createdAt precedes now-horizon.
// A record exactly at the boundary is kept. It returns how many were removed.
func (s *Store) PruneOlderThan(ctx context.Context, c core.Collection, horizon time.Duration) (int, error) {
	if horizon <= 0 {
		return 0, fmt.Errorf("prune horizon must be positive, got %s", horizon)
	}
	cutoff := s.now().Add(-horizon)

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		removed int
		err     error
	)
	switch c {
	case core.Journal:
		removed, err = pruneBefore[core.JournalEntry](ctx, s, c, cutoff)
	case core.Board:
		removed, err = pruneBefore[core.BoardMessage](ctx, s, c, cutoff)
	default:
		return 0, fmt.Errorf("collection %q does not hold records", c)
	}
	if err != nil {
		return 0, err
	}

	if c == core.Board {
		s.metrics.Pruned(removed)
	}
	return removed, nil
}

// UpdateMessage applies fn to the stored board message with id and persists it.
// The viewer-local HasResonated flag is never written.
func (s *Store) UpdateMessage(ctx context.Context, id string, fn func(*core.BoardMessage)) (core.BoardMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs, err := read[core.BoardMessage](ctx, s, core.Board)
	if err != nil {
		return core.BoardMessage{}, err
	}

	idx := -1
	for i := range msgs {
		if msgs[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return core.BoardMessage{}, fmt.Errorf("%w: board message %s", core.ErrNotFound, id)
	}

	updated := msgs[idx]
	fn(&updated)
	updated.ID = id
	updated.Origin = core.OriginPersisted
	if updated.ResonanceCount < msgs[idx].ResonanceCount {
		updated.ResonanceCount = msgs[idx].ResonanceCount
	}

	stored := updated
	stored.HasResonated = false
	msgs[idx] = stored
	if err := write(ctx, s, core.Board, msgs); err != nil {
		return core.BoardMessage{}, err
	}
	return updated, nil
}

// Export returns a versioned snapshot of the journal and the board.
func (s *Store) Export(ctx context.Context) (*core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := read[core.JournalEntry](ctx, s, core.Journal)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	msgs, err := read[core.BoardMessage](ctx, s, core.Board)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	return &core.Snapshot{
		JournalEntries: entries,
		BoardMessages:  msgs,
		ExportTime:     s.now(),
		Version:        core.SnapshotVersion,
	}, nil
}

// ClearAll removes every bucket, preferences included. Each key is
// attempted even when an earlier one fails.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, c := range core.Collections() {
		if err := s.storage.Remove(ctx, c.Key()); err != nil {
			s.fault("remove", c, err)
			errs = append(errs, fmt.Errorf("remove %s: %w", c, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", core.ErrStorage, errors.Join(errs...))
	}

	s.logger.Info("all collections cleared")
	return nil
}

// Statistics summarizes both collections. Faults count as empty collections.
func (s *Store) Statistics(ctx context.Context) core.Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := list[core.JournalEntry](ctx, s, core.Journal)
	msgs := list[core.BoardMessage](ctx, s, core.Board)

	stats := core.Statistics{
		TotalEntries:  len(entries),
		TotalMessages: len(msgs),
	}
	for _, e := range entries {
		if e.CreatedAt.After(stats.LastActivity) {
			stats.LastActivity = e.CreatedAt
		}
	}
	for _, m := range msgs {
		stats.TotalResonances += m.ResonanceCount
		if m.CreatedAt.After(stats.LastActivity) {
			stats.LastActivity = m.CreatedAt
		}
	}
	return stats
}
