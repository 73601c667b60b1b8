package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// StorageState exposes internal state for observability.
type StorageState struct {
	Path          string     `json:"path"`
	ReadOnly      bool       `json:"read_only"`
	Closed        bool       `json:"closed"`
	Watchers      int        `json:"watchers"`
	WriteFailures int        `json:"write_failures"`
	Suppressed    int        `json:"suppressed_events"`
	LastWrite     *time.Time `json:"last_write,omitempty"`
	LastEvent     *time.Time `json:"last_event,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Storage) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StorageState{
		Path:          s.Path,
		ReadOnly:      s.config.ReadOnly,
		Closed:        s.closed,
		Watchers:      s.watchers,
		WriteFailures: s.writeFailures,
		Suppressed:    s.suppressed,
		LastWrite:     s.lastWrite,
		LastEvent:     s.lastEvent,
	}
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "fs"
}

var _ introspection.Introspectable = (*Storage)(nil)
var _ introspection.Component = (*Storage)(nil)

func (s *Storage) setWatching(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers += delta
}

func (s *Storage) recordEvent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lastEvent = &now
}

func (s *Storage) recordSuppressed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppressed++
}
