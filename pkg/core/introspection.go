package core

import (
	"time"

	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	RecordStoreType string        `json:"record_store_type"`
	BoardOpen       bool          `json:"board_open"`
	NextOpen        time.Time     `json:"next_open"`
	FillerCount     int           `json:"filler_count"`
	FeedLimit       int           `json:"feed_limit"`
	Retention       time.Duration `json:"retention"`
	Watchable       bool          `json:"watchable"`
	Closed          bool          `json:"closed"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	storeType := "unknown"
	if s.records != nil {
		storeType = "records"
		// Try to get component type if the store implements introspection.Component
		if comp, ok := s.records.(introspection.Component); ok {
			storeType = comp.ComponentType()
		}
	}

	now := s.clock.Now()
	return ServiceState{
		RecordStoreType: storeType,
		BoardOpen:       s.oracle.IsOpen(now),
		NextOpen:        s.oracle.NextOpen(now),
		FillerCount:     s.fillerCount,
		FeedLimit:       s.feedLimit,
		Retention:       s.retention,
		Watchable:       s.events != nil,
		Closed:          s.closed,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
