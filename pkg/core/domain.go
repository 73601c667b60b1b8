// Package core holds the domain types and contracts shared by the dusk components.
package core

import (
	"fmt"
	"time"
)

// Collection names one of the persisted buckets.
// The value doubles as the storage key.
type Collection string

const (
	Journal     Collection = "echo-archives"
	Board       Collection = "twilight-messages"
	Preferences Collection = "user-preferences"
)

// Key returns the storage key of the collection.
func (c Collection) Key() string {
	return string(c)
}

// Collections lists every bucket owned by the store, in wipe order.
func Collections() []Collection {
	return []Collection{Journal, Board, Preferences}
}

// MaxMessageLength is the board limit, counted in runes after trimming.
const MaxMessageLength = 50

// SnapshotVersion is stamped on every export.
const SnapshotVersion = "1.0"

// JournalEntry is a private, archived piece of writing.
// It is never mutated after creation.
type JournalEntry struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	IsArchived bool      `json:"isArchived"`
}

func (e JournalEntry) RecordID() string     { return e.ID }
func (e JournalEntry) Timestamp() time.Time { return e.CreatedAt }

// Origin tells persisted board messages apart from generated filler.
type Origin uint8

const (
	OriginPersisted Origin = iota
	OriginSynthetic
)

func (o Origin) String() string {
	switch o {
	case OriginPersisted:
		return "persisted"
	case OriginSynthetic:
		return "synthetic"
	default:
		return fmt.Sprintf("origin(%d)", uint8(o))
	}
}

// BoardMessage is an anonymous message on the plaza.
//
// HasResonated is viewer-local: the store never persists true, the
// resonance tracker sets it on the copies it hands back to its viewer.
// Origin is not serialized, so anything decoded from storage is persisted.
type BoardMessage struct {
	ID             string    `json:"id"`
	Content        string    `json:"content"`
	ResonanceCount int       `json:"resonanceCount"`
	CreatedAt      time.Time `json:"createdAt"`
	HasResonated   bool      `json:"hasResonated"`
	Origin         Origin    `json:"-"`
}

func (m BoardMessage) RecordID() string     { return m.ID }
func (m BoardMessage) Timestamp() time.Time { return m.CreatedAt }

// Ref returns the tagged reference of the message.
func (m BoardMessage) Ref() MessageRef {
	return MessageRef{Origin: m.Origin, ID: m.ID}
}

// MessageRef identifies a board message together with where it lives.
type MessageRef struct {
	Origin Origin
	ID     string
}

// Real references a message held by the record store.
func Real(id string) MessageRef {
	return MessageRef{Origin: OriginPersisted, ID: id}
}

// Synthetic references a generated filler message.
func Synthetic(id string) MessageRef {
	return MessageRef{Origin: OriginSynthetic, ID: id}
}

// IsSynthetic reports whether the reference points at filler content.
func (r MessageRef) IsSynthetic() bool {
	return r.Origin == OriginSynthetic
}

func (r MessageRef) String() string {
	return r.Origin.String() + ":" + r.ID
}

// Snapshot is the versioned export of every collection.
type Snapshot struct {
	JournalEntries []JournalEntry `json:"journalEntries"`
	BoardMessages  []BoardMessage `json:"boardMessages"`
	ExportTime     time.Time      `json:"exportTime"`
	Version        string         `json:"version"`
}

// Statistics summarizes the persisted collections.
type Statistics struct {
	TotalEntries    int       `json:"totalEntries"`
	TotalMessages   int       `json:"totalMessages"`
	TotalResonances int       `json:"totalResonances"`
	LastActivity    time.Time `json:"lastActivity"`
}

// EventType represents the kind of change seen on a storage key.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a storage key.
type Event struct {
	Type      EventType
	Key       string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.Key)
}
