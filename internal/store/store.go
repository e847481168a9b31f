// Package store owns persistence for finalized utterances. The normalizer
// never touches storage except through the TranscriptStore interface.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a conversation has no persisted utterances.
var ErrNotFound = errors.New("store: conversation not found")

// Utterance is one durable row: the result of normalizing a terminal event.
type Utterance struct {
	RequestID    string    `json:"request_id"`
	Transcript   string    `json:"transcript"`
	ChannelIndex int       `json:"channel_index"`
	NumChannels  int       `json:"num_channels"`
	CreatedAt    time.Time `json:"created_at"`
	Duration     float64   `json:"duration"`
}

// Conversation is a distinct request ID with its earliest utterance timestamp.
type Conversation struct {
	RequestID string    `json:"request_id"`
	StartedAt time.Time `json:"started_at"`
}

// TranscriptStore is the persistence contract consumed by the ingestion
// handler (writes) and the dashboard (reads).
type TranscriptStore interface {
	// Upsert inserts or replaces the row for u.RequestID. Replacement is
	// whole-row: created_at defaults to the current time again on replace.
	// Safe under concurrent callers; upserts for the same key are serialized
	// by the storage engine (last writer wins, no merge).
	Upsert(ctx context.Context, u Utterance) error

	// ListConversations returns one entry per distinct request ID, ordered by
	// earliest created_at ascending.
	ListConversations(ctx context.Context) ([]Conversation, error)

	// ListUtterances returns all rows for a conversation ordered by created_at
	// ascending, or ErrNotFound when none exist.
	ListUtterances(ctx context.Context, requestID string) ([]Utterance, error)

	// Ping verifies the underlying storage is reachable.
	Ping(ctx context.Context) error

	Close() error
}
