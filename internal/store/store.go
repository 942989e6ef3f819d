package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Record is a persisted transcript line.
type Record struct {
	Seq       int64
	ID        string
	Channel   string // "public" or "@peer"
	Kind      string
	From      string
	To        string
	Content   string
	Self      bool
	CreatedAt time.Time
}

// TranscriptStore persists routed entries per channel.
type TranscriptStore interface {
	// SaveRecord appends a record; Seq is filled in on success.
	SaveRecord(ctx context.Context, rec *Record) error

	// ListRecords returns up to limit most recent records of a channel, oldest first.
	ListRecords(ctx context.Context, channel string, limit int) ([]*Record, error)

	// GetRecord retrieves a record by entry ID.
	GetRecord(ctx context.Context, id string) (*Record, error)

	// CountRecords returns how many records a channel holds.
	CountRecords(ctx context.Context, channel string) (int, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	TranscriptStore

	// Close closes the underlying database connection.
	Close() error
}
