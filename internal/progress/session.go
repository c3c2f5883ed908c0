// Package progress owns the lifecycle of bulk-activation progress sessions:
// create, update, query, subscribe, expire. Polling and streaming transports
// both read from the same session state, so a client may switch between them
// without losing information.
package progress

import (
	"context"
	"errors"
)

// Event types carried on a session snapshot.
const (
	TypeProgress = "progress"
	TypeComplete = "complete"
	TypeError    = "error"
)

var (
	// ErrSessionNotFound is returned once a session has expired, been purged,
	// or never existed. Callers must treat it as terminal.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists is returned when creating a session with an id that is
	// already live.
	ErrSessionExists = errors.New("session already exists")
)

// Snapshot is the externally visible state of a bulk-activation session.
type Snapshot struct {
	SessionID     string `json:"sessionId"`
	Total         int    `json:"total"`
	Activated     int    `json:"activated"`
	Skipped       int    `json:"skipped"`
	Failed        int    `json:"failed"`
	EmailsSent    int    `json:"emailsSent"`
	EmailsFailed  int    `json:"emailsFailed"`
	EmailsPending int    `json:"emailsPending"`
	Percentage    int    `json:"percentage"`
	Completed     bool   `json:"completed"`
	Type          string `json:"type"`
	Msg           string `json:"msg,omitempty"`
}

// Processed returns the number of leads with a recorded outcome.
func (s *Snapshot) Processed() int {
	return s.Activated + s.Skipped + s.Failed
}

// Terminal reports whether the session has reached a final state.
func (s *Snapshot) Terminal() bool {
	return s.Completed || s.Type == TypeError
}

// Store is the session-state abstraction shared by the bulk-activation job
// (writer) and the polling/streaming transports (readers).
type Store interface {
	// Create registers a new session with the given id and batch size.
	Create(ctx context.Context, sessionID string, total int) (Snapshot, error)
	// Update applies mutate to the current state under the store's write
	// lock, recomputes derived fields, and publishes the new snapshot to
	// subscribers. Counters and percentage never regress.
	Update(ctx context.Context, sessionID string, mutate func(*Snapshot)) (Snapshot, error)
	// Get returns the current snapshot, or ErrSessionNotFound after purge.
	Get(ctx context.Context, sessionID string) (Snapshot, error)
	// Subscribe returns a channel of snapshots, starting with the current
	// one. The channel is closed after the terminal snapshot is delivered
	// or when cancel is called.
	Subscribe(ctx context.Context, sessionID string) (<-chan Snapshot, func(), error)
}
