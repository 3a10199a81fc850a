package store

import (
	"context"

	"github.com/codecoach/sessiond/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (sqlite, postgres).
// Sessions and Memories share no entities; implementations must never
// cascade between the two.
type Store interface {
	Sessions() Sessions
	Memories() Memories
}

// Sessions owns all Session and Message data.
type Sessions interface {
	// Create persists a new session with an empty message log. The store
	// assigns the id and both timestamps.
	Create(ctx context.Context, userID, title string) (*model.Session, error)

	// Get returns the session with its full message log, or ErrNotFound.
	Get(ctx context.Context, sessionID string) (*model.Session, error)

	// ListByUser returns summaries ordered by updatedAt descending. Preview
	// carries the raw content of the last message; truncation is a service
	// concern.
	ListByUser(ctx context.Context, userID string) ([]*model.SessionSummary, error)

	// AppendMessage appends to the end of the log and bumps updatedAt in the
	// same transaction. Concurrent appends to one session are serialized by
	// the store; the returned session reflects the post-append state.
	AppendMessage(ctx context.Context, sessionID string, msg model.Message) (*model.Session, error)

	// Rename updates the title and bumps updatedAt.
	Rename(ctx context.Context, sessionID, title string) (*model.Session, error)

	// Delete removes the session and its message log atomically.
	Delete(ctx context.Context, sessionID string) error
}

// Memories owns all Memory data. Entries are immutable after insert.
type Memories interface {
	// Insert persists a new memory; the store assigns id and timestamp.
	Insert(ctx context.Context, m *model.Memory) (*model.Memory, error)

	// ListByScope returns memories for the user, newest first. With a
	// session id, the result is the union of session-scoped and user-global
	// entries; without one, every memory for the user.
	ListByScope(ctx context.Context, userID string, sessionID *string) ([]*model.Memory, error)

	// DeleteOne removes a single memory. A mismatched userID behaves exactly
	// like an unknown id: ErrNotFound, nothing deleted.
	DeleteOne(ctx context.Context, userID, memoryID string) error

	// ClearAll removes every memory owned by the user and reports the count.
	// Zero deletions is a valid outcome, not an error.
	ClearAll(ctx context.Context, userID string) (int64, error)
}
