package services

import (
	"context"
	"fmt"

	"github.com/codecoach/sessiond/internal/events"
	"github.com/codecoach/sessiond/internal/model"
	"github.com/codecoach/sessiond/internal/store"
)

// MemoryService orchestrates memory lifecycle over the memory store.
// Memories are immutable after insert; a change is delete-and-reinsert.
type MemoryService struct {
	store store.Store
	bus   *events.Bus
}

func NewMemoryService(s store.Store, bus *events.Bus) *MemoryService {
	return &MemoryService{store: s, bus: bus}
}

// InsertMemory stores a distilled fact supplied by the summarizer. The
// importance score is display metadata supplied by the caller; values outside
// [0,1] are rejected rather than clamped so a broken extractor is surfaced.
func (s *MemoryService) InsertMemory(ctx context.Context, m *model.Memory) (*model.Memory, error) {
	if m.Importance < 0 || m.Importance > 1 {
		return nil, fmt.Errorf("importance %v out of range [0,1]: %w", m.Importance, model.ErrInvalidInput)
	}
	out, err := s.store.Memories().Insert(ctx, m)
	if err != nil {
		return nil, err
	}
	if s.bus != nil {
		s.bus.Publish(events.Event{Kind: events.KindMemoryInserted, UserID: out.UserID, MemoryID: out.ID})
	}
	return out, nil
}

func (s *MemoryService) ListMemories(ctx context.Context, userID string, sessionID *string) ([]*model.Memory, error) {
	return s.store.Memories().ListByScope(ctx, userID, sessionID)
}

func (s *MemoryService) DeleteMemory(ctx context.Context, userID, memoryID string) error {
	return s.store.Memories().DeleteOne(ctx, userID, memoryID)
}

// ClearMemories removes every memory for the user as one store operation:
// either all matching rows go, or the fault is returned with none removed.
func (s *MemoryService) ClearMemories(ctx context.Context, userID string) (int64, error) {
	return s.store.Memories().ClearAll(ctx, userID)
}
