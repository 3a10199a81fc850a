package services

import (
	"context"

	"github.com/codecoach/sessiond/internal/events"
	"github.com/codecoach/sessiond/internal/model"
	"github.com/codecoach/sessiond/internal/store"
)

// DefaultTitle is assigned when a session is created without an explicit title.
const DefaultTitle = "New Chat"

const (
	previewMaxRunes   = 50
	autoTitleMaxRunes = 30
)

// SessionService orchestrates session lifecycle over the session store.
// Title and preview policy lives here; the store is pure persistence.
type SessionService struct {
	store store.Store
	bus   *events.Bus
}

func NewSessionService(s store.Store, bus *events.Bus) *SessionService {
	return &SessionService{store: s, bus: bus}
}

func (s *SessionService) CreateSession(ctx context.Context, userID, title string) (*model.Session, error) {
	if title == "" {
		title = DefaultTitle
	}
	return s.store.Sessions().Create(ctx, userID, title)
}

func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	return s.store.Sessions().Get(ctx, sessionID)
}

// ListSessions returns summaries most-recently-active first, with previews
// truncated for display.
func (s *SessionService) ListSessions(ctx context.Context, userID string) ([]*model.SessionSummary, error) {
	sums, err := s.store.Sessions().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, sum := range sums {
		if sum.Preview != nil {
			p := truncate(*sum.Preview, previewMaxRunes)
			sum.Preview = &p
		}
	}
	return sums, nil
}

// AppendMessage appends a turn and applies the auto-title rule: the first
// user message names a session that still carries the default title.
func (s *SessionService) AppendMessage(ctx context.Context, sessionID, role, content string) (*model.Session, error) {
	out, err := s.store.Sessions().AppendMessage(ctx, sessionID, model.Message{Role: role, Content: content})
	if err != nil {
		return nil, err
	}

	if role == model.RoleUser && out.Title == DefaultTitle && content != "" {
		title := truncate(content, autoTitleMaxRunes)
		if renamed, err := s.store.Sessions().Rename(ctx, sessionID, title); err == nil {
			out = renamed
		}
	}

	if s.bus != nil {
		s.bus.Publish(events.Event{Kind: events.KindMessageAppended, UserID: out.UserID, SessionID: sessionID})
	}
	return out, nil
}

func (s *SessionService) RenameSession(ctx context.Context, sessionID, title string) (*model.Session, error) {
	return s.store.Sessions().Rename(ctx, sessionID, title)
}

func (s *SessionService) DeleteSession(ctx context.Context, sessionID string) error {
	// Never cascades into memories: long-term memory outlives conversations.
	return s.store.Sessions().Delete(ctx, sessionID)
}

// truncate shortens v to max runes, appending "..." when anything was cut.
func truncate(v string, max int) string {
	runes := []rune(v)
	if len(runes) <= max {
		return v
	}
	return string(runes[:max]) + "..."
}
