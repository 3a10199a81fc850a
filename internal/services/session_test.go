package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/codecoach/sessiond/internal/events"
	"github.com/codecoach/sessiond/internal/model"
	"github.com/codecoach/sessiond/internal/store"
)

// --- Fakes ---

type fakeStore struct {
	sessions map[string]*model.Session
	memories []*model.Memory
	nextID   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[string]*model.Session{}}
}

func (f *fakeStore) Sessions() store.Sessions { return &fakeSessions{f} }
func (f *fakeStore) Memories() store.Memories { return &fakeMemories{f} }

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

type fakeSessions struct{ p *fakeStore }

func (s *fakeSessions) Create(_ context.Context, userID, title string) (*model.Session, error) {
	now := time.Now().UTC()
	sess := &model.Session{
		ID: s.p.id("sess"), UserID: userID, Title: title,
		Messages: []model.Message{}, CreatedAt: now, UpdatedAt: now,
	}
	s.p.sessions[sess.ID] = sess
	cp := *sess
	return &cp, nil
}

func (s *fakeSessions) Get(_ context.Context, sessionID string) (*model.Session, error) {
	sess, ok := s.p.sessions[sessionID]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *fakeSessions) ListByUser(_ context.Context, userID string) ([]*model.SessionSummary, error) {
	var out []*model.SessionSummary
	for _, sess := range s.p.sessions {
		if sess.UserID != userID {
			continue
		}
		sum := &model.SessionSummary{
			ID: sess.ID, UserID: userID, Title: sess.Title,
			CreatedAt: sess.CreatedAt, UpdatedAt: sess.UpdatedAt,
		}
		if n := len(sess.Messages); n > 0 {
			content := sess.Messages[n-1].Content
			sum.Preview = &content
		}
		out = append(out, sum)
	}
	return out, nil
}

func (s *fakeSessions) AppendMessage(_ context.Context, sessionID string, msg model.Message) (*model.Session, error) {
	sess, ok := s.p.sessions[sessionID]
	if !ok {
		return nil, model.ErrNotFound
	}
	sess.Messages = append(sess.Messages, msg)
	sess.UpdatedAt = time.Now().UTC()
	cp := *sess
	return &cp, nil
}

func (s *fakeSessions) Rename(_ context.Context, sessionID, title string) (*model.Session, error) {
	sess, ok := s.p.sessions[sessionID]
	if !ok {
		return nil, model.ErrNotFound
	}
	sess.Title = title
	sess.UpdatedAt = time.Now().UTC()
	cp := *sess
	return &cp, nil
}

func (s *fakeSessions) Delete(_ context.Context, sessionID string) error {
	if _, ok := s.p.sessions[sessionID]; !ok {
		return model.ErrNotFound
	}
	delete(s.p.sessions, sessionID)
	return nil
}

type fakeMemories struct{ p *fakeStore }

func (m *fakeMemories) Insert(_ context.Context, in *model.Memory) (*model.Memory, error) {
	out := *in
	out.ID = m.p.id("mem")
	out.Timestamp = time.Now().UTC()
	m.p.memories = append(m.p.memories, &out)
	cp := out
	return &cp, nil
}

func (m *fakeMemories) ListByScope(_ context.Context, userID string, sessionID *string) ([]*model.Memory, error) {
	var out []*model.Memory
	for _, mem := range m.p.memories {
		if mem.UserID != userID {
			continue
		}
		if sessionID != nil && mem.SessionID != nil && *mem.SessionID != *sessionID {
			continue
		}
		out = append(out, mem)
	}
	return out, nil
}

func (m *fakeMemories) DeleteOne(_ context.Context, userID, memoryID string) error {
	for i, mem := range m.p.memories {
		if mem.ID == memoryID && mem.UserID == userID {
			m.p.memories = append(m.p.memories[:i], m.p.memories[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}

func (m *fakeMemories) ClearAll(_ context.Context, userID string) (int64, error) {
	var kept []*model.Memory
	var n int64
	for _, mem := range m.p.memories {
		if mem.UserID == userID {
			n++
			continue
		}
		kept = append(kept, mem)
	}
	m.p.memories = kept
	return n, nil
}

// --- Tests ---

func TestSessionService_CreateDefaultTitle(t *testing.T) {
	svc := NewSessionService(newFakeStore(), nil)

	sess, err := svc.CreateSession(context.Background(), "alice", "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if sess.Title != DefaultTitle {
		t.Fatalf("want default title %q, got %q", DefaultTitle, sess.Title)
	}

	named, err := svc.CreateSession(context.Background(), "alice", "review my code")
	if err != nil || named.Title != "review my code" {
		t.Fatalf("explicit title lost: got=%+v err=%v", named, err)
	}
}

func TestSessionService_AutoTitleFromFirstUserMessage(t *testing.T) {
	fs := newFakeStore()
	svc := NewSessionService(fs, nil)
	ctx := context.Background()

	sess, _ := svc.CreateSession(ctx, "alice", "")

	long := strings.Repeat("x", 40)
	out, err := svc.AppendMessage(ctx, sess.ID, model.RoleUser, long)
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	want := strings.Repeat("x", autoTitleMaxRunes) + "..."
	if out.Title != want {
		t.Fatalf("auto title: want %q, got %q", want, out.Title)
	}

	// A later user message must not retitle.
	out, err = svc.AppendMessage(ctx, sess.ID, model.RoleUser, "something else")
	if err != nil || out.Title != want {
		t.Fatalf("title changed again: got=%q err=%v", out.Title, err)
	}
}

func TestSessionService_NoAutoTitleForAssistant(t *testing.T) {
	fs := newFakeStore()
	svc := NewSessionService(fs, nil)
	ctx := context.Background()

	sess, _ := svc.CreateSession(ctx, "alice", "")
	out, err := svc.AppendMessage(ctx, sess.ID, model.RoleAssistant, "hello there")
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if out.Title != DefaultTitle {
		t.Fatalf("assistant message retitled session: %q", out.Title)
	}
}

func TestSessionService_ListTruncatesPreview(t *testing.T) {
	fs := newFakeStore()
	svc := NewSessionService(fs, nil)
	ctx := context.Background()

	sess, _ := svc.CreateSession(ctx, "alice", "dp")
	long := strings.Repeat("y", 80)
	if _, err := svc.AppendMessage(ctx, sess.ID, model.RoleUser, long); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	sums, err := svc.ListSessions(ctx, "alice")
	if err != nil || len(sums) != 1 {
		t.Fatalf("ListSessions: n=%d err=%v", len(sums), err)
	}
	want := strings.Repeat("y", previewMaxRunes) + "..."
	if sums[0].Preview == nil || *sums[0].Preview != want {
		t.Fatalf("preview: want %q, got %v", want, sums[0].Preview)
	}
}

func TestSessionService_AppendPublishesEvent(t *testing.T) {
	fs := newFakeStore()
	bus := events.NewBus(4)
	svc := NewSessionService(fs, bus)
	ctx := context.Background()

	sess, _ := svc.CreateSession(ctx, "alice", "dp")
	if _, err := svc.AppendMessage(ctx, sess.ID, model.RoleUser, "hi"); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	select {
	case evt := <-bus.Subscribe():
		if evt.Kind != events.KindMessageAppended || evt.SessionID != sess.ID || evt.UserID != "alice" {
			t.Fatalf("unexpected event: %+v", evt)
		}
	default:
		t.Fatalf("no event published")
	}
}

func TestSessionService_UnknownSession(t *testing.T) {
	svc := NewSessionService(newFakeStore(), nil)
	ctx := context.Background()

	if _, err := svc.AppendMessage(ctx, "nope", model.RoleUser, "hi"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := svc.DeleteSession(ctx, "nope"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
