package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/codecoach/sessiond/internal/model"
	"github.com/codecoach/sessiond/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("SessionLifecycle", func(t *testing.T) { sessionLifecycle(t, makeStore(t)) })
	t.Run("SessionRecencyOrder", func(t *testing.T) { sessionRecencyOrder(t, makeStore(t)) })
	t.Run("SessionConcurrentAppends", func(t *testing.T) { sessionConcurrentAppends(t, makeStore(t)) })
	t.Run("MemoryLifecycle", func(t *testing.T) { memoryLifecycle(t, makeStore(t)) })
	t.Run("MemoryScopeUnion", func(t *testing.T) { memoryScopeUnion(t, makeStore(t)) })
	t.Run("MemoryUserGuard", func(t *testing.T) { memoryUserGuard(t, makeStore(t)) })
	t.Run("StoresAreIndependent", func(t *testing.T) { storesAreIndependent(t, makeStore(t)) })
}

func sessionLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()

	sess, err := s.Sessions().Create(ctx, "alice", "New Chat")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.ID == "" || len(sess.Messages) != 0 {
		t.Fatalf("Create: unexpected session %+v", sess)
	}
	if sess.UpdatedAt.Before(sess.CreatedAt) {
		t.Fatalf("Create: updatedAt before createdAt")
	}

	got, err := s.Sessions().Get(ctx, sess.ID)
	if err != nil || got.Title != "New Chat" || got.UserID != "alice" {
		t.Fatalf("Get: got=%+v err=%v", got, err)
	}

	after, err := s.Sessions().AppendMessage(ctx, sess.ID, model.Message{Role: model.RoleUser, Content: "hi"})
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if len(after.Messages) != 1 || after.Messages[0].Content != "hi" {
		t.Fatalf("AppendMessage: messages=%+v", after.Messages)
	}
	if after.UpdatedAt.Before(sess.UpdatedAt) {
		t.Fatalf("AppendMessage: updatedAt not bumped")
	}

	after, err = s.Sessions().AppendMessage(ctx, sess.ID, model.Message{Role: model.RoleAssistant, Content: "hello"})
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	want := []model.Message{{Role: model.RoleUser, Content: "hi"}, {Role: model.RoleAssistant, Content: "hello"}}
	if len(after.Messages) != 2 || after.Messages[0] != want[0] || after.Messages[1] != want[1] {
		t.Fatalf("AppendMessage: order broken: %+v", after.Messages)
	}

	renamed, err := s.Sessions().Rename(ctx, sess.ID, "dp help")
	if err != nil || renamed.Title != "dp help" {
		t.Fatalf("Rename: got=%+v err=%v", renamed, err)
	}
	if len(renamed.Messages) != 2 {
		t.Fatalf("Rename: messages lost: %+v", renamed.Messages)
	}

	if err := s.Sessions().Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Sessions().Get(ctx, sess.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get after Delete: want ErrNotFound, got %v", err)
	}
	if err := s.Sessions().Delete(ctx, sess.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Delete twice: want ErrNotFound, got %v", err)
	}

	// Unknown ids everywhere
	if _, err := s.Sessions().Get(ctx, "nope"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get unknown: %v", err)
	}
	if _, err := s.Sessions().AppendMessage(ctx, "nope", model.Message{Role: model.RoleUser, Content: "x"}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Append unknown: %v", err)
	}
	if _, err := s.Sessions().Rename(ctx, "nope", "x"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Rename unknown: %v", err)
	}
}

func sessionRecencyOrder(t *testing.T, s store.Store) {
	ctx := context.Background()

	a, err := s.Sessions().Create(ctx, "alice", "A")
	if err != nil {
		t.Fatalf("Create A: %v", err)
	}
	b, err := s.Sessions().Create(ctx, "alice", "B")
	if err != nil {
		t.Fatalf("Create B: %v", err)
	}
	if _, err := s.Sessions().Create(ctx, "bob", "other user"); err != nil {
		t.Fatalf("Create bob: %v", err)
	}

	// Appending to A makes it most recent again.
	if _, err := s.Sessions().AppendMessage(ctx, a.ID, model.Message{Role: model.RoleUser, Content: "how do I solve this DP problem with a very long statement"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	sums, err := s.Sessions().ListByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("ListByUser: want 2, got %d", len(sums))
	}
	if sums[0].ID != a.ID || sums[1].ID != b.ID {
		t.Fatalf("ListByUser: want [A B], got [%s %s]", sums[0].ID, sums[1].ID)
	}
	if sums[0].Preview == nil || *sums[0].Preview == "" {
		t.Fatalf("ListByUser: missing preview for active session")
	}
	if sums[1].Preview != nil {
		t.Fatalf("ListByUser: preview for empty session should be absent")
	}
}

func sessionConcurrentAppends(t *testing.T, s store.Store) {
	ctx := context.Background()

	sess, err := s.Sessions().Create(ctx, "alice", "New Chat")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Sessions().AppendMessage(ctx, sess.ID, model.Message{
				Role:    model.RoleUser,
				Content: fmt.Sprintf("msg-%d", i),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent AppendMessage: %v", err)
		}
	}

	got, err := s.Sessions().Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Messages) != n {
		t.Fatalf("lost appends: want %d messages, got %d", n, len(got.Messages))
	}
	seen := make(map[string]bool, n)
	for _, m := range got.Messages {
		if seen[m.Content] {
			t.Fatalf("duplicate message %q", m.Content)
		}
		seen[m.Content] = true
	}
}

func memoryLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()

	m, err := s.Memories().Insert(ctx, &model.Memory{
		UserID:     "alice",
		Content:    "likes DP",
		Importance: 0.8,
		Type:       "preference",
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if m.ID == "" || m.Timestamp.IsZero() {
		t.Fatalf("Insert: id/timestamp not assigned: %+v", m)
	}

	list, err := s.Memories().ListByScope(ctx, "alice", nil)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByScope: n=%d err=%v", len(list), err)
	}
	got := list[0]
	if got.Content != "likes DP" || got.Importance != 0.8 || got.Type != "preference" || got.SessionID != nil {
		t.Fatalf("ListByScope: %+v", got)
	}

	if err := s.Memories().DeleteOne(ctx, "alice", m.ID); err != nil {
		t.Fatalf("DeleteOne: %v", err)
	}
	if err := s.Memories().DeleteOne(ctx, "alice", m.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("DeleteOne twice: want ErrNotFound, got %v", err)
	}

	// Clearing an empty set is fine.
	n, err := s.Memories().ClearAll(ctx, "alice")
	if err != nil || n != 0 {
		t.Fatalf("ClearAll empty: n=%d err=%v", n, err)
	}
}

func memoryScopeUnion(t *testing.T, s store.Store) {
	ctx := context.Background()
	sid := "sess-1"
	other := "sess-2"

	ins := func(sessionID *string, content string) {
		t.Helper()
		if _, err := s.Memories().Insert(ctx, &model.Memory{
			UserID: "alice", SessionID: sessionID, Content: content, Importance: 0.5, Type: "fact",
		}); err != nil {
			t.Fatalf("Insert %s: %v", content, err)
		}
	}
	ins(nil, "global")
	ins(&sid, "scoped")
	ins(&other, "other-session")
	if _, err := s.Memories().Insert(ctx, &model.Memory{UserID: "bob", Content: "bob-global", Importance: 0.5, Type: "fact"}); err != nil {
		t.Fatalf("Insert bob: %v", err)
	}

	scoped, err := s.Memories().ListByScope(ctx, "alice", &sid)
	if err != nil {
		t.Fatalf("ListByScope session: %v", err)
	}
	contents := map[string]bool{}
	for _, m := range scoped {
		contents[m.Content] = true
	}
	if len(scoped) != 2 || !contents["global"] || !contents["scoped"] {
		t.Fatalf("scope union broken: %v", contents)
	}

	all, err := s.Memories().ListByScope(ctx, "alice", nil)
	if err != nil || len(all) != 3 {
		t.Fatalf("ListByScope user: n=%d err=%v", len(all), err)
	}
	// Newest first, ties broken by insertion order.
	if all[0].Content != "other-session" || all[2].Content != "global" {
		t.Fatalf("ordering broken: [%s %s %s]", all[0].Content, all[1].Content, all[2].Content)
	}

	n, err := s.Memories().ClearAll(ctx, "alice")
	if err != nil || n != 3 {
		t.Fatalf("ClearAll: n=%d err=%v", n, err)
	}
	bobs, err := s.Memories().ListByScope(ctx, "bob", nil)
	if err != nil || len(bobs) != 1 {
		t.Fatalf("ClearAll leaked into bob: n=%d err=%v", len(bobs), err)
	}
}

func memoryUserGuard(t *testing.T, s store.Store) {
	ctx := context.Background()

	m, err := s.Memories().Insert(ctx, &model.Memory{UserID: "alice", Content: "secret", Importance: 0.9, Type: "fact"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	// Existing id, wrong user: indistinguishable from NotFound, nothing deleted.
	if err := s.Memories().DeleteOne(ctx, "mallory", m.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("cross-user delete: want ErrNotFound, got %v", err)
	}
	list, err := s.Memories().ListByScope(ctx, "alice", nil)
	if err != nil || len(list) != 1 {
		t.Fatalf("memory disappeared after guarded delete: n=%d err=%v", len(list), err)
	}
}

func storesAreIndependent(t *testing.T, s store.Store) {
	ctx := context.Background()

	sess, err := s.Sessions().Create(ctx, "alice", "New Chat")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Memories().Insert(ctx, &model.Memory{
		UserID: "alice", SessionID: &sess.ID, Content: "from this chat", Importance: 0.7, Type: "fact",
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	// Memories outlive sessions.
	if err := s.Sessions().Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete session: %v", err)
	}
	list, err := s.Memories().ListByScope(ctx, "alice", nil)
	if err != nil || len(list) != 1 {
		t.Fatalf("session delete cascaded into memories: n=%d err=%v", len(list), err)
	}

	// And sessions survive memory wipes.
	sess2, err := s.Sessions().Create(ctx, "alice", "New Chat")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Memories().ClearAll(ctx, "alice"); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if _, err := s.Sessions().Get(ctx, sess2.ID); err != nil {
		t.Fatalf("memory wipe cascaded into sessions: %v", err)
	}
}
