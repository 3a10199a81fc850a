package services

import (
	"context"
	"errors"
	"testing"

	"github.com/codecoach/sessiond/internal/events"
	"github.com/codecoach/sessiond/internal/model"
)

func TestMemoryService_ImportanceRange(t *testing.T) {
	svc := NewMemoryService(newFakeStore(), nil)
	ctx := context.Background()

	for _, bad := range []float64{-0.1, 1.01, 2} {
		_, err := svc.InsertMemory(ctx, &model.Memory{UserID: "alice", Content: "x", Importance: bad, Type: "fact"})
		if !errors.Is(err, model.ErrInvalidInput) {
			t.Fatalf("importance %v: want ErrInvalidInput, got %v", bad, err)
		}
	}

	for _, ok := range []float64{0, 0.5, 1} {
		if _, err := svc.InsertMemory(ctx, &model.Memory{UserID: "alice", Content: "x", Importance: ok, Type: "fact"}); err != nil {
			t.Fatalf("importance %v: unexpected error %v", ok, err)
		}
	}
}

func TestMemoryService_InsertPublishesEvent(t *testing.T) {
	bus := events.NewBus(4)
	svc := NewMemoryService(newFakeStore(), bus)
	ctx := context.Background()

	out, err := svc.InsertMemory(ctx, &model.Memory{UserID: "alice", Content: "likes DP", Importance: 0.8, Type: "preference"})
	if err != nil {
		t.Fatalf("InsertMemory: %v", err)
	}

	select {
	case evt := <-bus.Subscribe():
		if evt.Kind != events.KindMemoryInserted || evt.MemoryID != out.ID || evt.UserID != "alice" {
			t.Fatalf("unexpected event: %+v", evt)
		}
	default:
		t.Fatalf("no event published")
	}
}

func TestMemoryService_ClearReportsCount(t *testing.T) {
	svc := NewMemoryService(newFakeStore(), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.InsertMemory(ctx, &model.Memory{UserID: "alice", Content: "x", Importance: 0.5, Type: "fact"}); err != nil {
			t.Fatalf("InsertMemory: %v", err)
		}
	}
	if _, err := svc.InsertMemory(ctx, &model.Memory{UserID: "bob", Content: "y", Importance: 0.5, Type: "fact"}); err != nil {
		t.Fatalf("InsertMemory: %v", err)
	}

	n, err := svc.ClearMemories(ctx, "alice")
	if err != nil || n != 3 {
		t.Fatalf("ClearMemories: n=%d err=%v", n, err)
	}

	left, err := svc.ListMemories(ctx, "bob", nil)
	if err != nil || len(left) != 1 {
		t.Fatalf("bob's memories touched: n=%d err=%v", len(left), err)
	}
}
