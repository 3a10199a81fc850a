package validate

import (
	"errors"
	"testing"

	"github.com/codecoach/sessiond/internal/model"
)

func TestUserID(t *testing.T) {
	if err := UserID("alice"); err != nil {
		t.Fatalf("valid userId rejected: %v", err)
	}
	if err := UserID(""); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("empty userId: want ErrInvalidInput, got %v", err)
	}
}

func TestRole(t *testing.T) {
	for _, ok := range []string{model.RoleUser, model.RoleAssistant} {
		if err := Role(ok); err != nil {
			t.Fatalf("role %q rejected: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "system", "tool", "USER"} {
		if err := Role(bad); !errors.Is(err, model.ErrInvalidInput) {
			t.Fatalf("role %q: want ErrInvalidInput, got %v", bad, err)
		}
	}
}

func TestInsertMemory(t *testing.T) {
	if err := InsertMemory("alice", "likes DP", "preference"); err != nil {
		t.Fatalf("valid insert rejected: %v", err)
	}
	if err := InsertMemory("", "x", "fact"); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("missing userId accepted")
	}
	if err := InsertMemory("alice", "", "fact"); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("missing content accepted")
	}
	if err := InsertMemory("alice", "x", ""); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("missing type accepted")
	}
}
