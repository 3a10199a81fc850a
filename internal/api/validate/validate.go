package validate

import (
	"fmt"

	"github.com/codecoach/sessiond/internal/model"
)

// UserID rejects missing user identifiers. The id itself is opaque and
// trusted as given; only presence is enforced here.
func UserID(v string) error {
	if v == "" {
		return fmt.Errorf("userId is required: %w", model.ErrInvalidInput)
	}
	return nil
}

// Role ensures the message role names one of the two conversation
// participants.
func Role(v string) error {
	switch v {
	case model.RoleUser, model.RoleAssistant:
		return nil
	default:
		return fmt.Errorf("role must be %q or %q: %w", model.RoleUser, model.RoleAssistant, model.ErrInvalidInput)
	}
}

// NonEmpty rejects an empty required field.
func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required: %w", field, model.ErrInvalidInput)
	}
	return nil
}

// InsertMemory validates the summarizer-supplied fields of a memory insert.
// Importance range enforcement lives in the memory service, close to the
// store, so in-process callers hit the same rule.
func InsertMemory(userID, content, memType string) error {
	if err := UserID(userID); err != nil {
		return err
	}
	if err := NonEmpty("content", content); err != nil {
		return err
	}
	if err := NonEmpty("type", memType); err != nil {
		return err
	}
	return nil
}
