package model

import "time"

// Message roles. Exactly two participants; system/tool turns never reach
// this service.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is one conversation thread owned by a user.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message is a single turn inside a session. Ordering is the append order;
// content is opaque to the service.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SessionSummary is the list-view projection of a session: no messages,
// but a short preview derived from the last turn.
type SessionSummary struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Preview   *string   `json:"preview,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Memory is a distilled fact scoped to a user and optionally to a session.
// Memories outlive sessions; deleting a session never touches them.
type Memory struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	SessionID  *string   `json:"sessionId,omitempty"`
	Content    string    `json:"content"`
	Importance float64   `json:"importance"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
}
