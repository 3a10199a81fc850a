package events

// Kind represents the type of domain event produced by the service layer.
type Kind string

const (
	KindMessageAppended Kind = "session_message_appended"
	KindMemoryInserted  Kind = "memory_inserted"
)

// Event carries the minimum data an in-process consumer (the summarizer)
// needs; full records are fetched back through the public API.
type Event struct {
	Kind      Kind
	UserID    string
	SessionID string
	MemoryID  string // present for KindMemoryInserted
}

// Bus is a lightweight in-process pub-sub implementation backed by a buffered channel.
type Bus struct {
	ch chan Event
}

// NewBus creates a bus with the given buffer size.
func NewBus(buffer int) *Bus {
	return &Bus{ch: make(chan Event, buffer)}
}

// Publish attempts to enqueue the event without blocking.
// Returns true if published, false if the buffer is full. Consumers are
// best-effort; a dropped event is acceptable.
func (b *Bus) Publish(evt Event) bool {
	select {
	case b.ch <- evt:
		return true
	default:
		return false
	}
}

// Subscribe returns a read-only channel for consumers.
func (b *Bus) Subscribe() <-chan Event {
	return b.ch
}
