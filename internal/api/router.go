package api

import (
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/codecoach/sessiond/internal/api/recovery"
	"github.com/codecoach/sessiond/internal/events"
	"github.com/codecoach/sessiond/internal/services"
	"github.com/codecoach/sessiond/internal/store"
)

// NewRouter wires session and memory routes onto a fresh mux router.
// isHealthy backs the health endpoint; pass nil for handler-only tests.
func NewRouter(st store.Store, bus *events.Bus, log zerolog.Logger, isHealthy func() bool) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware(log))

	// Sessions
	sessionSvc := services.NewSessionService(st, bus)
	session := NewSessionHandler(sessionSvc)
	root.HandleFunc("/api/sessions", session.CreateSession).Methods("POST")
	root.HandleFunc("/api/sessions", session.ListSessions).Methods("GET")
	root.HandleFunc("/api/sessions/{sessionId}", session.GetSession).Methods("GET")
	root.HandleFunc("/api/sessions/{sessionId}", session.RenameSession).Methods("PATCH")
	root.HandleFunc("/api/sessions/{sessionId}", session.DeleteSession).Methods("DELETE")
	root.HandleFunc("/api/sessions/{sessionId}/messages", session.AppendMessage).Methods("POST")

	// Memories
	memorySvc := services.NewMemoryService(st, bus)
	memory := NewMemoryHandler(memorySvc)
	root.HandleFunc("/api/memories", memory.InsertMemory).Methods("POST")
	root.HandleFunc("/api/memories", memory.ListMemories).Methods("GET")
	root.HandleFunc("/api/memories", memory.ClearMemories).Methods("DELETE")
	root.HandleFunc("/api/memories/{memoryId}", memory.DeleteMemory).Methods("DELETE")

	// Health
	healthHandler := NewHealthHandler(isHealthy)
	root.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	return root
}
