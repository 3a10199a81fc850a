package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/codecoach/sessiond/internal/api/respond"
	"github.com/codecoach/sessiond/internal/api/validate"
	"github.com/codecoach/sessiond/internal/model"
	"github.com/codecoach/sessiond/internal/services"
)

type MemoryHandler struct {
	svc *services.MemoryService
}

func NewMemoryHandler(svc *services.MemoryService) *MemoryHandler {
	return &MemoryHandler{svc: svc}
}

// InsertMemory POST /api/memories
func (h *MemoryHandler) InsertMemory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID     string  `json:"userId"`
		SessionID  *string `json:"sessionId,omitempty"`
		Content    string  `json:"content"`
		Importance float64 `json:"importance"`
		Type       string  `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.InsertMemory(req.UserID, req.Content, req.Type); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	m := &model.Memory{
		UserID:     req.UserID,
		SessionID:  req.SessionID,
		Content:    req.Content,
		Importance: req.Importance,
		Type:       req.Type,
	}
	out, err := h.svc.InsertMemory(r.Context(), m)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListMemories GET /api/memories?userId=&sessionId=
func (h *MemoryHandler) ListMemories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("userId")
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	var sessionID *string
	if s := q.Get("sessionId"); s != "" {
		sessionID = &s
	}
	out, err := h.svc.ListMemories(r.Context(), userID, sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if out == nil {
		out = []*model.Memory{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"memories": out, "count": len(out)})
}

// DeleteMemory DELETE /api/memories/{memoryId}?userId=
func (h *MemoryHandler) DeleteMemory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := r.URL.Query().Get("userId")
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := h.svc.DeleteMemory(r.Context(), userID, vars["memoryId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearMemories DELETE /api/memories?userId=
func (h *MemoryHandler) ClearMemories(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	n, err := h.svc.ClearMemories(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"deleted": n})
}
