package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/codecoach/sessiond/internal/api/respond"
	"github.com/codecoach/sessiond/internal/api/validate"
	"github.com/codecoach/sessiond/internal/model"
	"github.com/codecoach/sessiond/internal/services"
)

type SessionHandler struct {
	svc *services.SessionService
}

func NewSessionHandler(svc *services.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// writeServiceError maps the error taxonomy onto status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, err.Error())
	case errors.Is(err, model.ErrInvalidInput):
		respond.WriteBadRequest(w, err.Error())
	default:
		respond.WriteInternalError(w, err.Error())
	}
}

// CreateSession POST /api/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
		Title  string `json:"title,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.UserID(req.UserID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.svc.CreateSession(r.Context(), req.UserID, req.Title)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListSessions GET /api/sessions?userId=
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.svc.ListSessions(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if out == nil {
		out = []*model.SessionSummary{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"sessions": out, "count": len(out)})
}

// GetSession GET /api/sessions/{sessionId}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	out, err := h.svc.GetSession(r.Context(), vars["sessionId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// AppendMessage POST /api/sessions/{sessionId}/messages
func (h *SessionHandler) AppendMessage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	// Empty content is allowed; only the role is constrained.
	if err := validate.Role(req.Role); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.svc.AppendMessage(r.Context(), vars["sessionId"], req.Role, req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// RenameSession PATCH /api/sessions/{sessionId}
func (h *SessionHandler) RenameSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.NonEmpty("title", req.Title); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.svc.RenameSession(r.Context(), vars["sessionId"], req.Title)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeleteSession DELETE /api/sessions/{sessionId}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.svc.DeleteSession(r.Context(), vars["sessionId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
