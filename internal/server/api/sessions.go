package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ayusman/formcheck/internal/store"
)

const defaultSessionLimit = 50

// SessionsHandler serves stored session summaries.
type SessionsHandler struct {
	store *store.Store
}

func NewSessionsHandler(s *store.Store) *SessionsHandler {
	return &SessionsHandler{store: s}
}

func (h *SessionsHandler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/sessions", h.HandleList).Methods("GET")
	r.HandleFunc("/api/sessions/{id}", h.HandleGet).Methods("GET")
	r.HandleFunc("/api/sessions/{id}", h.HandleDelete).Methods("DELETE")
}

// sessionView is a stored session with the figures clients show for it.
type sessionView struct {
	*store.Session
	CorrectRatio float64 `json:"correctRatio"`
	DurationMs   int64   `json:"durationMs"`
}

func newSessionView(s *store.Session) sessionView {
	return sessionView{
		Session:      s,
		CorrectRatio: s.CorrectRatio(),
		DurationMs:   s.Duration().Milliseconds(),
	}
}

type listSessionsResponse struct {
	Sessions []sessionView `json:"sessions"`
}

// HandleList handles GET /api/sessions?limit=N.
func (h *SessionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := defaultSessionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	sessions, err := h.store.Sessions().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	resp := listSessionsResponse{Sessions: make([]sessionView, 0, len(sessions))}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, newSessionView(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /api/sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.Sessions().GetByID(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get session")
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(s))
}

// HandleDelete handles DELETE /api/sessions/{id}.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.store.Sessions().Delete(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
