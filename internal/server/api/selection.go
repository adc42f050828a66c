package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ayusman/formcheck/internal/evaluator"
)

// Tracker is the part of the live pipeline the API controls.
type Tracker interface {
	Selection() evaluator.Selection
	SetSelection(evaluator.Selection) error
	IsEnabled() bool
	SetEnabled(bool)
	IsRunning() bool
	Start() error
	Stop() error
}

// TrackingHandler exposes the live selection and the tracking switch.
type TrackingHandler struct {
	tracker Tracker
}

func NewTrackingHandler(t Tracker) *TrackingHandler {
	return &TrackingHandler{tracker: t}
}

func (h *TrackingHandler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/selection", h.HandleGetSelection).Methods("GET")
	r.HandleFunc("/api/selection", h.HandlePutSelection).Methods("PUT")
	r.HandleFunc("/api/tracking", h.HandleGetTracking).Methods("GET")
	r.HandleFunc("/api/tracking", h.HandlePutTracking).Methods("PUT")
}

// HandleGetSelection handles GET /api/selection.
func (h *TrackingHandler) HandleGetSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Selection())
}

// HandlePutSelection handles PUT /api/selection.
func (h *TrackingHandler) HandlePutSelection(w http.ResponseWriter, r *http.Request) {
	var sel evaluator.Selection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := sel.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.tracker.SetSelection(sel); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.tracker.Selection())
}

type trackingState struct {
	Enabled bool `json:"enabled"`
	Running bool `json:"running"`
}

// HandleGetTracking handles GET /api/tracking.
func (h *TrackingHandler) HandleGetTracking(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, trackingState{Enabled: h.tracker.IsEnabled(), Running: h.tracker.IsRunning()})
}

type putTrackingRequest struct {
	Enabled *bool `json:"enabled"`
	Running *bool `json:"running"`
}

// HandlePutTracking handles PUT /api/tracking. Omitted fields are left as is.
func (h *TrackingHandler) HandlePutTracking(w http.ResponseWriter, r *http.Request) {
	var req putTrackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Running != nil {
		var err error
		if *req.Running {
			err = h.tracker.Start()
		} else {
			err = h.tracker.Stop()
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	if req.Enabled != nil {
		h.tracker.SetEnabled(*req.Enabled)
	}

	writeJSON(w, http.StatusOK, trackingState{Enabled: h.tracker.IsEnabled(), Running: h.tracker.IsRunning()})
}
