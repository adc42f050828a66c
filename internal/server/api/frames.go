package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ayusman/formcheck/internal/evaluator"
	"github.com/ayusman/formcheck/internal/pose"
)

const (
	// maxFrames bounds the size of one evaluation request.
	maxFrames = 600
	// maxEvaluateBody fits maxFrames full frames with room for formatting.
	maxEvaluateBody = 8 << 20
)

// JointFeedback is a joint result as sent to clients.
type JointFeedback struct {
	Joint string  `json:"joint"`
	Label string  `json:"label"`
	Angle float64 `json:"angle"`
	State string  `json:"state"`
	Color string  `json:"color"`
}

// FrameFeedback is a frame result as sent to clients.
type FrameFeedback struct {
	Exercise  string          `json:"exercise,omitempty"`
	Joints    []JointFeedback `json:"joints"`
	Progress  float64         `json:"progress"`
	IsCorrect bool            `json:"isCorrect"`
}

// NewFrameFeedback converts an evaluation result for the wire.
func NewFrameFeedback(r evaluator.FrameResult) FrameFeedback {
	out := FrameFeedback{
		Exercise:  string(r.Exercise),
		Joints:    make([]JointFeedback, 0, len(r.Joints)),
		Progress:  r.Progress,
		IsCorrect: r.IsCorrect,
	}
	for _, j := range r.Joints {
		out.Joints = append(out.Joints, JointFeedback{
			Joint: string(j.Joint),
			Label: j.Label,
			Angle: j.Angle,
			State: string(j.State),
			Color: hexColor(j.Color),
		})
	}
	return out
}

// EvaluateHandler grades landmark frames posted by clients that run pose
// detection themselves.
type EvaluateHandler struct{}

func NewEvaluateHandler() *EvaluateHandler {
	return &EvaluateHandler{}
}

func (h *EvaluateHandler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/evaluate", h.HandleEvaluate).Methods("POST")
}

type evaluateRequest struct {
	Selection evaluator.Selection `json:"selection"`
	Landmarks []pose.Landmark     `json:"landmarks,omitempty"`
	// Frames is a sequence evaluated in order with smoothing between frames.
	Frames [][]pose.Landmark `json:"frames,omitempty"`
}

type evaluateSequenceResponse struct {
	Results []FrameFeedback `json:"results"`
}

// HandleEvaluate handles POST /api/evaluate.
//
// With "landmarks" the single frame is graded as is. With "frames" the
// frames are smoothed in order, an empty frame resetting the smoothing, and
// one result per frame is returned.
func (h *EvaluateHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	body := http.MaxBytesReader(w, r.Body, maxEvaluateBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := req.Selection.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Frames == nil {
		writeJSON(w, http.StatusOK, NewFrameFeedback(evaluator.Evaluate(req.Landmarks, req.Selection)))
		return
	}

	if len(req.Frames) > maxFrames {
		writeError(w, http.StatusRequestEntityTooLarge, "too many frames")
		return
	}

	resp := evaluateSequenceResponse{Results: make([]FrameFeedback, 0, len(req.Frames))}
	var smoothed []pose.SmoothedLandmark
	for _, frame := range req.Frames {
		smoothed = pose.Smooth(frame, smoothed)
		result := evaluator.Evaluate(pose.Landmarks(smoothed), req.Selection)
		resp.Results = append(resp.Results, NewFrameFeedback(result))
	}
	writeJSON(w, http.StatusOK, resp)
}
