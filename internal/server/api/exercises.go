package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ayusman/formcheck/internal/exercise"
	"github.com/ayusman/formcheck/internal/pose"
)

// ExercisesHandler serves the read-only exercise catalog.
type ExercisesHandler struct{}

func NewExercisesHandler() *ExercisesHandler {
	return &ExercisesHandler{}
}

func (h *ExercisesHandler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/exercises", h.HandleList).Methods("GET")
	r.HandleFunc("/api/exercises/{id}", h.HandleGet).Methods("GET")
	r.HandleFunc("/api/joints", h.HandleJoints).Methods("GET")
}

type rangeResponse struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Warning  float64 `json:"warning"`
	DeadZone float64 `json:"deadZone"`
}

type exerciseJointResponse struct {
	Joint string        `json:"joint"`
	Label string        `json:"label"`
	Range rangeResponse `json:"range"`
}

type exerciseResponse struct {
	ID                  string                  `json:"id"`
	Name                string                  `json:"name"`
	Description         string                  `json:"description"`
	RequiresCorrelation bool                    `json:"requiresCorrelation"`
	Joints              []exerciseJointResponse `json:"joints"`
}

type listExercisesResponse struct {
	Exercises []exerciseResponse `json:"exercises"`
}

type jointResponse struct {
	Joint    string `json:"joint"`
	Label    string `json:"label"`
	Landmark int    `json:"landmark"`
	Left     bool   `json:"left"`
}

type listJointsResponse struct {
	Joints []jointResponse `json:"joints"`
}

func toExerciseResponse(e *exercise.Exercise) exerciseResponse {
	resp := exerciseResponse{
		ID:                  string(e.ID),
		Name:                e.Name,
		Description:         e.Description,
		RequiresCorrelation: e.RequiresCorrelation,
		Joints:              make([]exerciseJointResponse, 0, len(e.Joints)),
	}
	for _, j := range e.Joints {
		r, _ := e.Range(j)
		resp.Joints = append(resp.Joints, exerciseJointResponse{
			Joint: string(j),
			Label: exercise.JointLabel(j),
			Range: rangeResponse{Min: r.Min, Max: r.Max, Warning: r.Warning, DeadZone: r.DeadZone},
		})
	}
	return resp
}

// HandleList handles GET /api/exercises.
func (h *ExercisesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	all := exercise.All()
	resp := listExercisesResponse{Exercises: make([]exerciseResponse, 0, len(all))}
	for _, e := range all {
		resp.Exercises = append(resp.Exercises, toExerciseResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /api/exercises/{id}.
func (h *ExercisesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	e, err := exercise.Lookup(exercise.ID(id))
	if err != nil {
		if errors.Is(err, exercise.ErrUnknownExercise) {
			writeError(w, http.StatusNotFound, "exercise not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toExerciseResponse(e))
}

// HandleJoints handles GET /api/joints, the joints selectable in manual mode.
func (h *ExercisesHandler) HandleJoints(w http.ResponseWriter, r *http.Request) {
	joints := pose.AllJoints()
	resp := listJointsResponse{Joints: make([]jointResponse, 0, len(joints))}
	for _, j := range joints {
		idx, _ := pose.LandmarkIndex(j)
		resp.Joints = append(resp.Joints, jointResponse{
			Joint:    string(j),
			Label:    exercise.JointLabel(j),
			Landmark: idx,
			Left:     j.IsLeft(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
