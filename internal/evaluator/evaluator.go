// Package evaluator turns one frame of body landmarks into per-joint form
// feedback and an aggregate progress score.
package evaluator

import (
	"errors"
	"image/color"

	"github.com/ayusman/formcheck/internal/exercise"
	"github.com/ayusman/formcheck/internal/feedback"
	"github.com/ayusman/formcheck/internal/pose"
)

// CorrectThreshold is the minimum progress for a frame to count as correct form.
const CorrectThreshold = 80.0

// ErrEmptySelection is returned when neither an exercise nor a manual joint is chosen.
var ErrEmptySelection = errors.New("no exercise or joint selected")

// Selection chooses what to evaluate: an exercise from the catalog, or in
// manual mode up to two joints tracked without any thresholds.
type Selection struct {
	Exercise   exercise.ID `json:"exercise,omitempty"`
	Manual     bool        `json:"manual"`
	LeftJoint  pose.Joint  `json:"leftJoint,omitempty"`
	RightJoint pose.Joint  `json:"rightJoint,omitempty"`
}

// Validate checks that the selection names known exercise and joints.
func (s Selection) Validate() error {
	if s.Manual {
		if s.LeftJoint == "" && s.RightJoint == "" {
			return ErrEmptySelection
		}
		for _, j := range []pose.Joint{s.LeftJoint, s.RightJoint} {
			if j != "" && !j.Valid() {
				return errors.New("unknown joint: " + string(j))
			}
		}
		return nil
	}
	if s.Exercise == "" {
		return ErrEmptySelection
	}
	_, err := exercise.Lookup(s.Exercise)
	return err
}

// Joints returns the joints the selection tracks, in display order. A manual
// joint picked on both sides is tracked once.
func (s Selection) Joints() []pose.Joint {
	if s.Manual {
		var out []pose.Joint
		if s.LeftJoint != "" {
			out = append(out, s.LeftJoint)
		}
		if s.RightJoint != "" && s.RightJoint != s.LeftJoint {
			out = append(out, s.RightJoint)
		}
		return out
	}
	e, ok := exercise.Get(s.Exercise)
	if !ok {
		return nil
	}
	return e.Joints
}

// JointResult is the feedback for one joint in one frame.
type JointResult struct {
	Joint pose.Joint     `json:"joint"`
	Label string         `json:"label"`
	Angle float64        `json:"angle"`
	State feedback.State `json:"state"`
	Color color.RGBA     `json:"color"`
}

// FrameResult is the feedback for a whole frame.
type FrameResult struct {
	Exercise  exercise.ID   `json:"exercise,omitempty"`
	Joints    []JointResult `json:"joints"`
	Progress  float64       `json:"progress"`
	IsCorrect bool          `json:"isCorrect"`
}

// Result returns the joint result for j, if it was evaluated this frame.
func (f FrameResult) Result(j pose.Joint) (JointResult, bool) {
	for _, r := range f.Joints {
		if r.Joint == j {
			return r, true
		}
	}
	return JointResult{}, false
}

// FrameAngles computes the angles of the given joints whose backing
// landmarks are all visible. Joints that cannot be measured are absent.
func FrameAngles(landmarks []pose.Landmark, joints []pose.Joint, id exercise.ID) map[pose.Joint]float64 {
	angles := make(map[pose.Joint]float64, len(joints))
	for _, j := range joints {
		if !pose.JointVisible(landmarks, j) {
			continue
		}
		if a, ok := pose.JointAngle(landmarks, j, string(id)); ok {
			angles[j] = a
		}
	}
	return angles
}

// Evaluate grades one landmark frame against the selection.
//
// Progress is the share of GOOD joints among the joints measured this frame,
// not counting joints resting in their dead zone. A frame with nothing to
// grade has zero progress.
func Evaluate(landmarks []pose.Landmark, sel Selection) FrameResult {
	joints := sel.Joints()
	out := FrameResult{Joints: []JointResult{}}
	if !sel.Manual {
		out.Exercise = sel.Exercise
	}

	angles := FrameAngles(landmarks, joints, out.Exercise)
	if len(angles) == 0 {
		return out
	}

	var ex *exercise.Exercise
	if !sel.Manual {
		ex, _ = exercise.Get(sel.Exercise)
	}

	var tracked, good int
	for _, j := range joints {
		angle, ok := angles[j]
		if !ok {
			continue
		}

		var res feedback.Result
		if sel.Manual {
			res = feedback.Result{State: feedback.StateGood, Color: feedback.ColorGood}
		} else {
			res, ok = feedback.Classify(angle, ex, j, angles)
			if !ok {
				continue
			}
		}

		out.Joints = append(out.Joints, JointResult{
			Joint: j,
			Label: exercise.JointLabel(j),
			Angle: angle,
			State: res.State,
			Color: res.Color,
		})

		switch res.State {
		case feedback.StateDeadZone:
		case feedback.StateGood:
			tracked++
			good++
		default:
			tracked++
		}
	}

	if tracked > 0 {
		out.Progress = 100 * float64(good) / float64(tracked)
	}
	out.IsCorrect = out.Progress >= CorrectThreshold
	return out
}
