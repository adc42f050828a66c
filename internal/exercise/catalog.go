// Package exercise holds the static exercise catalog and the joint correlation
// rules that adjust acceptable angle ranges from the live pose.
package exercise

import (
	"errors"

	"github.com/ayusman/formcheck/internal/pose"
)

// ErrUnknownExercise is returned when an exercise ID is not in the catalog.
var ErrUnknownExercise = errors.New("unknown exercise")

// ID identifies an exercise in the catalog.
type ID string

const (
	Squat         ID = "squat"
	Deadlift      ID = "deadlift"
	Lunges        ID = "lunges"
	CalfRaises    ID = "calfRaises"
	BenchPress    ID = "benchPress"
	Dips          ID = "dips"
	LatPulldown   ID = "latPulldown"
	PullUps       ID = "pullUps"
	ShoulderPress ID = pose.OverheadPressExercise
	BarbellRow    ID = "barbellRow"
	BicepsCurl    ID = "bicepsCurl"
)

// AngleRange is the acceptable angle band for a joint, in degrees.
// Angles within [Min+Warning, Max-Warning] are good, the margins on either
// side are warnings and anything outside [Min, Max] is dangerous. Angles
// below DeadZone mean the joint is at rest.
type AngleRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Warning  float64 `json:"warning"`
	DeadZone float64 `json:"deadZone"`
}

// Exercise is an immutable catalog entry.
type Exercise struct {
	ID                  ID                        `json:"id"`
	Name                string                    `json:"name"`
	Description         string                    `json:"description"`
	Joints              []pose.Joint              `json:"joints"`
	Ranges              map[pose.Joint]AngleRange `json:"ranges"`
	RequiresCorrelation bool                      `json:"requiresCorrelation"`
}

// Range returns the static range for a joint of this exercise.
func (e *Exercise) Range(j pose.Joint) (AngleRange, bool) {
	if e == nil {
		return AngleRange{}, false
	}
	r, ok := e.Ranges[j]
	return r, ok
}

// both returns the same range for the left and right joint of a pair.
func both(left, right pose.Joint, r AngleRange) map[pose.Joint]AngleRange {
	return map[pose.Joint]AngleRange{left: r, right: r}
}

// ranges merges per-pair range tables.
func ranges(pairs ...map[pose.Joint]AngleRange) map[pose.Joint]AngleRange {
	out := make(map[pose.Joint]AngleRange)
	for _, p := range pairs {
		for j, r := range p {
			out[j] = r
		}
	}
	return out
}

var (
	shoulders = []pose.Joint{pose.JointLeftShoulder, pose.JointRightShoulder}
	elbows    = []pose.Joint{pose.JointLeftElbow, pose.JointRightElbow}
	wrists    = []pose.Joint{pose.JointLeftWrist, pose.JointRightWrist}
	hips      = []pose.Joint{pose.JointLeftHip, pose.JointRightHip}
	knees     = []pose.Joint{pose.JointLeftKnee, pose.JointRightKnee}
	ankles    = []pose.Joint{pose.JointLeftAnkle, pose.JointRightAnkle}
)

func joints(groups ...[]pose.Joint) []pose.Joint {
	var out []pose.Joint
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// catalog is built once and never mutated.
var catalog = []*Exercise{
	{
		ID:          Squat,
		Name:        "Squat",
		Description: "Lower the hips by bending knees and hips, keeping the chest up, then stand back up.",
		Joints:      joints(knees, hips),
		Ranges: ranges(
			both(pose.JointLeftKnee, pose.JointRightKnee, AngleRange{Min: 80, Max: 180, Warning: 5, DeadZone: 30}),
			both(pose.JointLeftHip, pose.JointRightHip, AngleRange{Min: 70, Max: 180, Warning: 5, DeadZone: 30}),
		),
		RequiresCorrelation: true,
	},
	{
		ID:          Deadlift,
		Name:        "Deadlift",
		Description: "Hinge at the hips with a neutral spine and lift the bar from the floor to lockout.",
		Joints:      joints(hips, knees, shoulders),
		Ranges: ranges(
			both(pose.JointLeftHip, pose.JointRightHip, AngleRange{Min: 60, Max: 180, Warning: 5, DeadZone: 30}),
			both(pose.JointLeftKnee, pose.JointRightKnee, AngleRange{Min: 110, Max: 180, Warning: 5, DeadZone: 30}),
			both(pose.JointLeftShoulder, pose.JointRightShoulder, AngleRange{Min: 0, Max: 90, Warning: 5, DeadZone: 0}),
		),
		RequiresCorrelation: true,
	},
	{
		ID:          Lunges,
		Name:        "Lunges",
		Description: "Step forward and lower until both knees are bent, keeping the torso upright.",
		Joints:      joints(knees, hips, ankles),
		Ranges: ranges(
			both(pose.JointLeftKnee, pose.JointRightKnee, AngleRange{Min: 80, Max: 180, Warning: 5, DeadZone: 30}),
			both(pose.JointLeftHip, pose.JointRightHip, AngleRange{Min: 80, Max: 180, Warning: 5, DeadZone: 30}),
			both(pose.JointLeftAnkle, pose.JointRightAnkle, AngleRange{Min: 70, Max: 120, Warning: 5, DeadZone: 20}),
		),
		RequiresCorrelation: true,
	},
	{
		ID:          CalfRaises,
		Name:        "Calf Raises",
		Description: "Rise onto the balls of the feet with straight knees and lower under control.",
		Joints:      joints(ankles, knees),
		Ranges: ranges(
			both(pose.JointLeftAnkle, pose.JointRightAnkle, AngleRange{Min: 90, Max: 150, Warning: 5, DeadZone: 60}),
			both(pose.JointLeftKnee, pose.JointRightKnee, AngleRange{Min: 160, Max: 180, Warning: 3, DeadZone: 30}),
		),
	},
	{
		ID:          BenchPress,
		Name:        "Bench Press",
		Description: "Lower the bar to the mid chest with elbows tucked, then press to full extension.",
		Joints:      joints(elbows, shoulders),
		Ranges: ranges(
			both(pose.JointLeftElbow, pose.JointRightElbow, AngleRange{Min: 45, Max: 180, Warning: 5, DeadZone: 30}),
			both(pose.JointLeftShoulder, pose.JointRightShoulder, AngleRange{Min: 30, Max: 90, Warning: 5, DeadZone: 10}),
		),
		RequiresCorrelation: true,
	},
	{
		ID:          Dips,
		Name:        "Dips",
		Description: "Lower the body between parallel bars until the upper arms are parallel to the floor.",
		Joints:      joints(elbows, shoulders),
		Ranges: ranges(
			both(pose.JointLeftElbow, pose.JointRightElbow, AngleRange{Min: 80, Max: 180, Warning: 5, DeadZone: 30}),
			both(pose.JointLeftShoulder, pose.JointRightShoulder, AngleRange{Min: 0, Max: 60, Warning: 5, DeadZone: 0}),
		),
		RequiresCorrelation: true,
	},
	{
		ID:          LatPulldown,
		Name:        "Lat Pulldown",
		Description: "Pull the bar to the upper chest driving the elbows down, then return with control.",
		Joints:      joints(elbows, shoulders),
		Ranges: ranges(
			both(pose.JointLeftElbow, pose.JointRightElbow, AngleRange{Min: 40, Max: 180, Warning: 5, DeadZone: 20}),
			both(pose.JointLeftShoulder, pose.JointRightShoulder, AngleRange{Min: 20, Max: 180, Warning: 5, DeadZone: 10}),
		),
		RequiresCorrelation: true,
	},
	{
		ID:          PullUps,
		Name:        "Pull-ups",
		Description: "Hang from the bar and pull until the chin clears it, then lower to a full hang.",
		Joints:      joints(elbows, shoulders),
		Ranges: ranges(
			both(pose.JointLeftElbow, pose.JointRightElbow, AngleRange{Min: 30, Max: 180, Warning: 5, DeadZone: 20}),
			both(pose.JointLeftShoulder, pose.JointRightShoulder, AngleRange{Min: 20, Max: 180, Warning: 5, DeadZone: 10}),
		),
		RequiresCorrelation: true,
	},
	{
		ID:          ShoulderPress,
		Name:        "Shoulder Press",
		Description: "Press the weight from shoulder height to overhead without arching the lower back.",
		Joints:      joints(shoulders, elbows),
		Ranges: ranges(
			both(pose.JointLeftShoulder, pose.JointRightShoulder, AngleRange{Min: 60, Max: 180, Warning: 5, DeadZone: 30}),
			both(pose.JointLeftElbow, pose.JointRightElbow, AngleRange{Min: 45, Max: 180, Warning: 5, DeadZone: 20}),
		),
		RequiresCorrelation: true,
	},
	{
		ID:          BarbellRow,
		Name:        "Barbell Row",
		Description: "Hinge forward with a flat back and row the bar to the lower ribs.",
		Joints:      joints(elbows, shoulders, hips),
		Ranges: ranges(
			both(pose.JointLeftElbow, pose.JointRightElbow, AngleRange{Min: 60, Max: 180, Warning: 5, DeadZone: 30}),
			both(pose.JointLeftShoulder, pose.JointRightShoulder, AngleRange{Min: 0, Max: 90, Warning: 5, DeadZone: 0}),
			both(pose.JointLeftHip, pose.JointRightHip, AngleRange{Min: 70, Max: 120, Warning: 5, DeadZone: 30}),
		),
		RequiresCorrelation: true,
	},
	{
		ID:          BicepsCurl,
		Name:        "Biceps Curl",
		Description: "Curl the weight with the upper arm pinned to the side and lower it fully.",
		Joints:      joints(elbows, shoulders, wrists),
		Ranges: ranges(
			both(pose.JointLeftElbow, pose.JointRightElbow, AngleRange{Min: 30, Max: 160, Warning: 5, DeadZone: 0}),
			both(pose.JointLeftShoulder, pose.JointRightShoulder, AngleRange{Min: 0, Max: 35, Warning: 5, DeadZone: 0}),
			// Min+Warning exceeds Max-Warning: the good band is empty.
			both(pose.JointLeftWrist, pose.JointRightWrist, AngleRange{Min: 165, Max: 180, Warning: 10, DeadZone: 0}),
		),
	},
}

var byID = func() map[ID]*Exercise {
	m := make(map[ID]*Exercise, len(catalog))
	for _, e := range catalog {
		m[e.ID] = e
	}
	return m
}()

// Get returns the catalog entry for id.
func Get(id ID) (*Exercise, bool) {
	e, ok := byID[id]
	return e, ok
}

// Lookup is Get returning ErrUnknownExercise for unknown IDs.
func Lookup(id ID) (*Exercise, error) {
	e, ok := byID[id]
	if !ok {
		return nil, ErrUnknownExercise
	}
	return e, nil
}

// All returns every exercise in catalog order.
func All() []*Exercise {
	out := make([]*Exercise, len(catalog))
	copy(out, catalog)
	return out
}

var jointLabels = map[pose.Joint]string{
	pose.JointLeftShoulder:  "Left Shoulder",
	pose.JointRightShoulder: "Right Shoulder",
	pose.JointLeftElbow:     "Left Elbow",
	pose.JointRightElbow:    "Right Elbow",
	pose.JointLeftWrist:     "Left Wrist",
	pose.JointRightWrist:    "Right Wrist",
	pose.JointLeftHip:       "Left Hip",
	pose.JointRightHip:      "Right Hip",
	pose.JointLeftKnee:      "Left Knee",
	pose.JointRightKnee:     "Right Knee",
	pose.JointLeftAnkle:     "Left Ankle",
	pose.JointRightAnkle:    "Right Ankle",
}

// JointLabel returns the display label of a joint, or the raw name if unknown.
func JointLabel(j pose.Joint) string {
	if l, ok := jointLabels[j]; ok {
		return l
	}
	return string(j)
}
