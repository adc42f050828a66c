package pose

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// OverheadPressExercise is the exercise ID whose shoulder angle is measured
// in the image plane from the hip: 0° with the arm at the side, 180° overhead.
const OverheadPressExercise = "shoulderPress"

// Angle returns the angle at vertex b formed by a-b-c, in degrees within [0, 180].
// A zero-length arm yields 0.
func Angle(a, b, c Landmark) float64 {
	return vectorAngle(
		r3.Sub(vec(a), vec(b)),
		r3.Sub(vec(c), vec(b)),
	)
}

// PlanarAngle is Angle with depth discarded.
func PlanarAngle(a, b, c Landmark) float64 {
	a.Z, b.Z, c.Z = 0, 0, 0
	return Angle(a, b, c)
}

func vec(l Landmark) r3.Vec {
	return r3.Vec{X: l.X, Y: l.Y, Z: l.Z}
}

func vectorAngle(ba, bc r3.Vec) float64 {
	magBA := r3.Norm(ba)
	magBC := r3.Norm(bc)
	if magBA == 0 || magBC == 0 {
		return 0
	}

	cos := r3.Dot(ba, bc) / (magBA * magBC)
	cos = math.Max(-1, math.Min(1, cos))

	return math.Acos(cos) * 180 / math.Pi
}

// JointAngle computes the angle of the named joint from a landmark frame.
// The exercise ID selects the shoulder convention for the overhead press.
// It returns false for unknown joints or when a backing landmark is missing.
func JointAngle(landmarks []Landmark, j Joint, exerciseID string) (float64, bool) {
	t, ok := LookupTriple(j)
	if !ok {
		return 0, false
	}
	if t.A >= len(landmarks) || t.B >= len(landmarks) || t.C >= len(landmarks) {
		return 0, false
	}

	switch j {
	case JointLeftShoulder, JointRightShoulder:
		if exerciseID == OverheadPressExercise {
			return overheadShoulderAngle(landmarks, t), true
		}
	}

	return Angle(landmarks[t.A], landmarks[t.B], landmarks[t.C]), true
}

// overheadShoulderAngle measures hip-shoulder-elbow in the frontal image plane,
// where the press travels.
func overheadShoulderAngle(landmarks []Landmark, t Triple) float64 {
	elbow, shoulder, hip := landmarks[t.A], landmarks[t.B], landmarks[t.C]
	return PlanarAngle(hip, shoulder, elbow)
}
