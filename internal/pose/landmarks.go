// Package pose provides body landmark types, joint lookups, visibility filtering,
// temporal smoothing and joint angle computation.
package pose

// Body landmark indices following the MediaPipe 33-point pose topology.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftIndex      = 19
	RightIndex     = 20
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// Landmark is a single tracked body point in normalized image coordinates
// with relative depth and a detector confidence score.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Joint names a logical body pivot evaluated by angle.
type Joint string

const (
	JointLeftShoulder  Joint = "leftShoulder"
	JointRightShoulder Joint = "rightShoulder"
	JointLeftElbow     Joint = "leftElbow"
	JointRightElbow    Joint = "rightElbow"
	JointLeftWrist     Joint = "leftWrist"
	JointRightWrist    Joint = "rightWrist"
	JointLeftHip       Joint = "leftHip"
	JointRightHip      Joint = "rightHip"
	JointLeftKnee      Joint = "leftKnee"
	JointRightKnee     Joint = "rightKnee"
	JointLeftAnkle     Joint = "leftAnkle"
	JointRightAnkle    Joint = "rightAnkle"
)

// Triple holds the landmark indices backing a joint angle. B is the vertex.
type Triple struct {
	A, B, C int
}

// jointTriples is the generic joint to landmark mapping.
var jointTriples = map[Joint]Triple{
	JointLeftShoulder:  {LeftElbow, LeftShoulder, LeftHip},
	JointRightShoulder: {RightElbow, RightShoulder, RightHip},
	JointLeftElbow:     {LeftShoulder, LeftElbow, LeftWrist},
	JointRightElbow:    {RightShoulder, RightElbow, RightWrist},
	JointLeftWrist:     {LeftElbow, LeftWrist, LeftIndex},
	JointRightWrist:    {RightElbow, RightWrist, RightIndex},
	JointLeftHip:       {LeftShoulder, LeftHip, LeftKnee},
	JointRightHip:      {RightShoulder, RightHip, RightKnee},
	JointLeftKnee:      {LeftHip, LeftKnee, LeftAnkle},
	JointRightKnee:     {RightHip, RightKnee, RightAnkle},
	JointLeftAnkle:     {LeftKnee, LeftAnkle, LeftFootIndex},
	JointRightAnkle:    {RightKnee, RightAnkle, RightFootIndex},
}

// allJoints lists every known joint in display order.
var allJoints = []Joint{
	JointLeftShoulder, JointRightShoulder,
	JointLeftElbow, JointRightElbow,
	JointLeftWrist, JointRightWrist,
	JointLeftHip, JointRightHip,
	JointLeftKnee, JointRightKnee,
	JointLeftAnkle, JointRightAnkle,
}

// AllJoints returns every known joint in display order.
func AllJoints() []Joint {
	out := make([]Joint, len(allJoints))
	copy(out, allJoints)
	return out
}

// LookupTriple returns the landmark triple for a joint.
func LookupTriple(j Joint) (Triple, bool) {
	t, ok := jointTriples[j]
	return t, ok
}

// LandmarkIndex returns the vertex landmark index of a joint,
// e.g. 11 for the left shoulder or 26 for the right knee.
func LandmarkIndex(j Joint) (int, bool) {
	t, ok := LookupTriple(j)
	if !ok {
		return 0, false
	}
	return t.B, true
}

// IsLeft reports whether the joint belongs to the left side of the body.
func (j Joint) IsLeft() bool {
	return len(j) > 4 && j[:4] == "left"
}

// Valid reports whether j is a known joint.
func (j Joint) Valid() bool {
	_, ok := LookupTriple(j)
	return ok
}
