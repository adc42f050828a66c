package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/formcheck/internal/pose"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu        sync.Mutex
	landmarks []pose.Landmark
	err       error
	calls     int
	closed    bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetLandmarks sets the landmarks that will be returned by Detect.
func (m *MockDetector) SetLandmarks(landmarks []pose.Landmark) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.landmarks = landmarks
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured landmarks or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]pose.Landmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.landmarks == nil {
		return nil, nil
	}
	out := make([]pose.Landmark, len(m.landmarks))
	copy(out, m.landmarks)
	return out, nil
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

const fixtureVisibility = 0.95

func fixture(points map[int][2]float64) []pose.Landmark {
	out := make([]pose.Landmark, pose.NumLandmarks)
	for i, p := range points {
		out[i] = pose.Landmark{X: p[0], Y: p[1], Visibility: fixtureVisibility}
	}
	return out
}

// StandingPose returns a front-facing upright body with arms hanging and
// legs straight. Every tracked landmark is visible.
func StandingPose() []pose.Landmark {
	return fixture(map[int][2]float64{
		pose.Nose:           {0.50, 0.15},
		pose.LeftShoulder:   {0.42, 0.30},
		pose.RightShoulder:  {0.58, 0.30},
		pose.LeftElbow:      {0.40, 0.45},
		pose.RightElbow:     {0.60, 0.45},
		pose.LeftWrist:      {0.40, 0.60},
		pose.RightWrist:     {0.60, 0.60},
		pose.LeftIndex:      {0.40, 0.65},
		pose.RightIndex:     {0.60, 0.65},
		pose.LeftHip:        {0.45, 0.55},
		pose.RightHip:       {0.55, 0.55},
		pose.LeftKnee:       {0.45, 0.75},
		pose.RightKnee:      {0.55, 0.75},
		pose.LeftAnkle:      {0.45, 0.92},
		pose.RightAnkle:     {0.55, 0.92},
		pose.LeftFootIndex:  {0.40, 0.95},
		pose.RightFootIndex: {0.60, 0.95},
	})
}

// SquatBottomPose returns a side view at the bottom of a squat: knees near
// 84 degrees and hips near 82 degrees on both sides.
func SquatBottomPose() []pose.Landmark {
	side := map[string][2]float64{
		"shoulder": {0.48, 0.42},
		"elbow":    {0.58, 0.50},
		"wrist":    {0.68, 0.50},
		"index":    {0.72, 0.50},
		"hip":      {0.40, 0.70},
		"knee":     {0.55, 0.72},
		"ankle":    {0.50, 0.92},
		"foot":     {0.60, 0.94},
	}
	return fixture(map[int][2]float64{
		pose.Nose:           {0.50, 0.30},
		pose.LeftShoulder:   side["shoulder"],
		pose.RightShoulder:  side["shoulder"],
		pose.LeftElbow:      side["elbow"],
		pose.RightElbow:     side["elbow"],
		pose.LeftWrist:      side["wrist"],
		pose.RightWrist:     side["wrist"],
		pose.LeftIndex:      side["index"],
		pose.RightIndex:     side["index"],
		pose.LeftHip:        side["hip"],
		pose.RightHip:       side["hip"],
		pose.LeftKnee:       side["knee"],
		pose.RightKnee:      side["knee"],
		pose.LeftAnkle:      side["ankle"],
		pose.RightAnkle:     side["ankle"],
		pose.LeftFootIndex:  side["foot"],
		pose.RightFootIndex: side["foot"],
	})
}
