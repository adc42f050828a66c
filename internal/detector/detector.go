// Package detector defines the body landmark detector contract and its implementations.
package detector

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/formcheck/internal/pose"
)

// Detector defines the interface for pose detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the body landmarks of the
	// most prominent person, indexed by the 33-point pose topology.
	// Returns an empty slice if nobody is detected.
	Detect(frame *gocv.Mat) ([]pose.Landmark, error)
	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// ModelComplexity selects the pose model size (0 lite, 1 full, 2 heavy).
	ModelComplexity int `json:"model_complexity"`
	// MinDetectionConf is the minimum detection confidence threshold (0.0-1.0).
	MinDetectionConf float64 `json:"min_detection_confidence"`
	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `json:"min_tracking_confidence"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		ModelComplexity:  1,
		MinDetectionConf: 0.5,
		MinTrackingConf:  0.5,
	}
}
