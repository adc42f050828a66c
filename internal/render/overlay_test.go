package render

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/formcheck/internal/detector"
	"github.com/ayusman/formcheck/internal/evaluator"
	"github.com/ayusman/formcheck/internal/exercise"
	"github.com/ayusman/formcheck/internal/feedback"
	"github.com/ayusman/formcheck/internal/pose"
)

func TestToPixel(t *testing.T) {
	assert.Equal(t, image.Pt(320, 120), ToPixel(pose.Landmark{X: 0.5, Y: 0.25}, 640, 480))
	assert.Equal(t, image.Pt(0, 479), ToPixel(pose.Landmark{X: -0.2, Y: 1.3}, 640, 480), "clamped")
}

func TestProgressWidth(t *testing.T) {
	assert.Equal(t, 0, ProgressWidth(0, 640))
	assert.Equal(t, 320, ProgressWidth(50, 640))
	assert.Equal(t, 640, ProgressWidth(140, 640))
	assert.Equal(t, 0, ProgressWidth(-3, 640))
}

func TestChipText(t *testing.T) {
	r := evaluator.JointResult{Label: "Left Knee", Angle: 94.6, State: feedback.StateWarning}
	assert.Equal(t, "Left Knee 95 Careful", ChipText(r))
}

func TestOverlay(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	img := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer img.Close()

	landmarks := detector.StandingPose()
	result := evaluator.Evaluate(landmarks, evaluator.Selection{Exercise: exercise.Squat})
	require.NotEmpty(t, result.Joints)

	style := DefaultStyle()
	style.ShowLabels = false
	Overlay(&img, landmarks, result, style)

	knee, ok := result.Result(pose.JointLeftKnee)
	require.True(t, ok)
	pt := ToPixel(landmarks[pose.LeftKnee], 640, 480)
	px := img.GetVecbAt(pt.Y, pt.X)
	// gocv stores BGR.
	assert.Equal(t, knee.Color.B, px[0])
	assert.Equal(t, knee.Color.G, px[1])
	assert.Equal(t, knee.Color.R, px[2])

	data, err := EncodeJPEG(&img, 80)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8}, data[:2])
}

func TestOverlay_EmptyFrame(t *testing.T) {
	assert.NotPanics(t, func() {
		Overlay(nil, detector.StandingPose(), evaluator.FrameResult{}, DefaultStyle())
	})
}
