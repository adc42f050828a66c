package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

const (
	motionBlurSize   = 21
	motionPixelDelta = 25
)

// MotionGate decides whether a frame differs enough from the last checked
// frame to be worth running pose detection on. A threshold <= 0 disables the
// gate and every frame passes.
type MotionGate struct {
	threshold float64
	prevGray  gocv.Mat
	primed    bool
	mu        sync.Mutex
}

// NewMotionGate creates a gate that opens when more than threshold percent of
// pixels changed.
func NewMotionGate(threshold float64) *MotionGate {
	return &MotionGate{threshold: threshold, prevGray: gocv.NewMat()}
}

// Enabled reports whether the gate filters frames at all.
func (g *MotionGate) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.threshold > 0
}

// Check compares frame with the previous one and returns whether it moved
// along with the changed pixel percentage. The first frame after creation or
// Reset always passes so that a fresh detection is produced.
func (g *MotionGate) Check(frame *gocv.Mat) (bool, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.threshold <= 0 {
		return true, 0
	}
	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: motionBlurSize, Y: motionBlurSize}, 0, 0, gocv.BorderDefault)

	if !g.primed || blurred.Rows() != g.prevGray.Rows() || blurred.Cols() != g.prevGray.Cols() {
		blurred.CopyTo(&g.prevGray)
		g.primed = true
		return true, 100
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, g.prevGray, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, motionPixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(mask)) / float64(mask.Rows()*mask.Cols()) * 100
	blurred.CopyTo(&g.prevGray)

	return changed > g.threshold, changed
}

// SetThreshold changes the gate threshold. Zero or negative disables it.
func (g *MotionGate) SetThreshold(threshold float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.threshold = threshold
}

// Reset forgets the previous frame.
func (g *MotionGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.release()
}

// Close releases the stored frame.
func (g *MotionGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.release()
}

func (g *MotionGate) release() {
	if !g.prevGray.Empty() {
		g.prevGray.Close()
		g.prevGray = gocv.NewMat()
	}
	g.primed = false
}
