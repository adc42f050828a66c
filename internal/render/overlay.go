// Package render draws form feedback on top of camera frames.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/ayusman/formcheck/internal/evaluator"
	"github.com/ayusman/formcheck/internal/feedback"
	"github.com/ayusman/formcheck/internal/pose"
)

// limbs pairs landmark indices to connect with a line.
var limbs = [][2]int{
	{pose.LeftShoulder, pose.RightShoulder},
	{pose.LeftShoulder, pose.LeftElbow}, {pose.LeftElbow, pose.LeftWrist}, {pose.LeftWrist, pose.LeftIndex},
	{pose.RightShoulder, pose.RightElbow}, {pose.RightElbow, pose.RightWrist}, {pose.RightWrist, pose.RightIndex},
	{pose.LeftShoulder, pose.LeftHip}, {pose.RightShoulder, pose.RightHip}, {pose.LeftHip, pose.RightHip},
	{pose.LeftHip, pose.LeftKnee}, {pose.LeftKnee, pose.LeftAnkle}, {pose.LeftAnkle, pose.LeftFootIndex},
	{pose.RightHip, pose.RightKnee}, {pose.RightKnee, pose.RightAnkle}, {pose.RightAnkle, pose.RightFootIndex},
}

var (
	limbColor  = color.RGBA{R: 220, G: 220, B: 220, A: 255}
	barTrack   = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	chipFont   = gocv.FontHersheySimplex
	chipScale  = 0.45
	chipMargin = 4
)

// Style controls overlay sizes in pixels.
type Style struct {
	JointRadius   int
	LineThickness int
	BarHeight     int
	ShowLabels    bool
}

// DefaultStyle returns the overlay style used by the live view.
func DefaultStyle() Style {
	return Style{JointRadius: 8, LineThickness: 2, BarHeight: 12, ShowLabels: true}
}

// Overlay draws the skeleton, one colored marker and chip per evaluated joint,
// and the progress bar onto img. Landmarks below the visibility threshold are
// not drawn.
func Overlay(img *gocv.Mat, landmarks []pose.Landmark, result evaluator.FrameResult, style Style) {
	if img == nil || img.Empty() {
		return
	}
	w, h := img.Cols(), img.Rows()

	for _, l := range limbs {
		if l[0] >= len(landmarks) || l[1] >= len(landmarks) {
			continue
		}
		a, b := landmarks[l[0]], landmarks[l[1]]
		if !pose.IsVisible(a, pose.DefaultVisibility) || !pose.IsVisible(b, pose.DefaultVisibility) {
			continue
		}
		gocv.Line(img, ToPixel(a, w, h), ToPixel(b, w, h), limbColor, style.LineThickness)
	}

	for _, r := range result.Joints {
		idx, ok := pose.LandmarkIndex(r.Joint)
		if !ok || idx >= len(landmarks) {
			continue
		}
		pt := ToPixel(landmarks[idx], w, h)
		gocv.Circle(img, pt, style.JointRadius, r.Color, -1)
		if style.ShowLabels {
			drawChip(img, pt.Add(image.Pt(style.JointRadius+chipMargin, 0)), r)
		}
	}

	drawProgress(img, result, style.BarHeight)
}

// ToPixel maps a normalized landmark to image coordinates, clamped to the frame.
func ToPixel(l pose.Landmark, width, height int) image.Point {
	x := int(math.Round(l.X * float64(width)))
	y := int(math.Round(l.Y * float64(height)))
	return image.Pt(clampInt(x, 0, width-1), clampInt(y, 0, height-1))
}

// ChipText is the label drawn next to a joint marker.
func ChipText(r evaluator.JointResult) string {
	return fmt.Sprintf("%s %.0f %s", r.Label, r.Angle, r.State.Label())
}

func drawChip(img *gocv.Mat, at image.Point, r evaluator.JointResult) {
	text := ChipText(r)
	size := gocv.GetTextSize(text, chipFont, chipScale, 1)
	bg, fg := feedback.ChipColors(r.State)

	box := image.Rect(at.X, at.Y-size.Y-chipMargin, at.X+size.X+2*chipMargin, at.Y+chipMargin)
	gocv.Rectangle(img, box, bg, -1)
	gocv.PutText(img, text, image.Pt(at.X+chipMargin, at.Y), chipFont, chipScale, fg, 1)
}

// ProgressWidth returns the filled width of a bar of the given total width.
func ProgressWidth(progress float64, total int) int {
	p := math.Max(0, math.Min(100, progress))
	return int(math.Round(p / 100 * float64(total)))
}

func drawProgress(img *gocv.Mat, result evaluator.FrameResult, height int) {
	if height <= 0 {
		return
	}
	w := img.Cols()
	gocv.Rectangle(img, image.Rect(0, 0, w, height), barTrack, -1)

	fill := ProgressWidth(result.Progress, w)
	if fill == 0 {
		return
	}
	c := feedback.ColorWarning
	if result.IsCorrect {
		c = feedback.ColorGood
	}
	gocv.Rectangle(img, image.Rect(0, 0, fill, height), c, -1)
}

// EncodeJPEG compresses img for streaming.
func EncodeJPEG(img *gocv.Mat, quality int) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, *img, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
