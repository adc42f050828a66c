// Package feedback classifies joint angles against their acceptable ranges
// and maps the result to render colors.
package feedback

import (
	"image/color"
	"math"

	"github.com/ayusman/formcheck/internal/exercise"
	"github.com/ayusman/formcheck/internal/pose"
)

// State is the correctness of a joint angle.
type State string

const (
	StateGood     State = "good"
	StateWarning  State = "warning"
	StateDanger   State = "danger"
	StateDeadZone State = "deadZone"
)

// DangerTransition is the width in degrees, beyond Min or Max, over which the
// danger color ramps from its warning end to full danger.
const DangerTransition = 15.0

// Colors used for joint markers.
var (
	ColorGood          = color.RGBA{R: 0, G: 200, B: 83, A: 255}
	ColorDeadZone      = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	ColorWarning       = color.RGBA{R: 255, G: 152, B: 0, A: 255}
	ColorWarningGood   = color.RGBA{R: 205, G: 220, B: 57, A: 255}
	ColorWarningDanger = color.RGBA{R: 255, G: 87, B: 34, A: 255}
	ColorDanger        = color.RGBA{R: 213, G: 0, B: 0, A: 255}
)

// Result is the classification of one joint angle.
type Result struct {
	State State      `json:"state"`
	Color color.RGBA `json:"color"`
}

// Classify grades an angle for a joint of an exercise. For exercises that
// require correlation the range may be adjusted from the other current angles.
// The second return value is false when the exercise does not track the joint.
func Classify(angle float64, e *exercise.Exercise, j pose.Joint, angles map[pose.Joint]float64) (Result, bool) {
	r, ok := exercise.EffectiveRange(e, j, angles)
	if !ok {
		return Result{}, false
	}
	return ClassifyRange(angle, r), true
}

// ClassifyRange grades an angle against a resolved range.
//
// The dead zone wins over every other check. Inside [Min+Warning, Max-Warning]
// the angle is good; the Warning-wide margins inside [Min, Max] blend from the
// warning color towards the good side; outside [Min, Max] the danger color
// blends over DangerTransition degrees. An inverted good band is not
// corrected.
func ClassifyRange(angle float64, r exercise.AngleRange) Result {
	if angle < r.DeadZone {
		return Result{State: StateDeadZone, Color: ColorDeadZone}
	}

	minWarning := r.Min + r.Warning
	maxWarning := r.Max - r.Warning

	switch {
	case angle >= minWarning && angle <= maxWarning:
		return Result{State: StateGood, Color: ColorGood}

	case angle >= r.Min && angle < minWarning:
		factor := (angle - r.Min) / r.Warning
		return Result{State: StateWarning, Color: Interpolate(ColorWarning, ColorWarningGood, factor)}

	case angle > maxWarning && angle <= r.Max:
		factor := (r.Max - angle) / r.Warning
		return Result{State: StateWarning, Color: Interpolate(ColorWarning, ColorWarningGood, factor)}

	case angle < r.Min:
		factor := clamp01((r.Min - angle) / DangerTransition)
		return Result{State: StateDanger, Color: Interpolate(ColorWarningDanger, ColorDanger, factor)}

	case angle > r.Max:
		factor := clamp01((angle - r.Max) / DangerTransition)
		return Result{State: StateDanger, Color: Interpolate(ColorWarningDanger, ColorDanger, factor)}
	}

	return Result{State: StateGood, Color: ColorGood}
}

// Interpolate blends c1 towards c2 per channel, rounding to the nearest value.
// Alpha is taken from c1.
func Interpolate(c1, c2 color.RGBA, factor float64) color.RGBA {
	blend := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + factor*(float64(b)-float64(a))))
	}
	return color.RGBA{
		R: blend(c1.R, c2.R),
		G: blend(c1.G, c2.G),
		B: blend(c1.B, c2.B),
		A: c1.A,
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.RGBA{A: 255}
)

// ChipColors returns the background and text colors of a state label chip.
func ChipColors(s State) (background, text color.RGBA) {
	switch s {
	case StateGood:
		return ColorGood, white
	case StateWarning:
		return ColorWarning, black
	case StateDanger:
		return ColorDanger, white
	default:
		return ColorDeadZone, white
	}
}

// Label returns the human-readable chip text of a state.
func (s State) Label() string {
	switch s {
	case StateGood:
		return "Good"
	case StateWarning:
		return "Careful"
	case StateDanger:
		return "Fix form"
	case StateDeadZone:
		return "Resting"
	default:
		return string(s)
	}
}
