package exercise

import (
	"math"

	"github.com/ayusman/formcheck/internal/pose"
)

// band maps driver angles below Upper to a target range for the dependent joint.
type band struct {
	Upper float64
	Range AngleRange // DeadZone is ignored
}

// rule ties a dependent joint's range to the live angle of a driver joint.
type rule struct {
	Driver    pose.Joint
	Dependent pose.Joint
	Bands     [3]band
}

// resolve returns the range of the first band the driver angle falls under.
func (r rule) resolve(driverAngle float64) (AngleRange, bool) {
	for _, b := range r.Bands {
		if driverAngle < b.Upper {
			return b.Range, true
		}
	}
	return AngleRange{}, false
}

var open = math.Inf(1)

func rng(lo, hi, warning float64) AngleRange {
	return AngleRange{Min: lo, Max: hi, Warning: warning}
}

// mirrored builds the same rule for both sides of the body.
func mirrored(left, right [2]pose.Joint, bands [3]band) []rule {
	return []rule{
		{Driver: left[0], Dependent: left[1], Bands: bands},
		{Driver: right[0], Dependent: right[1], Bands: bands},
	}
}

var (
	leftKneeHip   = [2]pose.Joint{pose.JointLeftKnee, pose.JointLeftHip}
	rightKneeHip  = [2]pose.Joint{pose.JointRightKnee, pose.JointRightHip}
	leftKneeAnkle = [2]pose.Joint{pose.JointLeftKnee, pose.JointLeftAnkle}
	rightKneeAnk  = [2]pose.Joint{pose.JointRightKnee, pose.JointRightAnkle}
	leftHipShldr  = [2]pose.Joint{pose.JointLeftHip, pose.JointLeftShoulder}
	rightHipShldr = [2]pose.Joint{pose.JointRightHip, pose.JointRightShoulder}
	leftShldrElb  = [2]pose.Joint{pose.JointLeftShoulder, pose.JointLeftElbow}
	rightShldrElb = [2]pose.Joint{pose.JointRightShoulder, pose.JointRightElbow}
)

func squatRules() []rule {
	return mirrored(leftKneeHip, rightKneeHip, [3]band{
		{Upper: 100, Range: rng(50, 100, 5)},
		{Upper: 140, Range: rng(80, 150, 8)},
		{Upper: open, Range: rng(140, 180, 5)},
	})
}

func deadliftRules() []rule {
	out := mirrored(leftKneeHip, rightKneeHip, [3]band{
		{Upper: 130, Range: rng(60, 110, 5)},
		{Upper: 160, Range: rng(90, 150, 8)},
		{Upper: open, Range: rng(150, 180, 5)},
	})
	return append(out, mirrored(leftHipShldr, rightHipShldr, [3]band{
		{Upper: 100, Range: rng(40, 90, 5)},
		{Upper: 150, Range: rng(20, 60, 5)},
		{Upper: open, Range: rng(0, 30, 5)},
	})...)
}

func lungesRules() []rule {
	out := mirrored(leftKneeHip, rightKneeHip, [3]band{
		{Upper: 100, Range: rng(80, 110, 5)},
		{Upper: 140, Range: rng(100, 150, 8)},
		{Upper: open, Range: rng(140, 180, 5)},
	})
	return append(out, mirrored(leftKneeAnkle, rightKneeAnk, [3]band{
		{Upper: 100, Range: rng(70, 95, 5)},
		{Upper: 140, Range: rng(80, 110, 5)},
		{Upper: open, Range: rng(90, 120, 5)},
	})...)
}

var benchPressBands = [3]band{
	{Upper: 45, Range: rng(70, 110, 5)},
	{Upper: 75, Range: rng(90, 160, 10)},
	{Upper: open, Range: rng(150, 180, 5)},
}

func benchPressRules() []rule {
	return mirrored(leftShldrElb, rightShldrElb, benchPressBands)
}

func dipsRules() []rule {
	return mirrored(leftShldrElb, rightShldrElb, [3]band{
		{Upper: 20, Range: rng(150, 180, 5)},
		{Upper: 40, Range: rng(110, 160, 8)},
		{Upper: open, Range: rng(80, 120, 5)},
	})
}

func latPulldownRules() []rule {
	return mirrored(leftShldrElb, rightShldrElb, [3]band{
		{Upper: 90, Range: rng(40, 90, 5)},
		{Upper: 150, Range: rng(80, 150, 10)},
		{Upper: open, Range: rng(150, 180, 5)},
	})
}

func pullUpsRules() []rule {
	return mirrored(leftShldrElb, rightShldrElb, [3]band{
		{Upper: 90, Range: rng(30, 80, 5)},
		{Upper: 150, Range: rng(70, 150, 10)},
		{Upper: open, Range: rng(150, 180, 5)},
	})
}

// Above 140 degrees of shoulder flexion the static elbow range applies.
func shoulderPressRules() []rule {
	return mirrored(leftShldrElb, rightShldrElb, [3]band{
		{Upper: 70, Range: rng(45, 60, 3)},
		{Upper: 120, Range: rng(70, 120, 10)},
		{Upper: 140, Range: rng(120, 160, 8)},
	})
}

// The right side reuses the bench press bands; it is not a mirror of the left.
func barbellRowRules() []rule {
	return []rule{
		{
			Driver:    pose.JointLeftShoulder,
			Dependent: pose.JointLeftElbow,
			Bands: [3]band{
				{Upper: 30, Range: rng(150, 180, 5)},
				{Upper: 60, Range: rng(100, 160, 8)},
				{Upper: open, Range: rng(60, 110, 5)},
			},
		},
		{
			Driver:    pose.JointRightShoulder,
			Dependent: pose.JointRightElbow,
			Bands:     benchPressBands,
		},
	}
}

// rulesFor dispatches on the exercise ID.
func rulesFor(id ID) []rule {
	switch id {
	case Squat:
		return squatRules()
	case Deadlift:
		return deadliftRules()
	case Lunges:
		return lungesRules()
	case BenchPress:
		return benchPressRules()
	case Dips:
		return dipsRules()
	case LatPulldown:
		return latPulldownRules()
	case PullUps:
		return pullUpsRules()
	case ShoulderPress:
		return shoulderPressRules()
	case BarbellRow:
		return barbellRowRules()
	default:
		return nil
	}
}

// AdjustedRanges returns range overrides for dependent joints, derived from
// the current angles of their driver joints. Only overridden joints are
// present; a dependent joint whose driver has no angle this frame is left
// out. Returned ranges carry no DeadZone.
func AdjustedRanges(angles map[pose.Joint]float64, id ID) map[pose.Joint]AngleRange {
	rules := rulesFor(id)
	if len(rules) == 0 {
		return nil
	}

	out := make(map[pose.Joint]AngleRange)
	for _, r := range rules {
		driverAngle, ok := angles[r.Driver]
		if !ok {
			continue
		}
		if adjusted, ok := r.resolve(driverAngle); ok {
			out[r.Dependent] = adjusted
		}
	}
	return out
}

// EffectiveRange resolves the range to classify a joint against: the
// correlation override when the exercise requires one and it applies,
// otherwise the static catalog range. The catalog DeadZone is always kept.
func EffectiveRange(e *Exercise, j pose.Joint, angles map[pose.Joint]float64) (AngleRange, bool) {
	static, ok := e.Range(j)
	if !ok {
		return AngleRange{}, false
	}
	if !e.RequiresCorrelation {
		return static, true
	}

	adjusted, ok := AdjustedRanges(angles, e.ID)[j]
	if !ok {
		return static, true
	}
	adjusted.DeadZone = static.DeadZone
	return adjusted, true
}
