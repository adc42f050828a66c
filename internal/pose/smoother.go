package pose

import "math"

// Smoothing constants.
const (
	// HistorySize is the number of raw samples retained per coordinate.
	HistorySize = 10
	// SmoothingRate controls how strongly recent samples dominate the average.
	SmoothingRate = 0.4
)

// smoothingWeights[i] is the weight of the i-th oldest sample in a full history.
var smoothingWeights, smoothingWeightSum = func() ([HistorySize]float64, float64) {
	var w [HistorySize]float64
	var sum float64
	for i := range w {
		w[i] = math.Exp(SmoothingRate * float64(i))
		sum += w[i]
	}
	return w, sum
}()

// history is a fixed-capacity ring buffer of raw coordinate samples.
// It is always full: seeding fills every slot.
type history struct {
	values [HistorySize]float64
	head   int // index of the oldest sample
}

func seededHistory(v float64) history {
	var h history
	for i := range h.values {
		h.values[i] = v
	}
	return h
}

// push overwrites the oldest sample with v.
func (h *history) push(v float64) {
	h.values[h.head] = v
	h.head = (h.head + 1) % HistorySize
}

// at returns the i-th oldest sample.
func (h *history) at(i int) float64 {
	return h.values[(h.head+i)%HistorySize]
}

// weighted returns the exponentially weighted mean of the buffer.
func (h *history) weighted() float64 {
	var total float64
	for i := 0; i < HistorySize; i++ {
		total += smoothingWeights[i] * h.at(i)
	}
	return total / smoothingWeightSum
}

// SmoothedLandmark is a landmark whose coordinates are averaged over
// the recent raw samples kept in its histories.
type SmoothedLandmark struct {
	Landmark
	prevX history
	prevY history
	prevZ history
}

// History returns the raw x, y and z samples, oldest first.
func (s SmoothedLandmark) History() (xs, ys, zs []float64) {
	xs = make([]float64, HistorySize)
	ys = make([]float64, HistorySize)
	zs = make([]float64, HistorySize)
	for i := 0; i < HistorySize; i++ {
		xs[i] = s.prevX.at(i)
		ys[i] = s.prevY.at(i)
		zs[i] = s.prevZ.at(i)
	}
	return xs, ys, zs
}

func seed(l Landmark) SmoothedLandmark {
	return SmoothedLandmark{
		Landmark: l,
		prevX:    seededHistory(l.X),
		prevY:    seededHistory(l.Y),
		prevZ:    seededHistory(l.Z),
	}
}

// Smooth produces the smoothed landmark set for a new raw frame.
//
// When prev is missing or its length differs from raw (pose lost and
// reacquired) every history is reseeded with the raw value, so the output
// equals the input exactly. Otherwise each raw value is pushed into its
// history and the coordinate becomes the weighted mean, where the i-th
// oldest sample weighs exp(0.4*i). Visibility is always the raw value.
//
// prev is never modified.
func Smooth(raw []Landmark, prev []SmoothedLandmark) []SmoothedLandmark {
	if len(raw) == 0 {
		return nil
	}

	out := make([]SmoothedLandmark, len(raw))

	if len(prev) != len(raw) {
		for i, l := range raw {
			out[i] = seed(l)
		}
		return out
	}

	for i, l := range raw {
		s := prev[i] // histories are arrays, so this is a copy
		s.prevX.push(l.X)
		s.prevY.push(l.Y)
		s.prevZ.push(l.Z)
		s.Landmark = Landmark{
			X:          s.prevX.weighted(),
			Y:          s.prevY.weighted(),
			Z:          s.prevZ.weighted(),
			Visibility: l.Visibility,
		}
		out[i] = s
	}
	return out
}

// Landmarks projects smoothed landmarks back to plain landmarks.
func Landmarks(smoothed []SmoothedLandmark) []Landmark {
	if smoothed == nil {
		return nil
	}
	out := make([]Landmark, len(smoothed))
	for i, s := range smoothed {
		out[i] = s.Landmark
	}
	return out
}
