package pose

// DefaultVisibility is the minimum visibility score for a landmark to be used.
const DefaultVisibility = 0.5

// IsVisible reports whether a landmark's visibility reaches the threshold.
func IsVisible(l Landmark, threshold float64) bool {
	return l.Visibility >= threshold
}

// JointVisible reports whether all landmarks backing the joint are present
// and visible at DefaultVisibility. Unknown joints are never visible.
func JointVisible(landmarks []Landmark, j Joint) bool {
	t, ok := LookupTriple(j)
	if !ok {
		return false
	}
	for _, idx := range [3]int{t.A, t.B, t.C} {
		if idx < 0 || idx >= len(landmarks) {
			return false
		}
		if !IsVisible(landmarks[idx], DefaultVisibility) {
			return false
		}
	}
	return true
}
