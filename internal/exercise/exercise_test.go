package exercise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/formcheck/internal/pose"
)

func mustGet(t *testing.T, id ID) *Exercise {
	t.Helper()
	e, ok := Get(id)
	require.True(t, ok, id)
	return e
}

func TestCatalog(t *testing.T) {
	t.Run("has every exercise", func(t *testing.T) {
		ids := []ID{
			Squat, Deadlift, Lunges, CalfRaises, BenchPress, Dips,
			LatPulldown, PullUps, ShoulderPress, BarbellRow, BicepsCurl,
		}
		require.Len(t, All(), len(ids))
		for i, id := range ids {
			e, ok := Get(id)
			require.True(t, ok, id)
			assert.Equal(t, id, e.ID)
			assert.Equal(t, id, All()[i].ID, "catalog order")
		}
	})

	t.Run("joints and ranges agree", func(t *testing.T) {
		for _, e := range All() {
			assert.Len(t, e.Ranges, len(e.Joints), e.ID)
			for _, j := range e.Joints {
				assert.True(t, j.Valid(), "%s: %s", e.ID, j)
				_, ok := e.Range(j)
				assert.True(t, ok, "%s: %s", e.ID, j)
			}
		}
	})

	t.Run("squat knee range", func(t *testing.T) {
		r, ok := mustGet(t, Squat).Range(pose.JointLeftKnee)
		require.True(t, ok)
		assert.Equal(t, AngleRange{Min: 80, Max: 180, Warning: 5, DeadZone: 30}, r)
	})

	t.Run("correlation flags", func(t *testing.T) {
		assert.False(t, mustGet(t, CalfRaises).RequiresCorrelation)
		assert.False(t, mustGet(t, BicepsCurl).RequiresCorrelation)
		assert.True(t, mustGet(t, ShoulderPress).RequiresCorrelation)
	})

	t.Run("unknown exercise", func(t *testing.T) {
		_, ok := Get("yoga")
		assert.False(t, ok)

		_, err := Lookup("yoga")
		assert.ErrorIs(t, err, ErrUnknownExercise)

		var missing *Exercise
		_, ok = missing.Range(pose.JointLeftKnee)
		assert.False(t, ok)
	})

	t.Run("unknown joint", func(t *testing.T) {
		_, ok := mustGet(t, Squat).Range(pose.JointLeftWrist)
		assert.False(t, ok)
	})

	t.Run("inverted good band is kept literally", func(t *testing.T) {
		r, ok := mustGet(t, BicepsCurl).Range(pose.JointRightWrist)
		require.True(t, ok)
		assert.Greater(t, r.Min+r.Warning, r.Max-r.Warning)
	})
}

func TestJointLabel(t *testing.T) {
	assert.Equal(t, "Left Knee", JointLabel(pose.JointLeftKnee))
	assert.Equal(t, "Right Shoulder", JointLabel(pose.JointRightShoulder))
	assert.Equal(t, "tail", JointLabel("tail"))
	for _, j := range pose.AllJoints() {
		assert.NotEqual(t, string(j), JointLabel(j), j)
	}
}

func TestAdjustedRanges_ShoulderPress(t *testing.T) {
	cases := []struct {
		name     string
		shoulder float64
		want     AngleRange
		override bool
	}{
		{name: "below 70", shoulder: 65, want: AngleRange{Min: 45, Max: 60, Warning: 3}, override: true},
		{name: "70 to 120", shoulder: 75, want: AngleRange{Min: 70, Max: 120, Warning: 10}, override: true},
		{name: "band lower bound is inclusive", shoulder: 70, want: AngleRange{Min: 70, Max: 120, Warning: 10}, override: true},
		{name: "120 to 140", shoulder: 130, want: AngleRange{Min: 120, Max: 160, Warning: 8}, override: true},
		{name: "above 140 uses static range", shoulder: 150},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AdjustedRanges(map[pose.Joint]float64{pose.JointLeftShoulder: tc.shoulder}, ShoulderPress)
			r, ok := got[pose.JointLeftElbow]
			require.Equal(t, tc.override, ok)
			if tc.override {
				assert.Equal(t, tc.want, r)
			}
			_, right := got[pose.JointRightElbow]
			assert.False(t, right, "right elbow has no driver angle")
		})
	}
}

func TestAdjustedRanges(t *testing.T) {
	t.Run("squat knee drives hip", func(t *testing.T) {
		got := AdjustedRanges(map[pose.Joint]float64{
			pose.JointLeftKnee:  95,
			pose.JointRightKnee: 170,
		}, Squat)
		assert.Equal(t, AngleRange{Min: 50, Max: 100, Warning: 5}, got[pose.JointLeftHip])
		assert.Equal(t, AngleRange{Min: 140, Max: 180, Warning: 5}, got[pose.JointRightHip])
		assert.Len(t, got, 2)
	})

	t.Run("missing driver yields no override", func(t *testing.T) {
		got := AdjustedRanges(map[pose.Joint]float64{pose.JointLeftHip: 90}, Squat)
		assert.Empty(t, got)
	})

	t.Run("deadlift has two driver chains", func(t *testing.T) {
		got := AdjustedRanges(map[pose.Joint]float64{
			pose.JointLeftKnee: 140,
			pose.JointLeftHip:  120,
		}, Deadlift)
		assert.Equal(t, AngleRange{Min: 90, Max: 150, Warning: 8}, got[pose.JointLeftHip])
		assert.Equal(t, AngleRange{Min: 20, Max: 60, Warning: 5}, got[pose.JointLeftShoulder])
	})

	t.Run("lunges knee drives hip and ankle", func(t *testing.T) {
		got := AdjustedRanges(map[pose.Joint]float64{pose.JointRightKnee: 90}, Lunges)
		assert.Equal(t, AngleRange{Min: 80, Max: 110, Warning: 5}, got[pose.JointRightHip])
		assert.Equal(t, AngleRange{Min: 70, Max: 95, Warning: 5}, got[pose.JointRightAnkle])
	})

	t.Run("barbell row sides are not mirrored", func(t *testing.T) {
		angles := map[pose.Joint]float64{
			pose.JointLeftShoulder:  20,
			pose.JointRightShoulder: 20,
		}
		got := AdjustedRanges(angles, BarbellRow)
		assert.Equal(t, AngleRange{Min: 150, Max: 180, Warning: 5}, got[pose.JointLeftElbow])
		assert.Equal(t, AngleRange{Min: 70, Max: 110, Warning: 5}, got[pose.JointRightElbow])
	})

	t.Run("exercises without rules", func(t *testing.T) {
		angles := map[pose.Joint]float64{pose.JointLeftKnee: 90, pose.JointLeftShoulder: 20}
		assert.Nil(t, AdjustedRanges(angles, CalfRaises))
		assert.Nil(t, AdjustedRanges(angles, BicepsCurl))
		assert.Nil(t, AdjustedRanges(angles, "yoga"))
	})

	t.Run("every shoulder to elbow exercise overrides elbows", func(t *testing.T) {
		angles := map[pose.Joint]float64{pose.JointLeftShoulder: 50, pose.JointRightShoulder: 50}
		for _, id := range []ID{BenchPress, Dips, LatPulldown, PullUps, ShoulderPress, BarbellRow} {
			got := AdjustedRanges(angles, id)
			assert.Contains(t, got, pose.JointLeftElbow, id)
			assert.Contains(t, got, pose.JointRightElbow, id)
		}
	})
}

func TestEffectiveRange(t *testing.T) {
	press := mustGet(t, ShoulderPress)

	t.Run("override keeps catalog dead zone", func(t *testing.T) {
		r, ok := EffectiveRange(press, pose.JointLeftElbow, map[pose.Joint]float64{pose.JointLeftShoulder: 65})
		require.True(t, ok)
		assert.Equal(t, AngleRange{Min: 45, Max: 60, Warning: 3, DeadZone: 20}, r)
	})

	t.Run("falls back to static range", func(t *testing.T) {
		r, ok := EffectiveRange(press, pose.JointLeftElbow, map[pose.Joint]float64{})
		require.True(t, ok)
		assert.Equal(t, press.Ranges[pose.JointLeftElbow], r)
	})

	t.Run("exercise without correlation ignores rules", func(t *testing.T) {
		curl := mustGet(t, BicepsCurl)
		r, ok := EffectiveRange(curl, pose.JointLeftElbow, map[pose.Joint]float64{pose.JointLeftShoulder: 65})
		require.True(t, ok)
		assert.Equal(t, curl.Ranges[pose.JointLeftElbow], r)
	})

	t.Run("joint outside the exercise", func(t *testing.T) {
		_, ok := EffectiveRange(press, pose.JointLeftKnee, nil)
		assert.False(t, ok)
	})
}
