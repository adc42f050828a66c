package app

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ayusman/formcheck/internal/capture"
	"github.com/ayusman/formcheck/internal/detector"
	"github.com/ayusman/formcheck/internal/evaluator"
	"github.com/ayusman/formcheck/internal/exercise"
	"github.com/ayusman/formcheck/internal/metrics"
	"github.com/ayusman/formcheck/internal/pose"
	"github.com/ayusman/formcheck/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	app      *App
	detector *detector.MockDetector
	store    *store.Store
}

func newFixture(t *testing.T, withStore bool) *fixture {
	t.Helper()

	f := &fixture{detector: detector.NewMockDetector()}
	cfg := Config{
		Camera:   capture.NewMockCamera(nil, false),
		Detector: f.detector,
		Metrics:  metrics.NewTestManager(),
	}
	if withStore {
		s, err := store.New(filepath.Join(t.TempDir(), "app.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		f.store = s
		cfg.Store = s
	}

	f.app = New(cfg)
	t.Cleanup(func() { f.app.Close() })
	return f
}

func TestProcessFrame_DetectionThrottle(t *testing.T) {
	tests := []struct {
		name       string
		fps        int
		wantCached float64
	}{
		{name: "30 fps", fps: 30, wantCached: 5},
		{name: "60 fps", fps: 60, wantCached: 35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			f.detector.SetLandmarks(detector.StandingPose())

			start := time.Unix(1000, 0)
			frameInterval := time.Second / time.Duration(tt.fps)

			for i := 0; i < tt.fps; i++ {
				f.app.processFrame(nil, start.Add(time.Duration(i)*frameInterval))
			}

			// The 40 ms schedule holds 25 detections per second whatever the
			// render rate.
			assert.Equal(t, 25, f.detector.Calls())

			m := f.app.Metrics()
			assert.Equal(t, float64(tt.fps), testutil.ToFloat64(m.CounterFrames))
			assert.Equal(t, 25.0, testutil.ToFloat64(m.CounterDetections.WithLabelValues(metrics.DetectionOK)))
			assert.Equal(t, tt.wantCached, testutil.ToFloat64(m.CounterDetections.WithLabelValues(metrics.DetectionCached)))
		})
	}
}

func TestProcessFrame_DetectionScheduleRestartsAfterStall(t *testing.T) {
	f := newFixture(t, false)
	f.detector.SetLandmarks(detector.StandingPose())

	start := time.Unix(1000, 0)
	f.app.processFrame(nil, start)
	f.app.processFrame(nil, start.Add(500*time.Millisecond))
	// A slot is not owed for the stall, so 20 ms later is too early.
	f.app.processFrame(nil, start.Add(520*time.Millisecond))
	f.app.processFrame(nil, start.Add(540*time.Millisecond))

	assert.Equal(t, 3, f.detector.Calls())
}

func TestProcessFrame_ReusesCachedLandmarks(t *testing.T) {
	f := newFixture(t, false)
	require.NoError(t, f.app.SetSelection(evaluator.Selection{Exercise: exercise.Squat}))
	f.detector.SetLandmarks(detector.SquatBottomPose())

	now := time.Unix(1000, 0)
	first := f.app.processFrame(nil, now)
	require.Len(t, first.Joints, 4)

	f.detector.SetLandmarks(nil)
	second := f.app.processFrame(nil, now.Add(10*time.Millisecond))
	assert.Equal(t, first, second, "between detections the cached pose is evaluated again")
	assert.Equal(t, 1, f.detector.Calls())
}

func TestProcessFrame_DetectionFailure(t *testing.T) {
	f := newFixture(t, false)
	require.NoError(t, f.app.SetSelection(evaluator.Selection{Exercise: exercise.Squat}))
	f.detector.SetLandmarks(detector.SquatBottomPose())

	now := time.Unix(1000, 0)
	require.NotEmpty(t, f.app.processFrame(nil, now).Joints)

	f.detector.SetError(errors.New("model crashed"))
	got := f.app.processFrame(nil, now.Add(50*time.Millisecond))
	assert.Empty(t, got.Joints, "a failed detection yields no landmarks")
	assert.Zero(t, got.Progress)
	assert.Nil(t, f.app.cached)
	assert.Nil(t, f.app.smoothed)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.app.Metrics().CounterDetections.WithLabelValues(metrics.DetectionError)))

	f.detector.SetError(nil)
	got = f.app.processFrame(nil, now.Add(100*time.Millisecond))
	assert.NotEmpty(t, got.Joints, "tracking resumes on the next detection")
}

func TestProcessFrame_Smoothing(t *testing.T) {
	f := newFixture(t, false)
	now := time.Unix(1000, 0)

	standing := detector.StandingPose()
	f.detector.SetLandmarks(standing)
	f.app.processFrame(nil, now)
	require.Len(t, f.app.cached, pose.NumLandmarks)
	assert.Equal(t, standing[pose.LeftKnee].X, f.app.cached[pose.LeftKnee].X, "first detection seeds the history")

	moved := detector.StandingPose()
	moved[pose.LeftKnee].X += 0.1
	f.detector.SetLandmarks(moved)
	f.app.processFrame(nil, now.Add(50*time.Millisecond))

	x := f.app.cached[pose.LeftKnee].X
	assert.Greater(t, x, standing[pose.LeftKnee].X)
	assert.Less(t, x, moved[pose.LeftKnee].X, "a jump is damped by the history")

	t.Run("empty detection resets smoothing", func(t *testing.T) {
		f.detector.SetLandmarks(nil)
		f.app.processFrame(nil, now.Add(100*time.Millisecond))
		assert.Nil(t, f.app.smoothed)

		f.detector.SetLandmarks(moved)
		f.app.processFrame(nil, now.Add(150*time.Millisecond))
		assert.Equal(t, moved[pose.LeftKnee].X, f.app.cached[pose.LeftKnee].X)
	})
}

func TestSubscribe(t *testing.T) {
	f := newFixture(t, false)
	require.NoError(t, f.app.SetSelection(evaluator.Selection{Manual: true, LeftJoint: pose.JointLeftElbow}))
	f.detector.SetLandmarks(detector.StandingPose())

	var got []Update
	unsubscribe := f.app.Subscribe(func(u Update) { got = append(got, u) })

	now := time.Unix(1000, 0)
	f.app.processFrame(nil, now)
	require.Len(t, got, 1)
	assert.Equal(t, now.UnixMilli(), got[0].Timestamp)
	require.Len(t, got[0].Result.Joints, 1)
	assert.Equal(t, 100.0, got[0].Result.Progress)
	assert.Len(t, got[0].Landmarks, pose.NumLandmarks)
	assert.Equal(t, got[0], f.app.Latest())

	unsubscribe()
	unsubscribe()
	f.app.processFrame(nil, now.Add(time.Second))
	assert.Len(t, got, 1)

	_, seq := f.app.Snapshot()
	assert.Zero(t, seq, "nil frames do not produce snapshots")
}

func TestWatchState(t *testing.T) {
	f := newFixture(t, false)
	f.app.SetEnabled(false)

	var got []State
	unwatch := f.app.WatchState(func(s State) { got = append(got, s) })

	f.app.SetEnabled(true)
	f.app.SetEnabled(true)
	require.NoError(t, f.app.SetSelection(evaluator.Selection{Exercise: exercise.Dips}))
	assert.Error(t, f.app.SetSelection(evaluator.Selection{Exercise: "yoga"}))

	require.Len(t, got, 2, "repeats and rejected selections are not reported")
	assert.Equal(t, State{Enabled: true}, got[0])
	assert.Equal(t, State{Enabled: true, Selection: evaluator.Selection{Exercise: exercise.Dips}}, got[1])

	unwatch()
	f.app.SetEnabled(false)
	assert.Len(t, got, 2)
}

func TestSelection_Persistence(t *testing.T) {
	f := newFixture(t, true)

	assert.Error(t, f.app.SetSelection(evaluator.Selection{Exercise: "yoga"}))
	assert.Error(t, f.app.SetSelection(evaluator.Selection{}))

	sel := evaluator.Selection{Exercise: exercise.BenchPress}
	require.NoError(t, f.app.SetSelection(sel))
	assert.Equal(t, sel, f.app.Selection())

	other := New(Config{Store: f.store, Camera: capture.NewMockCamera(nil, false), Detector: detector.NewMockDetector()})
	defer other.Close()
	require.NoError(t, other.LoadSelection())
	assert.Equal(t, sel, other.Selection())
}

func TestLoadSelection_Empty(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.app.LoadSelection())
	assert.Equal(t, evaluator.Selection{}, f.app.Selection())

	require.NoError(t, f.store.Settings().Set(store.SettingSelection, `{"exercise":"yoga"}`))
	require.NoError(t, f.app.LoadSelection(), "invalid stored selection is ignored")
	assert.Equal(t, evaluator.Selection{}, f.app.Selection())
}

func TestSession_Saved(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.app.SetSelection(evaluator.Selection{Exercise: exercise.Squat}))
	f.detector.SetLandmarks(detector.SquatBottomPose())

	start := time.Unix(2000, 0)
	f.app.beginSession(f.app.Selection(), start)
	for i := 0; i < 10; i++ {
		f.app.processFrame(nil, start.Add(time.Duration(i)*50*time.Millisecond))
	}
	f.app.finishSession(start.Add(time.Second))

	sessions, err := f.store.Sessions().List(0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	got, err := f.store.Sessions().GetByID(sessions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "squat", got.Exercise)
	assert.Equal(t, 10, got.Frames)
	assert.Equal(t, 10, got.EvaluatedFrames)
	assert.Equal(t, time.Second, got.Duration())
	require.Len(t, got.Joints, 4)
	assert.Equal(t, "leftKnee", got.Joints[0].Joint)
	assert.InDelta(t, 83.6, got.Joints[0].MeanAngle, 0.5)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.app.Metrics().CounterSessions))

	t.Run("nothing evaluated is not saved", func(t *testing.T) {
		f.app.beginSession(f.app.Selection(), start)
		f.detector.SetLandmarks(nil)
		f.app.processFrame(nil, start.Add(time.Hour))
		f.app.finishSession(start.Add(2 * time.Hour))

		sessions, err := f.store.Sessions().List(0)
		require.NoError(t, err)
		assert.Len(t, sessions, 1)
	})
}

func TestStartStop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	det := detector.NewMockDetector()
	det.SetLandmarks(detector.StandingPose())
	cam := capture.NewBlankMockCamera(320, 240)

	a := New(Config{Camera: cam, Detector: det, Metrics: metrics.NewTestManager(), RenderFPS: 60})
	require.NoError(t, a.SetSelection(evaluator.Selection{Exercise: exercise.Squat}))
	a.SetEnabled(true)

	require.NoError(t, a.Start())
	require.NoError(t, a.Start(), "start is idempotent")
	assert.True(t, a.IsRunning())

	require.Eventually(t, func() bool {
		_, seq := a.Snapshot()
		return seq > 2
	}, 2*time.Second, 10*time.Millisecond)

	jpeg, _ := a.Snapshot()
	assert.Equal(t, []byte{0xFF, 0xD8}, jpeg[:2])
	assert.NotEmpty(t, a.Latest().Result.Joints)

	require.NoError(t, a.Stop())
	require.NoError(t, a.Stop(), "stop is idempotent")
	assert.False(t, a.IsRunning())
	assert.False(t, cam.IsOpen())
	assert.True(t, det.Closed())
	assert.Equal(t, 0.0, testutil.ToFloat64(a.Metrics().GaugeTracking))

	require.NoError(t, a.Close())
}

func TestStart_Disabled(t *testing.T) {
	f := newFixture(t, false)
	cam := f.app.Camera().(*capture.MockCamera)

	require.NoError(t, f.app.Start())
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, f.app.Stop())

	assert.Zero(t, cam.Reads(), "a disabled app does not read frames")
	assert.Zero(t, f.detector.Calls())
}

func TestSession_OnSessionFinished(t *testing.T) {
	det := detector.NewMockDetector()
	det.SetLandmarks(detector.SquatBottomPose())

	var finished []*store.Session
	a := New(Config{
		Camera:            capture.NewMockCamera(nil, false),
		Detector:          det,
		Metrics:           metrics.NewTestManager(),
		OnSessionFinished: func(s *store.Session) { finished = append(finished, s) },
	})
	defer a.Close()
	require.NoError(t, a.SetSelection(evaluator.Selection{Exercise: exercise.Squat}))

	start := time.Unix(3000, 0)
	a.beginSession(a.Selection(), start)
	a.processFrame(nil, start)
	a.finishSession(start.Add(time.Second))

	require.Len(t, finished, 1)
	assert.Equal(t, "squat", finished[0].Exercise)
	assert.Equal(t, 1, finished[0].EvaluatedFrames)
	assert.Equal(t, 0.0, testutil.ToFloat64(a.Metrics().CounterSessions), "nothing stored without a store")
}
