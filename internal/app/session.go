package app

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/formcheck/internal/evaluator"
	"github.com/ayusman/formcheck/internal/feedback"
	"github.com/ayusman/formcheck/internal/pose"
	"github.com/ayusman/formcheck/internal/store"
)

type jointAccum struct {
	stats    store.JointStats
	angleSum float64
	samples  int
}

// sessionTracker aggregates frame results between Start and Stop or between
// two selection changes.
type sessionTracker struct {
	selection   evaluator.Selection
	started     time.Time
	frames      int
	evaluated   int
	correct     int
	progressSum float64
	joints      map[pose.Joint]*jointAccum
	order       []pose.Joint
}

func newSessionTracker(sel evaluator.Selection, now time.Time) *sessionTracker {
	return &sessionTracker{
		selection: sel,
		started:   now,
		joints:    make(map[pose.Joint]*jointAccum),
	}
}

func (s *sessionTracker) add(r evaluator.FrameResult) {
	s.frames++
	if len(r.Joints) == 0 {
		return
	}

	s.evaluated++
	s.progressSum += r.Progress
	if r.IsCorrect {
		s.correct++
	}

	for _, j := range r.Joints {
		acc, ok := s.joints[j.Joint]
		if !ok {
			acc = &jointAccum{stats: store.JointStats{Joint: string(j.Joint)}}
			s.joints[j.Joint] = acc
			s.order = append(s.order, j.Joint)
		}
		acc.angleSum += j.Angle
		acc.samples++

		switch j.State {
		case feedback.StateGood:
			acc.stats.Good++
		case feedback.StateWarning:
			acc.stats.Warning++
		case feedback.StateDanger:
			acc.stats.Danger++
		case feedback.StateDeadZone:
			acc.stats.DeadZone++
		}
	}
}

func (s *sessionTracker) summary(end time.Time) *store.Session {
	out := &store.Session{
		Exercise:        string(s.selection.Exercise),
		Manual:          s.selection.Manual,
		StartedAt:       s.started,
		EndedAt:         end,
		Frames:          s.frames,
		EvaluatedFrames: s.evaluated,
		CorrectFrames:   s.correct,
	}
	if s.selection.Manual {
		out.Exercise = ""
	}
	if s.evaluated > 0 {
		out.MeanProgress = s.progressSum / float64(s.evaluated)
	}
	for _, j := range s.order {
		acc := s.joints[j]
		stats := acc.stats
		if acc.samples > 0 {
			stats.MeanAngle = acc.angleSum / float64(acc.samples)
		}
		out.Joints = append(out.Joints, stats)
	}
	return out
}

func (a *App) beginSession(sel evaluator.Selection, now time.Time) {
	a.sessMu.Lock()
	defer a.sessMu.Unlock()
	a.session = newSessionTracker(sel, now)
}

// finishSession stores the running session if any frame was evaluated.
func (a *App) finishSession(now time.Time) {
	a.sessMu.Lock()
	tracker := a.session
	a.session = nil
	a.sessMu.Unlock()

	if tracker == nil || tracker.evaluated == 0 {
		return
	}

	summary := tracker.summary(now)
	if a.config.Store == nil {
		log.Debugf("session finished without store: %d frames, mean progress %.1f", summary.Frames, summary.MeanProgress)
	} else {
		if err := a.config.Store.Sessions().Create(summary); err != nil {
			log.Errorf("save session: %s", err)
			return
		}
		a.metrics.CounterSessions.Inc()
		log.Infof("session %s saved: %d evaluated frames, mean progress %.1f", summary.ID, summary.EvaluatedFrames, summary.MeanProgress)
	}

	if a.config.OnSessionFinished != nil {
		a.config.OnSessionFinished(summary)
	}
}
