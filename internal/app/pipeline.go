package app

import (
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/formcheck/internal/evaluator"
	"github.com/ayusman/formcheck/internal/metrics"
	"github.com/ayusman/formcheck/internal/pose"
	"github.com/ayusman/formcheck/internal/render"
)

// runPipeline reads frames at the render rate until stop is closed.
func (a *App) runPipeline(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second / time.Duration(a.config.RenderFPS))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Debugf("read frame: %s", err)
				continue
			}

			a.processFrame(frame, a.config.Now())
			frame.Close()
		}
	}
}

// processFrame evaluates one frame. The detector runs on a fixed
// DetectionInterval schedule independent of the render rate; in between, and
// while the motion gate reports a still scene, the cached landmarks are
// reused. A nil frame is evaluated without rendering a snapshot.
func (a *App) processFrame(frame *gocv.Mat, now time.Time) evaluator.FrameResult {
	a.metrics.CounterFrames.Inc()

	if a.detectionDue(now) {
		a.advanceDetection(now)
		if a.motion.Enabled() && frame != nil {
			if moved, _ := a.motion.Check(frame); !moved {
				a.metrics.CounterDetections.WithLabelValues(metrics.DetectionCached).Inc()
				return a.evaluate(frame, now)
			}
		}
		a.detect(frame)
	} else {
		a.metrics.CounterDetections.WithLabelValues(metrics.DetectionCached).Inc()
	}

	return a.evaluate(frame, now)
}

func (a *App) detectionDue(now time.Time) bool {
	return a.lastDetection.IsZero() || now.Sub(a.lastDetection) >= a.config.DetectionInterval
}

// advanceDetection moves the schedule forward by one interval so render ticks
// that land just past a slot do not push later slots back. After a stall
// longer than two intervals the schedule restarts at now.
func (a *App) advanceDetection(now time.Time) {
	interval := a.config.DetectionInterval
	if !a.lastDetection.IsZero() && now.Sub(a.lastDetection) < 2*interval {
		a.lastDetection = a.lastDetection.Add(interval)
		return
	}
	a.lastDetection = now
}

// detect runs the detector and updates the smoothing state. A failed or
// empty detection clears it so the next person is picked up fresh.
func (a *App) detect(frame *gocv.Mat) {
	d := a.Detector()
	if d == nil {
		return
	}

	start := time.Now()
	raw, err := d.Detect(frame)
	a.metrics.HistDetectionDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		log.Warnf("pose detection: %s", err)
		a.metrics.CounterDetections.WithLabelValues(metrics.DetectionError).Inc()
		a.smoothed, a.cached = nil, nil
	case len(raw) == 0:
		a.metrics.CounterDetections.WithLabelValues(metrics.DetectionEmpty).Inc()
		a.smoothed, a.cached = nil, nil
	default:
		a.metrics.CounterDetections.WithLabelValues(metrics.DetectionOK).Inc()
		a.smoothed = pose.Smooth(raw, a.smoothed)
		a.cached = pose.Landmarks(a.smoothed)
	}
}

func (a *App) evaluate(frame *gocv.Mat, now time.Time) evaluator.FrameResult {
	result := evaluator.Evaluate(a.cached, a.Selection())

	label := string(result.Exercise)
	if label == "" {
		label = "manual"
	}
	for _, j := range result.Joints {
		a.metrics.CounterJointStates.WithLabelValues(label, string(j.State)).Inc()
	}
	if len(result.Joints) > 0 {
		a.metrics.GaugeProgress.Set(result.Progress)
	}

	a.sessMu.Lock()
	if a.session != nil {
		a.session.add(result)
	}
	a.sessMu.Unlock()

	update := Update{Result: result, Landmarks: a.cached, Timestamp: now.UnixMilli()}
	a.storeSnapshot(frame, update)
	a.publish(update)

	return result
}

func (a *App) storeSnapshot(frame *gocv.Mat, update Update) {
	var jpeg []byte
	if frame != nil && !frame.Empty() {
		annotated := frame.Clone()
		render.Overlay(&annotated, update.Landmarks, update.Result, *a.config.Style)
		data, err := render.EncodeJPEG(&annotated, a.config.JPEGQuality)
		annotated.Close()
		if err != nil {
			log.Debugf("snapshot: %s", err)
		} else {
			jpeg = data
		}
	}

	a.snapMu.Lock()
	a.latest = update
	if jpeg != nil {
		a.snapshot = jpeg
		a.snapSeq++
	}
	a.snapMu.Unlock()
}
