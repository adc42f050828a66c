// Package app runs the live capture loop: frames in, pose detection at a
// throttled rate, smoothed landmarks evaluated and fanned out to listeners.
package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/ayusman/formcheck/internal/capture"
	"github.com/ayusman/formcheck/internal/detector"
	"github.com/ayusman/formcheck/internal/evaluator"
	"github.com/ayusman/formcheck/internal/metrics"
	"github.com/ayusman/formcheck/internal/pose"
	"github.com/ayusman/formcheck/internal/render"
	"github.com/ayusman/formcheck/internal/store"
)

// Pipeline timing defaults.
const (
	// DefaultDetectionInterval limits detector calls to 25 per second.
	DefaultDetectionInterval = 40 * time.Millisecond
	// DefaultRenderFPS is the rate at which frames are read and evaluated.
	DefaultRenderFPS   = 30
	DefaultJPEGQuality = 75
)

// Config holds configuration options for the application.
// Nil Camera and Detector are built from CaptureConfig and DetectorConfig.
type Config struct {
	Store    *store.Store
	Metrics  *metrics.Manager
	Camera   capture.Camera
	Detector detector.Detector

	CaptureConfig   capture.Config
	DetectorConfig  detector.Config
	UseMockDetector bool

	DetectionInterval time.Duration
	RenderFPS         int
	MotionThresh      float64
	JPEGQuality       int
	Style             *render.Style

	// Now replaces the wall clock, mainly in tests.
	Now func() time.Time

	// OnSessionFinished receives every finished session that evaluated at
	// least one frame. It runs on the goroutine that ended the session.
	OnSessionFinished func(*store.Session)
}

func (c *Config) applyDefaults() {
	if c.DetectionInterval <= 0 {
		c.DetectionInterval = DefaultDetectionInterval
	}
	if c.RenderFPS <= 0 {
		c.RenderFPS = DefaultRenderFPS
	}
	if c.JPEGQuality <= 0 {
		c.JPEGQuality = DefaultJPEGQuality
	}
	if c.Style == nil {
		style := render.DefaultStyle()
		c.Style = &style
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Metrics == nil {
		c.Metrics = metrics.NewManager("formcheck", "app", prometheus.NewRegistry())
	}
}

// Update is one evaluated frame as delivered to subscribers.
type Update struct {
	Result    evaluator.FrameResult `json:"result"`
	Landmarks []pose.Landmark       `json:"landmarks,omitempty"`
	Timestamp int64                 `json:"timestamp"`
}

// App owns the camera, the detector and the per-run tracking state.
type App struct {
	config   Config
	camera   capture.Camera
	motion   *capture.MotionGate
	detector detector.Detector
	metrics  *metrics.Manager

	mu        sync.RWMutex
	enabled   bool
	selection evaluator.Selection
	stopCh    chan struct{}
	doneCh    chan struct{}

	// Owned by the pipeline goroutine.
	lastDetection time.Time
	smoothed      []pose.SmoothedLandmark
	cached        []pose.Landmark

	subMu    sync.Mutex
	subs     map[int]func(Update)
	watchers map[int]func(State)
	nextSub  int

	snapMu   sync.RWMutex
	snapshot []byte
	snapSeq  uint64
	latest   Update

	sessMu  sync.Mutex
	session *sessionTracker
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	config.applyDefaults()

	a := &App{
		config:   config,
		camera:   config.Camera,
		motion:   capture.NewMotionGate(config.MotionThresh),
		detector: config.Detector,
		metrics:  config.Metrics,
		subs:     make(map[int]func(Update)),
		watchers: make(map[int]func(State)),
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(config.CaptureConfig)
	}

	if a.detector == nil {
		a.detector = newDetector(config)
	}

	return a
}

// newDetector prefers MediaPipe and falls back to the mock detector.
func newDetector(config Config) detector.Detector {
	if config.UseMockDetector {
		log.Infoln("using mock pose detector")
		return detector.NewMockDetector()
	}
	mp, err := detector.NewMediaPipeDetector(config.DetectorConfig)
	if err != nil {
		log.Warnf("MediaPipe not available (%s), using mock detector", err)
		return detector.NewMockDetector()
	}
	log.Infoln("using MediaPipe pose detection")
	return mp
}

// SetEnabled pauses or resumes frame processing without stopping the loop.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	a.mu.Unlock()

	if changed {
		a.notifyState()
	}
}

func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// IsRunning reports whether the capture loop is active.
func (a *App) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// SetDetector replaces the pose detector implementation.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

func (a *App) Camera() capture.Camera {
	return a.camera
}

func (a *App) Metrics() *metrics.Manager {
	return a.metrics
}

// Selection returns the current exercise or manual joint selection.
func (a *App) Selection() evaluator.Selection {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.selection
}

// SetSelection validates and applies sel, persists it when a store is
// configured and starts a new session for the new selection.
func (a *App) SetSelection(sel evaluator.Selection) error {
	if err := sel.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	a.selection = sel
	running := a.stopCh != nil
	a.mu.Unlock()

	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetJSON(store.SettingSelection, sel); err != nil {
			return fmt.Errorf("persist selection: %w", err)
		}
	}

	if running {
		now := a.config.Now()
		a.finishSession(now)
		a.beginSession(sel, now)
	}

	log.Debugf("selection changed: %+v", sel)
	a.notifyState()
	return nil
}

// LoadSelection restores the persisted selection. A missing setting is not an error.
func (a *App) LoadSelection() error {
	if a.config.Store == nil {
		return nil
	}

	var sel evaluator.Selection
	err := a.config.Store.Settings().GetJSON(store.SettingSelection, &sel)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := sel.Validate(); err != nil {
		log.Warnf("ignoring stored selection: %s", err)
		return nil
	}

	a.mu.Lock()
	a.selection = sel
	a.mu.Unlock()
	return nil
}

// Subscribe registers fn for every evaluated frame. fn runs on the pipeline
// goroutine and must not block. The returned function unsubscribes.
func (a *App) Subscribe(fn func(Update)) (unsubscribe func()) {
	a.subMu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = fn
	a.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.subMu.Lock()
			delete(a.subs, id)
			a.subMu.Unlock()
		})
	}
}

// State is the user-controlled part of the app: the pause switch and the
// selection.
type State struct {
	Enabled   bool
	Selection evaluator.Selection
}

// WatchState registers fn for every change of State, whichever surface made
// it. fn runs on the changing goroutine. The returned function unregisters.
func (a *App) WatchState(fn func(State)) (unwatch func()) {
	a.subMu.Lock()
	id := a.nextSub
	a.nextSub++
	a.watchers[id] = fn
	a.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.subMu.Lock()
			delete(a.watchers, id)
			a.subMu.Unlock()
		})
	}
}

func (a *App) notifyState() {
	a.mu.RLock()
	state := State{Enabled: a.enabled, Selection: a.selection}
	a.mu.RUnlock()

	a.subMu.Lock()
	fns := make([]func(State), 0, len(a.watchers))
	for _, fn := range a.watchers {
		fns = append(fns, fn)
	}
	a.subMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

func (a *App) publish(u Update) {
	a.subMu.Lock()
	fns := make([]func(Update), 0, len(a.subs))
	for _, fn := range a.subs {
		fns = append(fns, fn)
	}
	a.subMu.Unlock()

	for _, fn := range fns {
		fn(u)
	}
}

// Latest returns the most recent update.
func (a *App) Latest() Update {
	a.snapMu.RLock()
	defer a.snapMu.RUnlock()
	return a.latest
}

// Snapshot returns the latest annotated JPEG frame and its sequence number.
// The sequence is zero until a frame was rendered.
func (a *App) Snapshot() ([]byte, uint64) {
	a.snapMu.RLock()
	defer a.snapMu.RUnlock()
	return a.snapshot, a.snapSeq
}

// Start opens the camera and begins the capture loop. Starting a running
// app is a no-op.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	a.camera.SetFPS(a.config.RenderFPS)

	a.resetTracking()
	a.beginSession(a.selection, a.config.Now())

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	a.metrics.GaugeTracking.Set(1)
	log.Infoln("capture pipeline started")
	return nil
}

// Stop halts the capture loop, waits for it to exit, stores the session
// summary and releases the camera and detector. Stopping a stopped app is a
// no-op.
func (a *App) Stop() error {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return nil
	}

	close(stopCh)
	<-doneCh

	a.finishSession(a.config.Now())

	var err error
	if cerr := a.camera.Close(); cerr != nil {
		err = multierr.Append(err, fmt.Errorf("close camera: %w", cerr))
	}
	if d := a.Detector(); d != nil {
		if derr := d.Close(); derr != nil {
			err = multierr.Append(err, fmt.Errorf("close detector: %w", derr))
		}
	}
	a.motion.Reset()

	a.metrics.GaugeTracking.Set(0)
	log.Infoln("capture pipeline stopped")
	return err
}

// Close stops the app and frees native resources.
func (a *App) Close() error {
	err := a.Stop()
	a.motion.Close()
	return err
}

func (a *App) resetTracking() {
	a.lastDetection = time.Time{}
	a.smoothed = nil
	a.cached = nil
}
