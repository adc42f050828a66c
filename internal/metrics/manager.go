package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Detection outcomes used as the "result" label.
const (
	DetectionOK     = "ok"
	DetectionEmpty  = "empty"
	DetectionError  = "error"
	DetectionCached = "cached"
)

type Manager struct {
	// counters
	CounterRequests    *prometheus.CounterVec
	CounterFrames      prometheus.Counter
	CounterDetections  *prometheus.CounterVec
	CounterJointStates *prometheus.CounterVec
	CounterSessions    prometheus.Counter
	CounterPanics      prometheus.Counter

	// gauges
	GaugeProgress    prometheus.Gauge
	GaugeTracking    prometheus.Gauge
	GaugeSubscribers prometheus.Gauge

	// histograms
	HistDetectionDuration prometheus.Histogram
	HistRequestDuration   prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("formcheck", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("formcheck", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming HTTP requests",
	}, []string{"method", "status"})
	counterFrames := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "frames_processed",
		Help:      "The total number of rendered frames",
	})
	counterDetections := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "detections",
		Help:      "Pose detections by result",
	}, []string{"result"})
	counterJointStates := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "joint_states",
		Help:      "Evaluated joints by exercise and state",
	}, []string{"exercise", "state"})
	counterSessions := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sessions_saved",
		Help:      "The total number of stored tracking sessions",
	})

	counterPanics := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})

	gaugeProgress := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "form_progress",
		Help:      "Share of good joints in the latest evaluated frame, in percent",
	})
	gaugeTracking := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "tracking",
		Help:      "1 while the capture loop is running",
	})
	gaugeSubscribers := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "feedback_subscribers",
		Help:      "Connected live feedback clients",
	})

	histDetectionDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   []float64{0.005, 0.01, 0.02, 0.03, 0.04, 0.05, 0.075, 0.1, 0.25, 0.5, 1},
		Name:      "detection_duration_seconds",
		Help:      "Duration of one pose detection call in seconds",
	})
	histRequestDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 1, 10, 60},
		Name:      "request_duration_seconds",
		Help:      "Total duration of HTTP requests in seconds",
	})

	return &Manager{
		CounterRequests:       counterRequests,
		CounterFrames:         counterFrames,
		CounterDetections:     counterDetections,
		CounterJointStates:    counterJointStates,
		CounterSessions:       counterSessions,
		CounterPanics:         counterPanics,
		GaugeProgress:         gaugeProgress,
		GaugeTracking:         gaugeTracking,
		GaugeSubscribers:      gaugeSubscribers,
		HistDetectionDuration: histDetectionDuration,
		HistRequestDuration:   histRequestDuration,
	}
}
