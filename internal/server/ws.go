package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/formcheck/internal/app"
	"github.com/ayusman/formcheck/internal/metrics"
	"github.com/ayusman/formcheck/internal/pose"
	"github.com/ayusman/formcheck/internal/server/api"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	// feedbackBuffer updates are queued per client; older ones are dropped
	// while a client is slow.
	feedbackBuffer = 8
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// UpdateSource publishes evaluated frames.
type UpdateSource interface {
	Subscribe(fn func(app.Update)) (unsubscribe func())
	Latest() app.Update
}

type feedbackMessage struct {
	Result    api.FrameFeedback `json:"result"`
	Landmarks []pose.Landmark   `json:"landmarks,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

func newFeedbackMessage(u app.Update) feedbackMessage {
	return feedbackMessage{
		Result:    api.NewFrameFeedback(u.Result),
		Landmarks: u.Landmarks,
		Timestamp: u.Timestamp,
	}
}

// FeedbackHandler pushes per-frame form feedback to WebSocket clients.
type FeedbackHandler struct {
	source  UpdateSource
	metrics *metrics.Manager
	done    <-chan struct{}
}

// NewFeedbackHandler creates a FeedbackHandler reading from source. Closing
// done sends every client a going-away close frame.
func NewFeedbackHandler(source UpdateSource, m *metrics.Manager, done <-chan struct{}) *FeedbackHandler {
	return &FeedbackHandler{source: source, metrics: m, done: done}
}

// ServeHTTP upgrades the request and streams updates until the client leaves.
// A client that connects mid-session first receives the latest update.
func (h *FeedbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("websocket upgrade error: %s", err)
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.GaugeSubscribers.Inc()
		defer h.metrics.GaugeSubscribers.Dec()
	}

	updates := make(chan app.Update, feedbackBuffer)
	unsubscribe := h.source.Subscribe(func(u app.Update) {
		select {
		case updates <- u:
		default:
		}
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go readLoop(conn, closed)

	if latest := h.source.Latest(); latest.Timestamp != 0 {
		if err := writeFeedback(conn, latest); err != nil {
			return
		}
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-h.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		case u := <-updates:
			if err := writeFeedback(conn, u); err != nil {
				log.Debugf("feedback client gone: %s", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func writeFeedback(conn *websocket.Conn, u app.Update) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(newFeedbackMessage(u))
}

// readLoop discards client messages and closes done when the connection ends.
func readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
