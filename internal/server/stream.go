package server

import (
	"fmt"
	"net/http"
	"time"
)

// streamPoll is how often the stream checks for a newer snapshot.
const streamPoll = 15 * time.Millisecond

// SnapshotSource provides the latest annotated JPEG frame.
type SnapshotSource interface {
	Snapshot() ([]byte, uint64)
}

// StreamHandler serves the annotated frames as MJPEG.
type StreamHandler struct {
	source SnapshotSource
	done   <-chan struct{}
}

// NewStreamHandler creates a new StreamHandler reading from source. Open
// streams end when done is closed; a nil done never fires.
func NewStreamHandler(source SnapshotSource, done <-chan struct{}) *StreamHandler {
	return &StreamHandler{source: source, done: done}
}

// ServeHTTP streams each new snapshot once until the client disconnects or
// the server shuts down.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	ticker := time.NewTicker(streamPoll)
	defer ticker.Stop()

	var lastSeq uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
		}

		data, seq := h.source.Snapshot()
		if seq == lastSeq || len(data) == 0 {
			continue
		}
		lastSeq = seq

		if err := writePart(w, data); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func writePart(w http.ResponseWriter, data []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "\r\n")
	return err
}
