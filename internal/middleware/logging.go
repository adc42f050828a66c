package middleware

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// LogRequests writes one trace line per finished request. Long-lived
// requests such as the feedback socket and the MJPEG stream are logged when
// they end.
func LogRequests() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			begin := time.Now()
			next.ServeHTTP(w, r)

			log.WithFields(log.Fields{
				"method":  r.Method,
				"path":    r.URL.Path,
				"remote":  r.RemoteAddr,
				"elapsed": time.Since(begin).Round(time.Microsecond),
			}).Trace("http request")
		})
	}
}
