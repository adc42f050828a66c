package middleware

import (
	"io"
	"net/http"
)

// DefaultDrainLimit bounds how much of an unread request body is discarded.
const DefaultDrainLimit = 64 << 10

// DrainBody discards at most limit unread body bytes once the handler returns
// and closes the body. Short leftovers keep the connection reusable; a larger
// remainder is left for net/http to close the connection over.
func DrainBody(limit int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body != nil {
				_, _ = io.CopyN(io.Discard, r.Body, limit)
				_ = r.Body.Close()
			}
		})
	}
}
