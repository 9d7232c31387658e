package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const timeoutBody = `{"error": "Request timeout", "message": "The request took too long to process"}`

// TimeoutMiddleware bounds every request by timeout. The wrapped handler
// writes into a buffer, so a request that runs past its deadline never
// races the timeout response. WebSocket upgrades are long lived and are not
// bounded.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		bounded := http.TimeoutHandler(next, timeout, timeoutBody)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if websocket.IsWebSocketUpgrade(r) {
				next.ServeHTTP(w, r)
				return
			}
			tw := &timeoutWriter{ResponseWriter: w}
			bounded.ServeHTTP(tw, r)
			if tw.status == http.StatusServiceUnavailable && r.Context().Err() == nil {
				zap.S().Warnw("Request timeout",
					"path", r.URL.Path,
					"method", r.Method,
					"timeout", timeout)
			}
		})
	}
}

// timeoutWriter sets the JSON content type on the timeout body, which
// http.TimeoutHandler writes without one
type timeoutWriter struct {
	http.ResponseWriter
	status int
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.status = code
	if code == http.StatusServiceUnavailable && tw.Header().Get("Content-Type") == "" {
		tw.Header().Set("Content-Type", "application/json")
	}
	tw.ResponseWriter.WriteHeader(code)
}
