package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/police-investigations-api/models"
)

// New creates a new mux router with the liveness and metrics routes and the
// shared middleware chain. Timeouts apply only when timeout is positive.
func New(metrics *Metrics, timeout time.Duration) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", HealthCheckHandler).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	r.Use(metrics.Middleware)
	if timeout > 0 {
		r.Use(TimeoutMiddleware(timeout))
	}
	return r
}

// HealthCheckHandler reports that the process is serving
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
