package handlers

import (
	"net/http"
	"time"
)

// HealthHandler serves unauthenticated liveness/readiness probes.
type HealthHandler struct {
	startTime time.Time
	ready     func() bool
}

// NewHealthHandler builds a HealthHandler. ready reports whether the
// SMB2 listener has bound its address; nil means always ready.
func NewHealthHandler(ready func() bool) *HealthHandler {
	return &HealthHandler{startTime: time.Now(), ready: ready}
}

// Liveness handles GET /health: the process is running.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)
	writeJSON(w, http.StatusOK, okResponse(map[string]interface{}{
		"service":    "smbd",
		"started_at": h.startTime.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
	}))
}

// Readiness handles GET /health/ready: the SMB2 listener is bound and
// accepting connections.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil && !h.ready() {
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Status:    "error",
			Timestamp: time.Now().UTC(),
			Error:     "smb2 listener not ready",
		})
		return
	}
	writeJSON(w, http.StatusOK, okResponse(nil))
}
