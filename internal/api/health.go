package api

import (
	"net/http"
	"time"
)

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
}

type HealthHandler struct {
	version           string
	startTime         time.Time
	transcribeBaseURL string
	backendConfigured bool
}

func NewHealthHandler(version string, startTime time.Time, transcribeBaseURL string, backendConfigured bool) *HealthHandler {
	return &HealthHandler{
		version:           version,
		startTime:         startTime,
		transcribeBaseURL: transcribeBaseURL,
		backendConfigured: backendConfigured,
	}
}

// ServeHTTP handles GET /api/health. Checks report configuration, not
// upstream reachability; the relay makes no probe calls on behalf of a
// health poll.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"transcribe": "configured",
		"backend":    "configured",
	}
	if h.transcribeBaseURL == "" {
		checks["transcribe"] = "unconfigured"
	}
	if !h.backendConfigured {
		checks["backend"] = "unconfigured"
	}

	status := "ok"
	if checks["transcribe"] == "unconfigured" {
		status = "degraded"
	}

	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
	})
}
