package handlers

import (
	"context"
	"net/http"
	"time"
)

const version = "1.0.0"

// Check represents the status of a readiness check.
type Check struct {
	Status  string `json:"status"`            // "pass" or "fail"
	Latency string `json:"latency,omitempty"` // e.g., "2ms"
	Message string `json:"message,omitempty"`
}

// ReadyResponse represents the readiness response.
type ReadyResponse struct {
	Status    string           `json:"status"` // "ready" or "not ready"
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
	Timestamp string           `json:"timestamp"`
}

// Live reports that the process is up. It checks nothing else.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Ready reports whether the service can take traffic: database
// reachable, schema applied and webhook secret configured.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	report := h.readiness.Evaluate(ctx)

	checks := make(map[string]Check, len(report.Checks))
	for _, c := range report.Checks {
		check := Check{Status: "pass"}
		if c.OK {
			if c.Latency > 0 {
				check.Latency = c.Latency.String()
			}
		} else {
			check = Check{Status: "fail", Message: c.Message}
		}
		checks[c.Name] = check
	}

	status := "ready"
	statusCode := http.StatusOK
	if !report.Ready {
		status = "not ready"
		statusCode = http.StatusServiceUnavailable
		h.logger.Warn().
			Err(report.Err).
			Str("check", report.Failed).
			Msg("readiness check failed")
	}

	h.JSON(w, statusCode, ReadyResponse{
		Status:    status,
		Version:   version,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// RootResponse represents the root endpoint response.
type RootResponse struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

// Root handles the root endpoint.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, RootResponse{
		Name:    "hookstore",
		Version: version,
		Endpoints: []string{
			"POST /webhook",
			"GET /messages",
			"GET /stats",
			"GET /health/live",
			"GET /health/ready",
			"GET /metrics",
		},
	})
}
