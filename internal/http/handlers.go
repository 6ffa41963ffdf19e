package http

import (
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}).Write(w)
}

// handleReady reports whether the catalog is loaded and the poller runs.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.catalog == nil {
		checks["catalog"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		snap := s.catalog.Snapshot()
		checks["catalog"] = map[string]any{
			"status":     "ok",
			"categories": len(snap.Categories),
			"games":      snap.TotalGames(),
		}
	}

	switch {
	case s.scheduler == nil:
		checks["scheduler"] = "not_configured"
	case s.scheduler.IsRunning():
		checks["scheduler"] = "running"
	default:
		checks["scheduler"] = "stopped"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}
