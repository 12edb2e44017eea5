package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-adapter/internal/adapter"
)

// healthCheckTimeout bounds the whole /health evaluation.
const healthCheckTimeout = 3 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.metrics.middleware)
	r.Use(bodySizeLimitMiddleware)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Put("/log-level", s.handleSetLogLevel)
	})

	return r
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

// handleHealth reports "ok" only when the broker session and every extra
// dependency check pass.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Version: s.version, Checks: map[string]string{}}
	record := func(name string, err error) {
		if err != nil {
			resp.Status = "degraded"
			resp.Checks[name] = err.Error()
			return
		}
		resp.Checks[name] = "ok"
	}

	record("mqtt", s.adapter.HealthCheck(ctx))
	for name, check := range s.checks {
		record(name, check(ctx))
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// statusResponse is the body of GET /api/v1/status.
type statusResponse struct {
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Adapter       adapter.Status `json:"adapter"`
}

// handleStatus returns the adapter status snapshot.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Adapter:       s.adapter.Status(),
	})
}

// logLevelRequest is the body of PUT /api/v1/log-level.
type logLevelRequest struct {
	Level string `json:"level"`
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}

// handleSetLogLevel changes the level of the server's logger tree.
func (s *Server) handleSetLogLevel(w http.ResponseWriter, r *http.Request) {
	var req logLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if !validLevels[req.Level] {
		writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, "level must be debug, info, warn or error")
		return
	}

	s.logger.SetLevel(req.Level)
	s.logger.Info("log level changed", "level", s.logger.Level().String())
	writeJSON(w, http.StatusOK, map[string]string{"level": s.logger.Level().String()})
}
