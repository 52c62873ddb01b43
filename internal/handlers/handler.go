package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/hookstore/internal/health"
	"github.com/eldtechnologies/hookstore/internal/ingest"
	"github.com/eldtechnologies/hookstore/internal/query"
	"github.com/eldtechnologies/hookstore/internal/stats"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	pipeline  *ingest.Pipeline
	engine    *query.Engine
	stats     *stats.Aggregator
	readiness *health.Evaluator
	logger    zerolog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(pipeline *ingest.Pipeline, engine *query.Engine, agg *stats.Aggregator, readiness *health.Evaluator, logger zerolog.Logger) *Handler {
	return &Handler{
		pipeline:  pipeline,
		engine:    engine,
		stats:     agg,
		readiness: readiness,
		logger:    logger,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// storageUnavailable logs err and answers 503 without exposing it.
func (h *Handler) storageUnavailable(w http.ResponseWriter, r *http.Request, err error, op string) {
	h.logger.Error().Err(err).Str("op", op).Str("path", r.URL.Path).Msg("storage unavailable")
	h.Error(w, http.StatusServiceUnavailable, "storage unavailable")
}
