// Package execution provides the code execution API surface.
//
// Execution is not implemented; the endpoints accept requests and return
// canned envelopes so the client contract is stable while the sandboxed
// runner is built out.
package execution

import (
	"net/http"
	"time"

	"github.com/codehaven/codehaven/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler provides execution API handlers.
type Handler struct {
	logger *zap.Logger
}

// NewHandler creates a new execution Handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{logger: logger}
}

// Routes returns a router with the execution API endpoints.
//
// When mounted at /api/v1/execution:
//   - POST /api/v1/execution/run                       - queue a run
//   - GET  /api/v1/execution/{executionID}/status      - run status
//   - POST /api/v1/execution/{executionID}/terminate   - terminate a run
//   - GET  /api/v1/execution/containers/status         - runner health
func Routes(h *Handler, requireUser func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requireUser)

	r.Post("/run", h.run)
	r.Get("/containers/status", h.containers)
	r.Get("/{executionID}/status", h.status)
	r.Post("/{executionID}/terminate", h.terminate)

	return r
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code      string `json:"code"`
		Language  string `json:"language"`
		ProjectID string `json:"projectId"`
	}
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	h.logger.Info("code execution requested",
		zap.String("language", req.Language),
		zap.String("project_id", req.ProjectID),
		zap.Int("code_length", len(req.Code)),
	)

	jsonutil.OK(w, map[string]any{
		"message":     "Code execution - To be implemented",
		"executionId": "exec_" + uuid.NewString(),
		"status":      "queued",
		"language":    req.Language,
		"projectId":   req.ProjectID,
	})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	executionID := chi.URLParam(r, "executionID")
	h.logger.Info("execution status requested", zap.String("execution_id", executionID))

	jsonutil.OK(w, map[string]any{
		"executionId": executionID,
		"status":      "completed",
		"output":      "Hello, World!\n",
		"error":       nil,
		"duration":    1250,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) terminate(w http.ResponseWriter, r *http.Request) {
	executionID := chi.URLParam(r, "executionID")
	h.logger.Info("execution termination requested", zap.String("execution_id", executionID))

	jsonutil.OK(w, map[string]any{
		"message":     "Execution termination - To be implemented",
		"executionId": executionID,
		"status":      "terminated",
	})
}

func (h *Handler) containers(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC().Format(time.RFC3339)
	jsonutil.OK(w, map[string]any{
		"containers": map[string]any{
			"python": map[string]any{
				"status":   "healthy",
				"lastUsed": now,
			},
			"javascript": map[string]any{
				"status":   "healthy",
				"lastUsed": now,
			},
		},
	})
}
