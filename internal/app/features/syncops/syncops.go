// Package syncops provides the bulk sync API surface.
//
// Per-file sync happens inline through the sync engine on every content
// read and write. These endpoints cover bulk upload/download of whole
// projects, which is not implemented; they return canned envelopes so the
// client contract is stable.
package syncops

import (
	"net/http"
	"time"

	"github.com/codehaven/codehaven/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler provides bulk sync API handlers.
type Handler struct {
	logger *zap.Logger
}

// NewHandler creates a new syncops Handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{logger: logger}
}

// Routes returns a router with the bulk sync API endpoints.
//
// When mounted at /api/v1/sync:
//   - POST /api/v1/sync/upload                  - bulk upload a project
//   - POST /api/v1/sync/download                - bulk download a project
//   - GET  /api/v1/sync/{operationID}/status    - operation status
func Routes(h *Handler, requireUser func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requireUser)

	r.Post("/upload", h.upload)
	r.Post("/download", h.download)
	r.Get("/{operationID}/status", h.status)

	return r
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID string `json:"projectId"`
	}
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	h.logger.Info("bulk upload requested", zap.String("project_id", req.ProjectID))

	jsonutil.OK(w, map[string]any{
		"message":   "Bulk upload - To be implemented",
		"projectId": req.ProjectID,
		"uploadId":  "upload_" + uuid.NewString(),
		"status":    "initiated",
	})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID string `json:"projectId"`
	}
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	h.logger.Info("bulk download requested", zap.String("project_id", req.ProjectID))

	jsonutil.OK(w, map[string]any{
		"message":    "Bulk download - To be implemented",
		"projectId":  req.ProjectID,
		"downloadId": "download_" + uuid.NewString(),
		"status":     "initiated",
	})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	operationID := chi.URLParam(r, "operationID")
	h.logger.Info("sync status requested", zap.String("operation_id", operationID))

	jsonutil.OK(w, map[string]any{
		"operationId": operationID,
		"status":      "completed",
		"progress":    100,
		"message":     "Sync operation completed successfully",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}
