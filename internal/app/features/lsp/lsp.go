// Package lsp provides the language server API surface.
//
// No language server is wired up; the endpoints return canned capabilities
// and results so the editor client has a stable contract to integrate
// against.
package lsp

import (
	"net/http"

	"github.com/codehaven/codehaven/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler provides LSP API handlers.
type Handler struct {
	logger *zap.Logger
}

// NewHandler creates a new lsp Handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{logger: logger}
}

// Routes returns a router with the LSP API endpoints.
//
// When mounted at /api/v1/lsp:
//   - POST   /api/v1/lsp/{language}/initialize   - start a session
//   - POST   /api/v1/lsp/{sessionID}/completion  - completion suggestions
//   - POST   /api/v1/lsp/{sessionID}/hover       - hover information
//   - POST   /api/v1/lsp/{sessionID}/definition  - go to definition
//   - POST   /api/v1/lsp/{sessionID}/references  - find references
//   - POST   /api/v1/lsp/{sessionID}/diagnostics - document diagnostics
//   - DELETE /api/v1/lsp/{sessionID}             - shut the session down
func Routes(h *Handler, requireUser func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requireUser)

	r.Post("/{language}/initialize", h.initialize)
	r.Post("/{sessionID}/completion", h.completion)
	r.Post("/{sessionID}/hover", h.hover)
	r.Post("/{sessionID}/definition", h.definition)
	r.Post("/{sessionID}/references", h.references)
	r.Post("/{sessionID}/diagnostics", h.diagnostics)
	r.Delete("/{sessionID}", h.shutdown)

	return r
}

func (h *Handler) initialize(w http.ResponseWriter, r *http.Request) {
	language := chi.URLParam(r, "language")
	var req struct {
		ProjectID string `json:"projectId"`
		RootURI   string `json:"rootUri"`
	}
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	h.logger.Info("lsp initialization requested",
		zap.String("language", language),
		zap.String("project_id", req.ProjectID),
	)

	jsonutil.OK(w, map[string]any{
		"message":   "LSP initialization - To be implemented",
		"sessionId": "lsp_" + language + "_" + uuid.NewString(),
		"language":  language,
		"projectId": req.ProjectID,
		"capabilities": map[string]any{
			"textDocumentSync":   2,
			"hoverProvider":      true,
			"completionProvider": true,
			"definitionProvider": true,
			"referencesProvider": true,
		},
	})
}

func (h *Handler) completion(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	h.logger.Info("lsp completion requested", zap.String("session_id", sessionID))

	jsonutil.OK(w, map[string]any{
		"sessionId": sessionID,
		"completions": []map[string]any{
			{
				"label":         "console.log",
				"kind":          3,
				"detail":        "console.log(data?: any): void",
				"documentation": "Outputs a message to the console",
			},
		},
	})
}

func (h *Handler) hover(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	h.logger.Info("lsp hover requested", zap.String("session_id", sessionID))

	jsonutil.OK(w, map[string]any{
		"sessionId": sessionID,
		"hover": map[string]any{
			"contents": map[string]any{
				"kind":  "markdown",
				"value": "```javascript\nconsole.log(data?: any): void\n```\nOutputs a message to the console",
			},
		},
	})
}

func (h *Handler) definition(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	h.logger.Info("lsp definition requested", zap.String("session_id", sessionID))

	jsonutil.OK(w, map[string]any{
		"sessionId": sessionID,
		"locations": []any{},
	})
}

func (h *Handler) references(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	h.logger.Info("lsp references requested", zap.String("session_id", sessionID))

	jsonutil.OK(w, map[string]any{
		"sessionId":  sessionID,
		"references": []any{},
	})
}

func (h *Handler) diagnostics(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	h.logger.Info("lsp diagnostics requested", zap.String("session_id", sessionID))

	jsonutil.OK(w, map[string]any{
		"sessionId":   sessionID,
		"diagnostics": []any{},
	})
}

func (h *Handler) shutdown(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	h.logger.Info("lsp shutdown requested", zap.String("session_id", sessionID))

	jsonutil.OK(w, map[string]any{
		"message":   "LSP session shutdown - To be implemented",
		"sessionId": sessionID,
	})
}
