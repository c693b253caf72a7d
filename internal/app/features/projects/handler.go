// Package projects provides the project management API.
//
// Creating a project provisions its remote folder first and seeds the
// language template files; the per-file seeding outcomes are reported in
// the response rather than silently truncated. Deleting a project removes
// every file record locally and deletes the remote folder best-effort.
package projects

import (
	"context"
	"net/http"
	"strings"

	filestore "github.com/codehaven/codehaven/internal/app/store/file"
	projectstore "github.com/codehaven/codehaven/internal/app/store/project"
	"github.com/codehaven/codehaven/internal/app/system/auth"
	"github.com/codehaven/codehaven/internal/app/system/jsonutil"
	"github.com/codehaven/codehaven/internal/app/system/syncengine"
	"github.com/codehaven/codehaven/internal/app/system/timeouts"
	"github.com/codehaven/codehaven/internal/domain/apperr"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const maxProjectNameLen = 100

// Handler provides project API handlers.
type Handler struct {
	projects *projectstore.Store
	files    *filestore.Store
	engine   *syncengine.Engine
	logger   *zap.Logger
}

// NewHandler creates a new projects Handler.
func NewHandler(projects *projectstore.Store, files *filestore.Store, engine *syncengine.Engine, logger *zap.Logger) *Handler {
	return &Handler{
		projects: projects,
		files:    files,
		engine:   engine,
		logger:   logger,
	}
}

// list handles GET /, returning the user's projects sorted by last access.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFrom(r.Context())
	if !ok {
		jsonutil.Fail(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.projects.ListByOwner(ctx, u.ID)
	if err != nil {
		h.logger.Error("list projects failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		jsonutil.WriteErr(w, err)
		return
	}

	vms := make([]ProjectVM, 0, len(list))
	for i := range list {
		vms = append(vms, toVM(&list[i]))
	}
	jsonutil.OK(w, map[string]any{"projects": vms})
}

// create handles POST /. The remote project folder is provisioned before the
// record is inserted; if provisioning fails nothing is created.
func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFrom(r.Context())
	if !ok {
		jsonutil.Fail(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonutil.BadRequest(w, "project name is required")
		return
	}
	if len(req.Name) > maxProjectNameLen {
		jsonutil.BadRequest(w, "project name too long")
		return
	}
	if req.Language == "" {
		req.Language = "javascript"
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	remoteID, err := h.engine.ProvisionProjectFolder(ctx, u, req.Name)
	if err != nil {
		h.logger.Warn("project folder provisioning failed",
			zap.String("user_id", u.ID.Hex()),
			zap.String("name", req.Name),
			zap.Error(err),
		)
		jsonutil.WriteErr(w, err)
		return
	}

	proj, err := h.projects.Create(ctx, projectstore.CreateInput{
		OwnerID:     u.ID,
		Name:        req.Name,
		Description: req.Description,
		Language:    req.Language,
		Framework:   req.Framework,
		RemoteID:    remoteID,
	})
	if err != nil {
		// The remote folder is orphaned here; the next create with the
		// same name reuses it through EnsureFolder.
		h.logger.Error("project insert failed",
			zap.String("user_id", u.ID.Hex()),
			zap.String("name", req.Name),
			zap.Error(err),
		)
		jsonutil.WriteErr(w, err)
		return
	}

	outcomes, err := h.engine.ProvisionTemplates(ctx, u, proj)
	if err != nil {
		h.logger.Warn("template provisioning failed",
			zap.String("project_id", proj.ID.Hex()),
			zap.Error(err),
		)
	}
	seeded := make([]TemplateFileVM, 0, len(outcomes))
	for _, o := range outcomes {
		vm := TemplateFileVM{Name: o.Name, Created: o.Err == nil}
		if o.File != nil {
			vm.ID = o.File.ID.Hex()
		}
		if o.Err != nil {
			vm.Error = o.Err.Error()
		}
		seeded = append(seeded, vm)
	}

	// Reload for the seeded file count.
	if fresh, gerr := h.projects.GetByIDOwned(ctx, u.ID, proj.ID); gerr == nil {
		proj = fresh
	}

	h.logger.Info("project created",
		zap.String("project_id", proj.ID.Hex()),
		zap.String("user_id", u.ID.Hex()),
		zap.String("language", proj.Language),
	)
	jsonutil.Created(w, map[string]any{
		"project": toVM(proj),
		"files":   seeded,
	})
}

// get handles GET /{id}, returning the project with its file tree. Opening
// a project counts as access.
func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFrom(r.Context())
	if !ok {
		jsonutil.Fail(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.WriteErr(w, apperr.ErrNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	proj, err := h.projects.GetByIDOwned(ctx, u.ID, id)
	if err != nil {
		jsonutil.WriteErr(w, err)
		return
	}
	if err := h.projects.TouchLastAccessed(ctx, proj.ID); err != nil {
		h.logger.Warn("touch last accessed failed", zap.String("project_id", proj.ID.Hex()), zap.Error(err))
	}

	records, err := h.files.ListByProject(ctx, proj.ID)
	if err != nil {
		h.logger.Error("list files failed", zap.String("project_id", proj.ID.Hex()), zap.Error(err))
		jsonutil.WriteErr(w, err)
		return
	}

	jsonutil.OK(w, map[string]any{
		"project": toVM(proj),
		"tree":    filestore.BuildTree(records),
	})
}

// update handles PUT /{id}: rename, description, framework, and settings
// changes. A rename is mirrored to the remote folder best-effort.
func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFrom(r.Context())
	if !ok {
		jsonutil.Fail(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.WriteErr(w, apperr.ErrNotFound)
		return
	}

	var req updateRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if req.Name != nil {
		*req.Name = strings.TrimSpace(*req.Name)
		if *req.Name == "" {
			jsonutil.BadRequest(w, "project name cannot be empty")
			return
		}
		if len(*req.Name) > maxProjectNameLen {
			jsonutil.BadRequest(w, "project name too long")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err = h.projects.Update(ctx, u.ID, id, projectstore.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Framework:   req.Framework,
		Settings:    req.Settings,
	})
	if err != nil {
		jsonutil.WriteErr(w, err)
		return
	}

	proj, err := h.projects.GetByIDOwned(ctx, u.ID, id)
	if err != nil {
		jsonutil.WriteErr(w, err)
		return
	}
	if req.Name != nil {
		h.engine.RenameProjectMirror(ctx, u, proj, *req.Name)
	}

	jsonutil.OK(w, map[string]any{"project": toVM(proj)})
}

// remove handles DELETE /{id}. File records and the project record are
// always removed; the remote folder delete is best-effort.
func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFrom(r.Context())
	if !ok {
		jsonutil.Fail(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.WriteErr(w, apperr.ErrNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	proj, err := h.projects.GetByIDOwned(ctx, u.ID, id)
	if err != nil {
		jsonutil.WriteErr(w, err)
		return
	}

	removed, err := h.files.DeleteByProject(ctx, proj.ID)
	if err != nil {
		h.logger.Error("file cascade delete failed", zap.String("project_id", proj.ID.Hex()), zap.Error(err))
		jsonutil.WriteErr(w, err)
		return
	}
	h.engine.DeleteProjectMirror(ctx, u, proj)

	if err := h.projects.Delete(ctx, u.ID, proj.ID); err != nil {
		jsonutil.WriteErr(w, err)
		return
	}

	h.logger.Info("project deleted",
		zap.String("project_id", proj.ID.Hex()),
		zap.String("user_id", u.ID.Hex()),
		zap.Int64("file_records", removed),
	)
	jsonutil.OK(w, map[string]any{"deletedFiles": removed})
}
