// Package files provides the file management API inside a project.
//
// Content reads and writes go through the sync engine, which owns the
// reconciliation with the remote store; handlers here only resolve the
// project, translate JSON, and map errors.
package files

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
	"github.com/codehaven/codehaven/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler provides file API handlers.
type Handler struct {
	projects *projectstore.Store
	files    *filestore.Store
	engine   *syncengine.Engine
	logger   *zap.Logger
}

// NewHandler creates a new files Handler.
func NewHandler(projects *projectstore.Store, files *filestore.Store, engine *syncengine.Engine, logger *zap.Logger) *Handler {
	return &Handler{
		projects: projects,
		files:    files,
		engine:   engine,
		logger:   logger,
	}
}

// project resolves the {projectID} URL parameter to a project owned by the
// request user. Projects owned by someone else read as not found.
func (h *Handler) project(ctx context.Context, r *http.Request) (*models.User, *models.Project, error) {
	u, ok := auth.UserFrom(r.Context())
	if !ok {
		return nil, nil, apperr.ErrAuthRequired
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectID"))
	if err != nil {
		return nil, nil, apperr.ErrNotFound
	}
	proj, err := h.projects.GetByIDOwned(ctx, u.ID, id)
	if err != nil {
		return nil, nil, err
	}
	return u, proj, nil
}

// ref builds a file reference from fileId / path request values. ID wins
// when both are present.
func ref(fileID, path string) (syncengine.FileRef, error) {
	if fileID != "" {
		id, err := primitive.ObjectIDFromHex(fileID)
		if err != nil {
			return syncengine.FileRef{}, apperr.ErrNotFound
		}
		return syncengine.FileRef{ID: &id}, nil
	}
	if path != "" {
		return syncengine.FileRef{Path: path}, nil
	}
	return syncengine.FileRef{}, apperr.ErrInvalidOperation
}

// tree handles GET /{projectID}/tree. Listing the tree counts as project
// access.
func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	_, proj, err := h.project(ctx, r)
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
	jsonutil.OK(w, map[string]any{"tree": filestore.BuildTree(records)})
}

// readContent handles GET /{projectID}/content?fileId=|path=.
func (h *Handler) readContent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, proj, err := h.project(ctx, r)
	if err != nil {
		jsonutil.WriteErr(w, err)
		return
	}
	fr, err := ref(r.URL.Query().Get("fileId"), r.URL.Query().Get("path"))
	if err != nil {
		jsonutil.WriteErr(w, err)
		return
	}

	f, status, err := h.engine.ReadContent(ctx, u, proj, fr)
	if err != nil {
		jsonutil.WriteErr(w, err)
		return
	}

	vm := toVM(f, true)
	vm.SyncStatus = string(status)
	if vm.Content == nil {
		empty := ""
		vm.Content = &empty
	}
	jsonutil.OK(w, map[string]any{"file": vm})
}

// writeContent handles PUT /{projectID}/content. The content field must be
// present; an empty string is a valid write, a missing field is not.
func (h *Handler) writeContent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, proj, err := h.project(ctx, r)
	if err != nil {
		jsonutil.WriteErr(w, err)
		return
	}

	var req writeContentRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if req.Content == nil {
		jsonutil.BadRequest(w, "content is required")
		return
	}
	fr, err := ref(req.FileID, req.Path)
	if err != nil {
		jsonutil.WriteErr(w, err)
		return
	}

	f, err := h.engine.WriteContent(ctx, u, proj, fr, *req.Content)
	if err != nil {
		jsonutil.WriteErr(w, err)
		return
	}
	jsonutil.OK(w, map[string]any{"file": toVM(f, false)})
}

// create handles POST /{projectID}: new file or folder.
func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, proj, err := h.project(ctx, r)
	if err != nil {
		jsonutil.WriteErr(w, err)
		return
	}

	var req createRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonutil.BadRequest(w, "name is required")
		return
	}

	var ftype models.FileType
	switch req.Type {
	case "", string(models.TypeFile):
		ftype = models.TypeFile
	case string(models.TypeFolder):
		ftype = models.TypeFolder
	default:
		jsonutil.BadRequest(w, "type must be file or folder")
		return
	}

	var parentID *primitive.ObjectID
	if req.ParentID != "" {
		id, perr := primitive.ObjectIDFromHex(req.ParentID)
		if perr != nil {
			jsonutil.WriteErr(w, apperr.ErrNotFound)
			return
		}
		parentID = &id
	}

	f, err := h.engine.Create(ctx, u, proj, syncengine.CreateInput{
		ParentID: parentID,
		Name:     req.Name,
		Type:     ftype,
		Content:  req.Content,
	})
	if err != nil {
		jsonutil.WriteErr(w, err)
		return
	}

	h.logger.Info("file created",
		zap.String("project_id", proj.ID.Hex()),
		zap.String("file_id", f.ID.Hex()),
		zap.String("path", f.Path),
		zap.String("type", string(f.Type)),
	)
	jsonutil.Created(w, map[string]any{"file": toVM(f, false)})
}

// remove handles DELETE /{projectID}/{fileID}. Folder deletes are recursive.
func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	u, proj, err := h.project(ctx, r)
	if err != nil {
		jsonutil.WriteErr(w, err)
		return
	}
	fileID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "fileID"))
	if err != nil {
		jsonutil.WriteErr(w, apperr.ErrNotFound)
		return
	}

	removed, err := h.engine.Delete(ctx, u, proj, fileID)
	if err != nil {
		jsonutil.WriteErr(w, err)
		return
	}
	jsonutil.OK(w, map[string]any{"deleted": removed})
}

// rename handles PUT /{projectID}/{fileID}/rename.
func (h *Handler) rename(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, proj, err := h.project(ctx, r)
	if err != nil {
		jsonutil.WriteErr(w, err)
		return
	}
	fileID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "fileID"))
	if err != nil {
		jsonutil.WriteErr(w, apperr.ErrNotFound)
		return
	}

	var req renameRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonutil.BadRequest(w, "name is required")
		return
	}

	f, err := h.engine.Rename(ctx, u, proj, fileID, req.Name)
	if err != nil {
		jsonutil.WriteErr(w, err)
		return
	}
	jsonutil.OK(w, map[string]any{"file": toVM(f, false)})
}

// move handles PUT /{projectID}/{fileID}/move. An empty parentId moves to
// the project root.
func (h *Handler) move(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, proj, err := h.project(ctx, r)
	if err != nil {
		jsonutil.WriteErr(w, err)
		return
	}
	fileID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "fileID"))
	if err != nil {
		jsonutil.WriteErr(w, apperr.ErrNotFound)
		return
	}

	var req moveRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	var parentID *primitive.ObjectID
	if req.ParentID != "" {
		id, perr := primitive.ObjectIDFromHex(req.ParentID)
		if perr != nil {
			jsonutil.WriteErr(w, apperr.ErrNotFound)
			return
		}
		parentID = &id
	}

	f, err := h.engine.Move(ctx, u, proj, fileID, parentID)
	if err != nil {
		jsonutil.WriteErr(w, err)
		return
	}
	jsonutil.OK(w, map[string]any{"file": toVM(f, false)})
}
