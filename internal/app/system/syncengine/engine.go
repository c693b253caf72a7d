// Package syncengine reconciles local file records with the remote store.
//
// The engine owns every syncStatus transition. Writes are local-first: the
// record is durable (content saved, version bumped, status syncing) before
// the remote mirror is attempted, and a failed mirror degrades the status to
// error instead of failing the write. Reads prefer the remote copy when
// credentials allow: a remote/local mismatch overwrites local content
// (remote wins; a concurrent unsynced local edit can be lost, an accepted
// limitation of the current model). Failed mirrors are never retried in the
// background; the next write is the recovery path.
package syncengine

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/codehaven/codehaven/internal/app/store/file"
	"github.com/codehaven/codehaven/internal/app/store/project"
	"github.com/codehaven/codehaven/internal/app/system/lang"
	"github.com/codehaven/codehaven/internal/app/system/metrics"
	"github.com/codehaven/codehaven/internal/domain/apperr"
	"github.com/codehaven/codehaven/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RemoteStore is the remote object store surface the engine needs. Every
// call takes the owner's access token; implementations hold no credentials.
type RemoteStore interface {
	EnsureFolder(ctx context.Context, accessToken, name, parentID string) (string, error)
	CreateFolder(ctx context.Context, accessToken, name, parentID string) (string, error)
	CreateFile(ctx context.Context, accessToken, name, parentID, mimeType, content string) (string, error)
	UpdateContent(ctx context.Context, accessToken, fileID, content string) error
	Download(ctx context.Context, accessToken, fileID string) (string, error)
	Rename(ctx context.Context, accessToken, fileID, newName string) error
	Move(ctx context.Context, accessToken, fileID, oldParentID, newParentID string) error
	Delete(ctx context.Context, accessToken, fileID string) error
}

// CredentialSource resolves a user's remote-store access token, refreshing
// it when expired. It returns apperr.ErrAuthRequired when the user never
// granted access and apperr.ErrAuthExpired when the grant cannot be
// refreshed.
type CredentialSource interface {
	AccessToken(ctx context.Context, u *models.User) (string, error)
}

// Engine coordinates the file store, project store, and remote store.
type Engine struct {
	files      *file.Store
	projects   *project.Store
	remote     RemoteStore
	creds      CredentialSource
	rootFolder string
	logger     *zap.Logger
}

// New creates a sync engine. rootFolder is the name of the per-user remote
// folder that holds all project folders.
func New(files *file.Store, projects *project.Store, remote RemoteStore, creds CredentialSource, rootFolder string, logger *zap.Logger) *Engine {
	return &Engine{
		files:      files,
		projects:   projects,
		remote:     remote,
		creds:      creds,
		rootFolder: rootFolder,
		logger:     logger,
	}
}

// FileRef addresses a file by ID or by project-relative path. ID wins when
// both are set.
type FileRef struct {
	ID   *primitive.ObjectID
	Path string
}

func (e *Engine) resolve(ctx context.Context, projectID primitive.ObjectID, ref FileRef) (*models.File, error) {
	if ref.ID != nil {
		return e.files.GetByID(ctx, projectID, *ref.ID)
	}
	if ref.Path != "" {
		return e.files.GetByPath(ctx, projectID, strings.TrimPrefix(ref.Path, "/"))
	}
	return nil, fmt.Errorf("file reference required: %w", apperr.ErrInvalidOperation)
}

func digest(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// ReadContent returns a file's content, preferring the remote copy.
//
// With valid credentials the remote copy is fetched; if it differs from the
// cached content the local record is overwritten and marked synced. Remote
// fetch failures fall back to the cached content. Without credentials the
// cached content is returned with a reported (not persisted) offline status.
func (e *Engine) ReadContent(ctx context.Context, u *models.User, proj *models.Project, ref FileRef) (*models.File, models.SyncStatus, error) {
	f, err := e.resolve(ctx, proj.ID, ref)
	if err != nil {
		return nil, "", err
	}
	if f.IsFolder() {
		return nil, "", fmt.Errorf("cannot read content of a folder: %w", apperr.ErrInvalidOperation)
	}

	token, err := e.creds.AccessToken(ctx, u)
	if err != nil {
		if apperr.IsAuth(err) {
			return f, models.SyncOffline, nil
		}
		return nil, "", err
	}

	if f.RemoteID == "" {
		return f, f.SyncStatus, nil
	}

	remoteContent, err := e.remote.Download(ctx, token, f.RemoteID)
	metrics.ObserveRemoteCall("download", err)
	if err != nil {
		e.logger.Warn("remote read failed, serving cached content",
			zap.String("file_id", f.ID.Hex()),
			zap.Error(err))
		return f, f.SyncStatus, nil
	}

	if remoteContent != f.ContentString() {
		remoteHash := digest(remoteContent)
		if err := e.files.ReplaceContentFromRemote(ctx, f.ID, remoteContent, remoteHash); err != nil {
			return nil, "", err
		}
		metrics.ObserveSyncTransition(string(models.SyncSynced))
		f.Content = &remoteContent
		f.LocalHash = remoteHash
		f.RemoteHash = remoteHash
		f.Size = int64(len(remoteContent))
		f.SyncStatus = models.SyncSynced
	}

	return f, f.SyncStatus, nil
}

// WriteContent saves content locally, then mirrors it to the remote store
// best-effort. By the time WriteContent returns, the local record holds the
// new content and a bumped version regardless of the mirror outcome, and
// syncStatus reflects that outcome (synced or error). Remote failures are
// absorbed into the status, never returned.
func (e *Engine) WriteContent(ctx context.Context, u *models.User, proj *models.Project, ref FileRef, content string) (*models.File, error) {
	f, err := e.resolve(ctx, proj.ID, ref)
	if err != nil {
		return nil, err
	}
	if f.IsFolder() {
		return nil, fmt.Errorf("cannot write content to a folder: %w", apperr.ErrInvalidOperation)
	}
	if f.IsReadonly {
		return nil, fmt.Errorf("file %q is read-only: %w", f.Path, apperr.ErrPermissionDenied)
	}

	localHash := digest(content)
	if err := e.files.SetContent(ctx, f.ID, content, localHash, u.ID); err != nil {
		return nil, err
	}
	metrics.ObserveSyncTransition(string(models.SyncSyncing))

	e.mirror(ctx, u, f, content, localHash)

	return e.files.GetByID(ctx, proj.ID, f.ID)
}

// mirror pushes content to the remote store and settles syncStatus. All
// failure modes, including missing credentials, land on error status.
func (e *Engine) mirror(ctx context.Context, u *models.User, f *models.File, content, localHash string) {
	token, err := e.creds.AccessToken(ctx, u)
	if err == nil && f.RemoteID == "" {
		err = fmt.Errorf("no remote object for %q: %w", f.Path, apperr.ErrRemoteUnavailable)
	}
	if err == nil {
		err = e.remote.UpdateContent(ctx, token, f.RemoteID, content)
		metrics.ObserveRemoteCall("update", err)
	}

	if err != nil {
		e.logger.Warn("remote mirror failed",
			zap.String("file_id", f.ID.Hex()),
			zap.String("path", f.Path),
			zap.Error(err))
		if serr := e.files.MarkSyncError(ctx, f.ID); serr != nil {
			e.logger.Error("failed to record sync error", zap.Error(serr))
		}
		metrics.ObserveSyncTransition(string(models.SyncError))
		return
	}

	if serr := e.files.MarkSynced(ctx, f.ID, localHash); serr != nil {
		e.logger.Error("failed to record synced status", zap.Error(serr))
		return
	}
	metrics.ObserveSyncTransition(string(models.SyncSynced))
}

// CreateInput describes a new file or folder.
type CreateInput struct {
	ParentID *primitive.ObjectID // nil = project root
	Name     string
	Type     models.FileType
	Content  *string // files only; nil means empty
}

// Create provisions the remote object first, then the local record. If the
// remote provisioning fails nothing is created; if the local insert fails
// the remote object is deleted best-effort.
func (e *Engine) Create(ctx context.Context, u *models.User, proj *models.Project, input CreateInput) (*models.File, error) {
	if err := validateName(input.Name); err != nil {
		return nil, err
	}

	parentPath := ""
	parentRemote := proj.RemoteID
	if input.ParentID != nil {
		parent, err := e.files.GetByID(ctx, proj.ID, *input.ParentID)
		if err != nil {
			return nil, fmt.Errorf("parent: %w", err)
		}
		if !parent.IsFolder() {
			return nil, fmt.Errorf("parent %q is not a folder: %w", parent.Path, apperr.ErrInvalidOperation)
		}
		parentPath = parent.Path + "/"
		parentRemote = parent.RemoteID
	}
	path := parentPath + input.Name

	exists, err := e.files.PathExists(ctx, proj.ID, path)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("path %q already exists: %w", path, apperr.ErrConflict)
	}

	token, err := e.creds.AccessToken(ctx, u)
	if err != nil {
		return nil, err
	}

	var remoteID string
	var content *string
	mimeType := ""
	extension := ""
	if input.Type == models.TypeFolder {
		remoteID, err = e.remote.CreateFolder(ctx, token, input.Name, parentRemote)
		metrics.ObserveRemoteCall("create_folder", err)
	} else {
		body := ""
		if input.Content != nil {
			body = *input.Content
		}
		content = &body
		mimeType = lang.MimeType(input.Name)
		extension = lang.Extension(input.Name)
		remoteID, err = e.remote.CreateFile(ctx, token, input.Name, parentRemote, mimeType, body)
		metrics.ObserveRemoteCall("create_file", err)
	}
	if err != nil {
		return nil, err
	}

	created, err := e.files.Create(ctx, file.CreateInput{
		ProjectID: proj.ID,
		ParentID:  input.ParentID,
		Name:      input.Name,
		Path:      path,
		Type:      input.Type,
		Content:   content,
		RemoteID:  remoteID,
		MimeType:  mimeType,
		Extension: extension,
		EditedBy:  u.ID,
	})
	if err != nil {
		// Orphaned remote object otherwise
		if derr := e.remote.Delete(ctx, token, remoteID); derr != nil {
			e.logger.Warn("failed to clean up remote object after local create failure",
				zap.String("remote_id", remoteID),
				zap.Error(derr))
		}
		return nil, err
	}

	if input.Type == models.TypeFile {
		if cerr := e.projects.IncFileCount(ctx, proj.ID, 1); cerr != nil {
			e.logger.Warn("failed to bump file count", zap.Error(cerr))
		}
	}

	return created, nil
}

// Delete removes a file or folder. Folders are deleted depth-first over
// their descendants. Remote deletion is best-effort per object; the local
// record is always removed. Returns the number of records deleted.
func (e *Engine) Delete(ctx context.Context, u *models.User, proj *models.Project, fileID primitive.ObjectID) (int64, error) {
	f, err := e.files.GetByID(ctx, proj.ID, fileID)
	if err != nil {
		return 0, err
	}

	token, terr := e.creds.AccessToken(ctx, u)
	if terr != nil {
		e.logger.Warn("deleting without remote credentials, remote copies will be orphaned",
			zap.String("file_id", fileID.Hex()),
			zap.Error(terr))
		token = ""
	}

	var records, fileRecords int64
	if err := e.deleteRec(ctx, proj.ID, token, f, &records, &fileRecords); err != nil {
		return records, err
	}

	if fileRecords > 0 {
		if cerr := e.projects.IncFileCount(ctx, proj.ID, -fileRecords); cerr != nil {
			e.logger.Warn("failed to decrement file count", zap.Error(cerr))
		}
	}
	return records, nil
}

func (e *Engine) deleteRec(ctx context.Context, projectID primitive.ObjectID, token string, f *models.File, records, fileRecords *int64) error {
	if f.IsFolder() {
		children, err := e.files.ListChildren(ctx, projectID, &f.ID)
		if err != nil {
			return err
		}
		for i := range children {
			if err := e.deleteRec(ctx, projectID, token, &children[i], records, fileRecords); err != nil {
				return err
			}
		}
	}

	if token != "" && f.RemoteID != "" {
		err := e.remote.Delete(ctx, token, f.RemoteID)
		metrics.ObserveRemoteCall("delete", err)
		if err != nil {
			e.logger.Warn("remote delete failed, removing local record anyway",
				zap.String("path", f.Path),
				zap.Error(err))
		}
	}

	if err := e.files.Delete(ctx, f.ID); err != nil {
		return err
	}
	*records++
	if f.Type == models.TypeFile {
		*fileRecords++
	}
	return nil
}

// Rename changes a file or folder's name in place. Descendant paths are
// rewritten for folders. The remote rename is best-effort.
func (e *Engine) Rename(ctx context.Context, u *models.User, proj *models.Project, fileID primitive.ObjectID, newName string) (*models.File, error) {
	if err := validateName(newName); err != nil {
		return nil, err
	}

	f, err := e.files.GetByID(ctx, proj.ID, fileID)
	if err != nil {
		return nil, err
	}
	if newName == f.Name {
		return f, nil
	}

	newPath := strings.TrimSuffix(f.Path, f.Name) + newName
	exists, err := e.files.PathExists(ctx, proj.ID, newPath)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("path %q already exists: %w", newPath, apperr.ErrConflict)
	}

	extension, mimeType := "", ""
	if !f.IsFolder() {
		extension = lang.Extension(newName)
		mimeType = lang.MimeType(newName)
	}
	if err := e.files.Rename(ctx, fileID, newName, newPath, extension, mimeType); err != nil {
		return nil, err
	}
	if f.IsFolder() {
		if err := e.files.RewritePathPrefix(ctx, proj.ID, f.Path, newPath); err != nil {
			return nil, err
		}
	}

	if f.RemoteID != "" {
		if token, terr := e.creds.AccessToken(ctx, u); terr == nil {
			rerr := e.remote.Rename(ctx, token, f.RemoteID, newName)
			metrics.ObserveRemoteCall("rename", rerr)
			if rerr != nil {
				e.logger.Warn("remote rename failed",
					zap.String("path", newPath),
					zap.Error(rerr))
			}
		}
	}

	return e.files.GetByID(ctx, proj.ID, fileID)
}

// Move reparents a file or folder. Moving a folder into itself or any of
// its descendants is rejected. The remote move is best-effort.
func (e *Engine) Move(ctx context.Context, u *models.User, proj *models.Project, fileID primitive.ObjectID, newParentID *primitive.ObjectID) (*models.File, error) {
	f, err := e.files.GetByID(ctx, proj.ID, fileID)
	if err != nil {
		return nil, err
	}

	parentPath := ""
	newParentRemote := proj.RemoteID
	if newParentID != nil {
		parent, err := e.files.GetByID(ctx, proj.ID, *newParentID)
		if err != nil {
			return nil, fmt.Errorf("target parent: %w", err)
		}
		if !parent.IsFolder() {
			return nil, fmt.Errorf("target %q is not a folder: %w", parent.Path, apperr.ErrInvalidOperation)
		}
		if f.IsFolder() && (parent.ID == f.ID || strings.HasPrefix(parent.Path+"/", f.Path+"/")) {
			return nil, fmt.Errorf("cannot move folder %q into its own subtree: %w", f.Path, apperr.ErrInvalidOperation)
		}
		parentPath = parent.Path + "/"
		newParentRemote = parent.RemoteID
	}

	newPath := parentPath + f.Name
	if newPath == f.Path {
		return f, nil
	}

	exists, err := e.files.PathExists(ctx, proj.ID, newPath)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("path %q already exists: %w", newPath, apperr.ErrConflict)
	}

	oldParentRemote := proj.RemoteID
	if f.ParentID != nil {
		if oldParent, perr := e.files.GetByID(ctx, proj.ID, *f.ParentID); perr == nil {
			oldParentRemote = oldParent.RemoteID
		}
	}

	if err := e.files.SetParent(ctx, fileID, newParentID, newPath); err != nil {
		return nil, err
	}
	if f.IsFolder() {
		if err := e.files.RewritePathPrefix(ctx, proj.ID, f.Path, newPath); err != nil {
			return nil, err
		}
	}

	if f.RemoteID != "" {
		if token, terr := e.creds.AccessToken(ctx, u); terr == nil {
			merr := e.remote.Move(ctx, token, f.RemoteID, oldParentRemote, newParentRemote)
			metrics.ObserveRemoteCall("move", merr)
			if merr != nil {
				e.logger.Warn("remote move failed",
					zap.String("path", newPath),
					zap.Error(merr))
			}
		}
	}

	return e.files.GetByID(ctx, proj.ID, fileID)
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required: %w", apperr.ErrInvalidOperation)
	}
	if strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return fmt.Errorf("invalid name %q: %w", name, apperr.ErrInvalidOperation)
	}
	return nil
}
