package syncengine

import (
	"context"

	"github.com/codehaven/codehaven/internal/app/store/file"
	"github.com/codehaven/codehaven/internal/app/system/lang"
	"github.com/codehaven/codehaven/internal/app/system/metrics"
	"github.com/codehaven/codehaven/internal/domain/models"
	"go.uber.org/zap"
)

// ProvisionProjectFolder creates the remote folder for a new project under
// the per-user root folder (creating the root on first use) and returns its
// remote ID. Credential failures propagate; project creation requires
// remote access.
func (e *Engine) ProvisionProjectFolder(ctx context.Context, u *models.User, projectName string) (string, error) {
	token, err := e.creds.AccessToken(ctx, u)
	if err != nil {
		return "", err
	}

	rootID, err := e.remote.EnsureFolder(ctx, token, e.rootFolder, "")
	metrics.ObserveRemoteCall("ensure_root", err)
	if err != nil {
		return "", err
	}

	folderID, err := e.remote.CreateFolder(ctx, token, projectName, rootID)
	metrics.ObserveRemoteCall("create_folder", err)
	if err != nil {
		return "", err
	}
	return folderID, nil
}

// TemplateOutcome reports the result of provisioning one template file.
type TemplateOutcome struct {
	Name string
	File *models.File // nil when Err is set
	Err  error
}

// ProvisionTemplates seeds a fresh project with its language's starter
// files. Each file is all-or-nothing (remote object and local record, or
// neither); a failure on one file does not stop the rest, and the caller
// gets the full per-file outcome list. The project's file count is set to
// the number of files actually created.
func (e *Engine) ProvisionTemplates(ctx context.Context, u *models.User, proj *models.Project) ([]TemplateOutcome, error) {
	token, err := e.creds.AccessToken(ctx, u)
	if err != nil {
		return nil, err
	}

	templates := TemplateFiles(proj.Language, proj.Name, proj.Description)
	outcomes := make([]TemplateOutcome, 0, len(templates))
	var created int64

	for _, tpl := range templates {
		remoteID, rerr := e.remote.CreateFile(ctx, token, tpl.Name, proj.RemoteID, lang.MimeType(tpl.Name), tpl.Content)
		metrics.ObserveRemoteCall("create_file", rerr)
		if rerr != nil {
			e.logger.Warn("template file remote create failed",
				zap.String("project_id", proj.ID.Hex()),
				zap.String("name", tpl.Name),
				zap.Error(rerr))
			outcomes = append(outcomes, TemplateOutcome{Name: tpl.Name, Err: rerr})
			continue
		}

		content := tpl.Content
		rec, cerr := e.files.Create(ctx, file.CreateInput{
			ProjectID: proj.ID,
			Name:      tpl.Name,
			Path:      tpl.Name,
			Type:      models.TypeFile,
			Content:   &content,
			RemoteID:  remoteID,
			MimeType:  lang.MimeType(tpl.Name),
			Extension: lang.Extension(tpl.Name),
			EditedBy:  proj.OwnerID,
		})
		if cerr != nil {
			if derr := e.remote.Delete(ctx, token, remoteID); derr != nil {
				e.logger.Warn("failed to clean up remote template file",
					zap.String("remote_id", remoteID),
					zap.Error(derr))
			}
			outcomes = append(outcomes, TemplateOutcome{Name: tpl.Name, Err: cerr})
			continue
		}

		outcomes = append(outcomes, TemplateOutcome{Name: tpl.Name, File: rec})
		created++
	}

	if err := e.projects.SetFileCount(ctx, proj.ID, created); err != nil {
		e.logger.Warn("failed to set project file count", zap.Error(err))
	}

	return outcomes, nil
}

// DeleteProjectMirror removes the project's remote folder best-effort. The
// local records are gone by the time this is called; a remote failure only
// leaves orphans on the remote side.
func (e *Engine) DeleteProjectMirror(ctx context.Context, u *models.User, proj *models.Project) {
	if proj.RemoteID == "" {
		return
	}
	token, err := e.creds.AccessToken(ctx, u)
	if err != nil {
		e.logger.Warn("no credentials for remote project cleanup",
			zap.String("project_id", proj.ID.Hex()),
			zap.Error(err))
		return
	}
	err = e.remote.Delete(ctx, token, proj.RemoteID)
	metrics.ObserveRemoteCall("delete", err)
	if err != nil {
		e.logger.Warn("remote project folder delete failed",
			zap.String("project_id", proj.ID.Hex()),
			zap.Error(err))
	}
}

// RenameProjectMirror renames the project's remote folder best-effort.
func (e *Engine) RenameProjectMirror(ctx context.Context, u *models.User, proj *models.Project, newName string) {
	if proj.RemoteID == "" {
		return
	}
	token, err := e.creds.AccessToken(ctx, u)
	if err != nil {
		return
	}
	err = e.remote.Rename(ctx, token, proj.RemoteID, newName)
	metrics.ObserveRemoteCall("rename", err)
	if err != nil {
		e.logger.Warn("remote project folder rename failed",
			zap.String("project_id", proj.ID.Hex()),
			zap.Error(err))
	}
}
