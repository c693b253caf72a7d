package files

import (
	"time"

	"github.com/codehaven/codehaven/internal/domain/models"
)

// FileVM is the JSON shape for a file record. Content is included only on
// content reads and writes.
type FileVM struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Path         string     `json:"path"`
	Type         string     `json:"type"`
	Content      *string    `json:"content,omitempty"`
	SyncStatus   string     `json:"syncStatus"`
	Version      int64      `json:"version"`
	Size         int64      `json:"size,omitempty"`
	Extension    string     `json:"extension,omitempty"`
	MimeType     string     `json:"mimeType,omitempty"`
	IsReadonly   bool       `json:"isReadonly,omitempty"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func toVM(f *models.File, withContent bool) FileVM {
	vm := FileVM{
		ID:           f.ID.Hex(),
		Name:         f.Name,
		Path:         f.Path,
		Type:         string(f.Type),
		SyncStatus:   string(f.SyncStatus),
		Version:      f.Version,
		Size:         f.Size,
		Extension:    f.Extension,
		MimeType:     f.MimeType,
		IsReadonly:   f.IsReadonly,
		LastSyncedAt: f.LastSyncedAt,
		UpdatedAt:    f.UpdatedAt,
	}
	if withContent && f.Content != nil {
		vm.Content = f.Content
	}
	return vm
}

type writeContentRequest struct {
	FileID  string  `json:"fileId"`
	Path    string  `json:"path"`
	Content *string `json:"content"`
}

type createRequest struct {
	ParentID string  `json:"parentId"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Content  *string `json:"content"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type moveRequest struct {
	ParentID string `json:"parentId"`
}
