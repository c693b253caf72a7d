package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FileType distinguishes file records from folder records.
type FileType string

const (
	TypeFile   FileType = "file"
	TypeFolder FileType = "folder"
)

// SyncStatus is the per-file reconciliation state between the local record
// and its remote mirror. Transitions happen only inside the sync engine.
type SyncStatus string

const (
	SyncSynced   SyncStatus = "synced"
	SyncSyncing  SyncStatus = "syncing"
	SyncConflict SyncStatus = "conflict"
	SyncError    SyncStatus = "error"
	SyncOffline  SyncStatus = "offline"
)

// File represents a file or folder record within a project. The record is
// the local source of truth: Content is the durable local copy, RemoteID
// points at the best-effort remote mirror.
type File struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"`
	ProjectID primitive.ObjectID  `bson:"project_id"`
	ParentID  *primitive.ObjectID `bson:"parent_id,omitempty"` // nil = project root
	Name      string              `bson:"name"`
	NameCI    string              `bson:"name_ci"`
	Path      string              `bson:"path"` // slash-separated, unique per project
	Type      FileType            `bson:"type"`

	// Content is set if and only if Type is TypeFile. The pointer keeps the
	// empty string distinct from "no content" (folders).
	Content *string `bson:"content,omitempty"`

	RemoteID   string     `bson:"remote_id"`
	LocalHash  string     `bson:"local_hash,omitempty"`  // digest of Content
	RemoteHash string     `bson:"remote_hash,omitempty"` // digest last confirmed remote
	SyncStatus SyncStatus `bson:"sync_status"`

	// Version increases by one on every successful local content write.
	// Reads never change it.
	Version int64 `bson:"version"`

	IsReadonly bool   `bson:"is_readonly"`
	Size       int64  `bson:"size"`
	Extension  string `bson:"extension,omitempty"`
	MimeType   string `bson:"mime_type"`

	LastEditedBy primitive.ObjectID `bson:"last_edited_by,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
	LastSyncedAt *time.Time         `bson:"last_synced_at,omitempty"`
}

// IsFolder reports whether the record is a folder.
func (f *File) IsFolder() bool {
	return f.Type == TypeFolder
}

// IsInRoot reports whether the record sits at the project root.
func (f *File) IsInRoot() bool {
	return f.ParentID == nil
}

// ContentString returns the cached content, treating a nil pointer as empty.
func (f *File) ContentString() string {
	if f.Content == nil {
		return ""
	}
	return *f.Content
}
