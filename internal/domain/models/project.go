package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project represents a workspace owned by a single user. Each project is
// mirrored to a folder in the remote store; RemoteID is that folder's
// opaque identifier.
type Project struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID     primitive.ObjectID `bson:"owner_id"`
	Name        string             `bson:"name"`
	NameCI      string             `bson:"name_ci"` // Case-insensitive for uniqueness/sorting
	Description string             `bson:"description,omitempty"`
	Language    string             `bson:"language"` // Primary programming language
	Framework   string             `bson:"framework,omitempty"`

	// RemoteID is the remote store folder that roots this project's files.
	RemoteID string `bson:"remote_id"`

	FileCount    int64      `bson:"file_count"`
	SyncStatus   SyncStatus `bson:"sync_status"`
	LastAccessed time.Time  `bson:"last_accessed"`
	Settings     bson.M     `bson:"settings,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}
