// Package file provides storage for file and folder records.
//
// Every query is project-scoped: callers pass the owning project's ID and the
// store filters on it, so records can never leak across projects. Sync-state
// mutations (SetContent, MarkSynced, MarkSyncError, ReplaceContentFromRemote,
// DemoteStaleSyncing) are reserved for the sync engine and the stale-sync
// sweep; no other component touches syncStatus.
package file

import (
	"context"
	"fmt"
	"time"

	"github.com/codehaven/codehaven/internal/domain/apperr"
	"github.com/codehaven/codehaven/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the files collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new file store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("files"),
	}
}

// CreateInput contains the input for creating a file or folder record.
type CreateInput struct {
	ProjectID primitive.ObjectID
	ParentID  *primitive.ObjectID
	Name      string
	Path      string
	Type      models.FileType
	Content   *string // nil for folders, non-nil (possibly empty) for files
	RemoteID  string
	MimeType  string
	Extension string
	EditedBy  primitive.ObjectID
}

// Create inserts a new record. A duplicate path within the project is
// reported as apperr.ErrConflict (backed by the unique project_id+path index).
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.File, error) {
	now := time.Now().UTC()

	var size int64
	if input.Content != nil {
		size = int64(len(*input.Content))
	}

	f := models.File{
		ID:           primitive.NewObjectID(),
		ProjectID:    input.ProjectID,
		ParentID:     input.ParentID,
		Name:         input.Name,
		NameCI:       text.Fold(input.Name),
		Path:         input.Path,
		Type:         input.Type,
		Content:      input.Content,
		RemoteID:     input.RemoteID,
		SyncStatus:   models.SyncSynced,
		Version:      0,
		Size:         size,
		Extension:    input.Extension,
		MimeType:     input.MimeType,
		LastEditedBy: input.EditedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.c.InsertOne(ctx, f); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("path %q: %w", input.Path, apperr.ErrConflict)
		}
		return nil, err
	}

	return &f, nil
}

// GetByID retrieves a record by ID within a project.
func (s *Store) GetByID(ctx context.Context, projectID, id primitive.ObjectID) (*models.File, error) {
	return s.findOne(ctx, bson.M{"_id": id, "project_id": projectID})
}

// GetByPath retrieves a record by its project-relative path.
func (s *Store) GetByPath(ctx context.Context, projectID primitive.ObjectID, path string) (*models.File, error) {
	return s.findOne(ctx, bson.M{"project_id": projectID, "path": path})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.File, error) {
	var f models.File
	if err := s.c.FindOne(ctx, filter).Decode(&f); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// ListByProject returns every record in a project, sorted by path so tree
// derivation sees a deterministic input order.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.File, error) {
	return s.findAll(ctx, bson.M{"project_id": projectID})
}

// ListChildren returns the direct children of a folder. Pass nil for
// parentID to list project-root records.
func (s *Store) ListChildren(ctx context.Context, projectID primitive.ObjectID, parentID *primitive.ObjectID) ([]models.File, error) {
	return s.findAll(ctx, bson.M{"project_id": projectID, "parent_id": parentID})
}

func (s *Store) findAll(ctx context.Context, filter bson.M) ([]models.File, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "path", Value: 1}})

	cursor, err := s.c.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// PathExists checks whether any record occupies the given path in the project.
func (s *Store) PathExists(ctx context.Context, projectID primitive.ObjectID, path string) (bool, error) {
	count, err := s.c.CountDocuments(ctx, bson.M{"project_id": projectID, "path": path})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetContent persists a local content write: content, digest, size, and a
// version bump, with sync_status set to syncing. This is the durability
// boundary of the write path.
func (s *Store) SetContent(ctx context.Context, id primitive.ObjectID, content, localHash string, editedBy primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"content":        content,
			"local_hash":     localHash,
			"size":           int64(len(content)),
			"sync_status":    models.SyncSyncing,
			"last_edited_by": editedBy,
			"updated_at":     time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// MarkSynced records a successful remote mirror of the given digest.
func (s *Store) MarkSynced(ctx context.Context, id primitive.ObjectID, remoteHash string) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"remote_hash":    remoteHash,
			"sync_status":    models.SyncSynced,
			"last_synced_at": now,
		},
	})
	return err
}

// MarkSyncError records a failed remote mirror attempt. The local content is
// already durable; the next successful write is the only recovery path.
func (s *Store) MarkSyncError(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"sync_status": models.SyncError},
	})
	return err
}

// DemoteStaleSyncing marks files that have sat in the syncing state since
// before cutoff as error. A record stuck syncing means the process died
// between the local write and the mirror settling; error makes that visible
// and the next write clears it. Returns the number of demoted records.
func (s *Store) DemoteStaleSyncing(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{
			"sync_status": models.SyncSyncing,
			"updated_at":  bson.M{"$lt": cutoff},
		},
		bson.M{"$set": bson.M{"sync_status": models.SyncError}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ReplaceContentFromRemote overwrites local content with the remote version
// during a read refresh. Version is deliberately untouched: only local writes
// advance it.
func (s *Store) ReplaceContentFromRemote(ctx context.Context, id primitive.ObjectID, content, hash string) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"content":        content,
			"local_hash":     hash,
			"remote_hash":    hash,
			"size":           int64(len(content)),
			"sync_status":    models.SyncSynced,
			"last_synced_at": now,
		},
	})
	return err
}

// Rename updates a record's name, path, and derived metadata.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name, path, extension, mimeType string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"name":       name,
			"name_ci":    text.Fold(name),
			"path":       path,
			"extension":  extension,
			"mime_type":  mimeType,
			"updated_at": time.Now().UTC(),
		},
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("path %q: %w", path, apperr.ErrConflict)
		}
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// SetParent reparents a record and rewrites its path.
func (s *Store) SetParent(ctx context.Context, id primitive.ObjectID, parentID *primitive.ObjectID, path string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"parent_id":  parentID,
			"path":       path,
			"updated_at": time.Now().UTC(),
		},
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("path %q: %w", path, apperr.ErrConflict)
		}
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// RewritePathPrefix rewrites the paths of every record under oldPrefix after
// a folder rename or move. The folder's own record is updated separately.
func (s *Store) RewritePathPrefix(ctx context.Context, projectID primitive.ObjectID, oldPrefix, newPrefix string) error {
	cursor, err := s.c.Find(ctx, bson.M{
		"project_id": projectID,
		"path":       bson.M{"$regex": "^" + escapeRegex(oldPrefix) + "/"},
	})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	now := time.Now().UTC()
	for cursor.Next(ctx) {
		var f models.File
		if err := cursor.Decode(&f); err != nil {
			return err
		}
		newPath := newPrefix + f.Path[len(oldPrefix):]
		if _, err := s.c.UpdateOne(ctx, bson.M{"_id": f.ID}, bson.M{
			"$set": bson.M{"path": newPath, "updated_at": now},
		}); err != nil {
			return err
		}
	}
	return cursor.Err()
}

// Delete removes a single record.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteByProject removes every record in a project.
func (s *Store) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountFiles returns the number of file-type records in a project.
func (s *Store) CountFiles(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"project_id": projectID, "type": models.TypeFile})
}

func escapeRegex(s string) string {
	const special = `\.+*?()|[]{}^$`
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		for j := 0; j < len(special); j++ {
			if s[i] == special[j] {
				out = append(out, '\\')
				break
			}
		}
		out = append(out, s[i])
	}
	return string(out)
}
