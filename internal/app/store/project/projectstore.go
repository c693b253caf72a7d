// Package project provides storage for project records.
package project

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

// Store provides access to the projects collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new project store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("projects"),
	}
}

// CreateInput contains the input for creating a project.
type CreateInput struct {
	OwnerID     primitive.ObjectID
	Name        string
	Description string
	Language    string
	Framework   string
	RemoteID    string
}

// Create inserts a new project. A duplicate name for the same owner
// (case-insensitive) is reported as apperr.ErrConflict.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Project, error) {
	now := time.Now().UTC()

	p := models.Project{
		ID:           primitive.NewObjectID(),
		OwnerID:      input.OwnerID,
		Name:         input.Name,
		NameCI:       text.Fold(input.Name),
		Description:  input.Description,
		Language:     input.Language,
		Framework:    input.Framework,
		RemoteID:     input.RemoteID,
		SyncStatus:   models.SyncSynced,
		LastAccessed: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("project %q: %w", input.Name, apperr.ErrConflict)
		}
		return nil, err
	}

	return &p, nil
}

// GetByIDOwned retrieves a project by ID, scoped to its owner. A project
// that exists but belongs to someone else is reported as not found.
func (s *Store) GetByIDOwned(ctx context.Context, ownerID, id primitive.ObjectID) (*models.Project, error) {
	var p models.Project
	err := s.c.FindOne(ctx, bson.M{"_id": id, "owner_id": ownerID}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListByOwner returns the owner's projects, most recently accessed first.
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Project, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "last_accessed", Value: -1}})

	cursor, err := s.c.Find(ctx, bson.M{"owner_id": ownerID}, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var projects []models.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// TouchLastAccessed stamps a project as recently used.
func (s *Store) TouchLastAccessed(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"last_accessed": time.Now().UTC()},
	})
	return err
}

// UpdateInput contains the mutable fields of a project. Nil pointers leave
// the stored value unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	Framework   *string
	Settings    bson.M
}

// Update applies the given changes. A rename that collides with another of
// the owner's projects is reported as apperr.ErrConflict.
func (s *Store) Update(ctx context.Context, ownerID, id primitive.ObjectID, input UpdateInput) error {
	set := bson.M{"updated_at": time.Now().UTC()}

	if input.Name != nil {
		set["name"] = *input.Name
		set["name_ci"] = text.Fold(*input.Name)
	}
	if input.Description != nil {
		set["description"] = *input.Description
	}
	if input.Framework != nil {
		set["framework"] = *input.Framework
	}
	if input.Settings != nil {
		// Merge setting keys individually so unrelated settings survive
		for k, v := range input.Settings {
			set["settings."+k] = v
		}
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "owner_id": ownerID}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("project rename: %w", apperr.ErrConflict)
		}
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// IncFileCount adjusts the cached file count by delta (may be negative).
func (s *Store) IncFileCount(ctx context.Context, id primitive.ObjectID, delta int64) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"file_count": delta},
	})
	return err
}

// SetFileCount overwrites the cached file count with an exact value.
func (s *Store) SetFileCount(ctx context.Context, id primitive.ObjectID, count int64) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"file_count": count},
	})
	return err
}

// Delete removes a project record, scoped to its owner.
func (s *Store) Delete(ctx context.Context, ownerID, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
