// Package user provides storage for user accounts and their remote-store
// credentials.
package user

import (
	"context"
	"time"

	"github.com/codehaven/codehaven/internal/domain/apperr"
	"github.com/codehaven/codehaven/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the users collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new user store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("users"),
	}
}

// GetByID retrieves a user by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ProfileInput is the identity payload from Google's userinfo endpoint.
type ProfileInput struct {
	GoogleID string
	Email    string
	Name     string
	Picture  string
}

// UpsertByGoogleID creates the account on first login and refreshes the
// profile fields on every later login. Token fields are untouched here;
// UpdateDriveTokens owns them.
func (s *Store) UpsertByGoogleID(ctx context.Context, input ProfileInput) (*models.User, error) {
	now := time.Now().UTC()

	filter := bson.M{"google_id": input.GoogleID}
	update := bson.M{
		"$set": bson.M{
			"email":      input.Email,
			"name":       input.Name,
			"picture":    input.Picture,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"google_id":  input.GoogleID,
			"created_at": now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var u models.User
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateDriveTokens stores fresh remote-store credentials for a user. An
// empty refreshToken leaves the stored refresh token alone: Google only
// returns it on the first consent.
func (s *Store) UpdateDriveTokens(ctx context.Context, id primitive.ObjectID, accessToken, refreshToken string, expiry *time.Time) error {
	set := bson.M{
		"drive_access_token": accessToken,
		"drive_token_expiry": expiry,
		"updated_at":         time.Now().UTC(),
	}
	if refreshToken != "" {
		set["drive_refresh_token"] = refreshToken
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// ClearDriveTokens wipes a user's remote-store credentials, e.g. after the
// provider reports the grant revoked.
func (s *Store) ClearDriveTokens(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$unset": bson.M{
			"drive_access_token":  "",
			"drive_refresh_token": "",
			"drive_token_expiry":  "",
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}
