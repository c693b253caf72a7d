// Package oauthstate provides one-time state tokens for the OAuth round trip.
package oauthstate

import (
	"context"
	"time"

	"github.com/codehaven/codehaven/internal/domain/apperr"
	"github.com/codehaven/codehaven/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TTL is how long an issued state stays redeemable.
const TTL = 10 * time.Minute

// Store provides access to the oauth_states collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new oauth state store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("oauth_states"),
	}
}

// Create issues a fresh state token and persists it.
func (s *Store) Create(ctx context.Context, redirectTo string) (*models.OAuthState, error) {
	now := time.Now().UTC()
	st := models.OAuthState{
		State:      uuid.NewString(),
		RedirectTo: redirectTo,
		CreatedAt:  now,
		ExpiresAt:  now.Add(TTL),
	}
	res, err := s.c.InsertOne(ctx, st)
	if err != nil {
		return nil, err
	}
	st.ID = res.InsertedID.(primitive.ObjectID)
	return &st, nil
}

// Consume redeems a state token exactly once. Unknown, already-consumed, and
// expired states all read as not found.
func (s *Store) Consume(ctx context.Context, state string) (*models.OAuthState, error) {
	var st models.OAuthState
	err := s.c.FindOneAndDelete(ctx, bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&st)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}
