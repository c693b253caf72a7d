package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account authenticated through Google OAuth. The Drive
// token fields are the remote-store credentials; they are stored on the user
// record and handed to the remote client per call, never cached in a shared
// client instance.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	GoogleID string             `bson:"google_id"`
	Email    string             `bson:"email"`
	Name     string             `bson:"name"`
	Picture  string             `bson:"picture,omitempty"`

	DriveAccessToken  string     `bson:"drive_access_token,omitempty"`
	DriveRefreshToken string     `bson:"drive_refresh_token,omitempty"`
	DriveTokenExpiry  *time.Time `bson:"drive_token_expiry,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// DriveTokenExpired reports whether the stored access token is missing or
// past its expiry (with a small clock-skew margin).
func (u *User) DriveTokenExpired() bool {
	if u.DriveAccessToken == "" {
		return true
	}
	if u.DriveTokenExpiry == nil {
		return false
	}
	return time.Now().After(u.DriveTokenExpiry.Add(-30 * time.Second))
}
