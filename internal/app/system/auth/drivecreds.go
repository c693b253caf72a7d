package auth

import (
	"context"
	"fmt"

	"github.com/codehaven/codehaven/internal/app/store/user"
	"github.com/codehaven/codehaven/internal/domain/apperr"
	"github.com/codehaven/codehaven/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// DriveCredentials resolves a user's remote-store access token, refreshing
// expired tokens through the OAuth endpoint when a refresh token is on
// record. Refreshed tokens are written back to the user record.
type DriveCredentials struct {
	users  *user.Store
	oauth  *oauth2.Config
	logger *zap.Logger
}

// NewDriveCredentials creates a credential source.
func NewDriveCredentials(users *user.Store, oauth *oauth2.Config, logger *zap.Logger) *DriveCredentials {
	return &DriveCredentials{users: users, oauth: oauth, logger: logger}
}

// AccessToken returns a usable access token for u. It returns
// apperr.ErrAuthRequired when the user never granted access and
// apperr.ErrAuthExpired when the token is expired and cannot be refreshed.
func (d *DriveCredentials) AccessToken(ctx context.Context, u *models.User) (string, error) {
	if u.DriveAccessToken == "" && u.DriveRefreshToken == "" {
		return "", apperr.ErrAuthRequired
	}

	if !u.DriveTokenExpired() {
		return u.DriveAccessToken, nil
	}

	if u.DriveRefreshToken == "" {
		return "", apperr.ErrAuthExpired
	}

	tok := &oauth2.Token{RefreshToken: u.DriveRefreshToken}
	fresh, err := d.oauth.TokenSource(ctx, tok).Token()
	if err != nil {
		d.logger.Warn("drive token refresh failed",
			zap.String("user_id", u.ID.Hex()),
			zap.Error(err))
		return "", fmt.Errorf("token refresh: %w", apperr.ErrAuthExpired)
	}

	expiry := fresh.Expiry
	if err := d.users.UpdateDriveTokens(ctx, u.ID, fresh.AccessToken, fresh.RefreshToken, &expiry); err != nil {
		d.logger.Warn("failed to persist refreshed drive token",
			zap.String("user_id", u.ID.Hex()),
			zap.Error(err))
	}

	u.DriveAccessToken = fresh.AccessToken
	u.DriveTokenExpiry = &expiry
	if fresh.RefreshToken != "" {
		u.DriveRefreshToken = fresh.RefreshToken
	}

	return fresh.AccessToken, nil
}
