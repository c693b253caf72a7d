package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/codehaven/codehaven/internal/app/store/user"
	"github.com/codehaven/codehaven/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type contextKey int

const userKey contextKey = iota

// UserFrom returns the authenticated user stored in the request context.
func UserFrom(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok
}

// WithTestUser injects a user into the request context. Test helper.
func WithTestUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userKey, u))
}

// RequireUser returns middleware that validates the bearer token and loads
// the user record into the request context.
//
// The middleware expects "Authorization: Bearer <jwt>". A missing or invalid
// token, or a token for a user that no longer exists, yields 401.
func RequireUser(issuer *TokenIssuer, users *user.Store, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "Invalid Authorization format (expected: Bearer <token>)", http.StatusUnauthorized)
				return
			}

			claims, err := issuer.Parse(parts[1])
			if err != nil {
				logger.Debug("request rejected: invalid bearer token",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			id, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			u, err := users.GetByID(r.Context(), id)
			if err != nil {
				logger.Debug("request rejected: token user not found",
					zap.String("user_id", claims.UserID))
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
		})
	}
}
