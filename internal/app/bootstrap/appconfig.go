// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (HTTP ports, TLS,
// logging, CORS, body limits); AppConfig is everything specific to
// Codehaven itself.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// API token configuration
	JWTSecret string        // Signing secret for API bearer tokens (must be strong in production)
	JWTTTL    time.Duration // Token lifetime (default: 24h)

	// Google OAuth configuration. The same client registration covers
	// login and the Drive grant.
	GoogleClientID     string // Google OAuth2 client ID
	GoogleClientSecret string // Google OAuth2 client secret

	// OAuthStateKey signs the OAuth state cookie (32+ chars in production).
	OAuthStateKey string

	// BaseURL is the externally visible origin, used to build the OAuth
	// redirect URL (e.g., "https://codehaven.example.com").
	BaseURL string

	// DriveRootFolder is the name of the per-user Drive folder that holds
	// all project folders.
	DriveRootFolder string

	// StaleSyncingAfter is how long a file may sit in the syncing state
	// before the background sweep demotes it to error.
	StaleSyncingAfter time.Duration
}
