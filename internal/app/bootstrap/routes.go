// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	authgooglefeature "github.com/codehaven/codehaven/internal/app/features/authgoogle"
	executionfeature "github.com/codehaven/codehaven/internal/app/features/execution"
	filesfeature "github.com/codehaven/codehaven/internal/app/features/files"
	healthfeature "github.com/codehaven/codehaven/internal/app/features/health"
	lspfeature "github.com/codehaven/codehaven/internal/app/features/lsp"
	projectsfeature "github.com/codehaven/codehaven/internal/app/features/projects"
	syncopsfeature "github.com/codehaven/codehaven/internal/app/features/syncops"
	filestore "github.com/codehaven/codehaven/internal/app/store/file"
	projectstore "github.com/codehaven/codehaven/internal/app/store/project"
	userstore "github.com/codehaven/codehaven/internal/app/store/user"
	"github.com/codehaven/codehaven/internal/app/system/auth"
	"github.com/codehaven/codehaven/internal/app/system/drive"
	"github.com/codehaven/codehaven/internal/app/system/metrics"
	"github.com/codehaven/codehaven/internal/app/system/syncengine"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// All API routes live under /api/v1 and use bearer-token authentication
// except the OAuth entry points. Health probes and Prometheus metrics are
// mounted at the root.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	users := userstore.New(db)
	projects := projectstore.New(db)
	files := filestore.New(db)

	issuer := auth.NewTokenIssuer(appCfg.JWTSecret, appCfg.JWTTTL)
	requireUser := auth.RequireUser(issuer, users, logger)

	authHandler := authgooglefeature.NewHandler(
		db,
		issuer,
		appCfg.GoogleClientID,
		appCfg.GoogleClientSecret,
		appCfg.BaseURL,
		[]byte(appCfg.OAuthStateKey),
		logger,
	)

	// Drive credentials refresh through the same OAuth client registration
	// the login flow uses.
	creds := auth.NewDriveCredentials(users, authHandler.OAuthConfig(), logger)
	engine := syncengine.New(files, projects, drive.New(), creds, appCfg.DriveRootFolder, logger)

	projectsHandler := projectsfeature.NewHandler(projects, files, engine, logger)
	filesHandler := filesfeature.NewHandler(projects, files, engine, logger)
	executionHandler := executionfeature.NewHandler(logger)
	syncHandler := syncopsfeature.NewHandler(logger)
	lspHandler := lspfeature.NewHandler(logger)
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))
	r.Use(metrics.Middleware)

	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/auth", authgooglefeature.Routes(authHandler, requireUser))
		api.Mount("/projects", projectsfeature.Routes(projectsHandler, requireUser))
		api.Mount("/files", filesfeature.Routes(filesHandler, requireUser))
		api.Mount("/execution", executionfeature.Routes(executionHandler, requireUser))
		api.Mount("/sync", syncopsfeature.Routes(syncHandler, requireUser))
		api.Mount("/lsp", lspfeature.Routes(lspHandler, requireUser))
	})

	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	return r, nil
}
