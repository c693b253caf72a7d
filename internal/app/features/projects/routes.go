package projects

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the project API endpoints.
//
// When mounted at /api/v1/projects:
//   - GET    /api/v1/projects            - list the user's projects
//   - POST   /api/v1/projects            - create a project (seeds templates)
//   - GET    /api/v1/projects/{id}       - project details with file tree
//   - PUT    /api/v1/projects/{id}       - rename / update settings
//   - DELETE /api/v1/projects/{id}       - delete project and file records
//
// requireUser is the bearer-token middleware; tests substitute one that
// injects a fixed user.
func Routes(h *Handler, requireUser func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requireUser)

	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)

	return r
}
