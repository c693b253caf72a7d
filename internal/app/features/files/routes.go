package files

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the file API endpoints.
//
// When mounted at /api/v1/files:
//   - GET    /api/v1/files/{projectID}/tree             - nested file tree
//   - GET    /api/v1/files/{projectID}/content          - read (fileId or path query)
//   - PUT    /api/v1/files/{projectID}/content          - write content
//   - POST   /api/v1/files/{projectID}                  - create file/folder
//   - DELETE /api/v1/files/{projectID}/{fileID}         - delete (recursive)
//   - PUT    /api/v1/files/{projectID}/{fileID}/rename  - rename
//   - PUT    /api/v1/files/{projectID}/{fileID}/move    - move to another folder
func Routes(h *Handler, requireUser func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requireUser)

	r.Route("/{projectID}", func(pr chi.Router) {
		pr.Get("/tree", h.tree)
		pr.Get("/content", h.readContent)
		pr.Put("/content", h.writeContent)
		pr.Post("/", h.create)
		pr.Delete("/{fileID}", h.remove)
		pr.Put("/{fileID}/rename", h.rename)
		pr.Put("/{fileID}/move", h.move)
	})

	return r
}
