// internal/app/features/health/health.go
package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/codehaven/codehaven/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler serves liveness and readiness probes. Readiness requires a
// reachable Mongo primary; liveness only requires the process to respond.
type Handler struct {
	mongoClient *mongo.Client
	logger      *zap.Logger
}

func NewHandler(mongoClient *mongo.Client, logger *zap.Logger) *Handler {
	return &Handler{mongoClient: mongoClient, logger: logger}
}

type status struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	return r
}

func (h *Handler) pingMongo(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	return h.mongoClient.Ping(ctx, readpref.Primary())
}

func writeStatus(w http.ResponseWriter, code int, s status) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(s)
}

// Check reports overall health with a per-service breakdown.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	s := status{Status: "ok", Services: map[string]string{"mongodb": "ok"}}
	code := http.StatusOK

	if err := h.pingMongo(r.Context()); err != nil {
		h.logger.Warn("health check: mongodb ping failed", zap.Error(err))
		s.Status = "degraded"
		s.Services["mongodb"] = "unavailable"
		code = http.StatusServiceUnavailable
	}

	writeStatus(w, code, s)
}

// Ready answers readiness probes; the service is ready once Mongo responds.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.pingMongo(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		writeStatus(w, http.StatusServiceUnavailable, status{Status: "not ready"})
		return
	}
	writeStatus(w, http.StatusOK, status{Status: "ready"})
}

// Live answers liveness probes.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, status{Status: "alive"})
}
