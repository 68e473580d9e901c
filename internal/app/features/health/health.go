// internal/app/features/health/health.go
package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Mongo adapts a mongo client to Pinger, pinging the primary.
func Mongo(c *mongo.Client) Pinger { return mongoPinger{c} }

type mongoPinger struct{ c *mongo.Client }

func (m mongoPinger) Ping(ctx context.Context) error { return m.c.Ping(ctx, readpref.Primary()) }

// Dependency is one backend reported by /health. A failing Required
// dependency makes the service unhealthy and not ready; an optional one is
// only reported.
type Dependency struct {
	Name     string
	Pinger   Pinger
	Required bool
}

// Handler provides health check endpoints.
type Handler struct {
	deps   []Dependency
	logger *zap.Logger
}

// NewHandler creates a health Handler over deps. Dependencies with a nil
// Pinger are skipped.
func NewHandler(logger *zap.Logger, deps ...Dependency) *Handler {
	h := &Handler{logger: logger}
	for _, d := range deps {
		if d.Pinger != nil {
			h.deps = append(h.deps, d)
		}
	}
	return h
}

// Response represents the health check response.
type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

// Routes returns a chi.Router with health check routes mounted.
// Provides /health (full check), /health/ready, and /health/live.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	return r
}

// MountRootEndpoints adds the Kubernetes probe paths to the root router:
// /ready and /readyz for readiness, /livez for liveness.
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/ready", h.Ready)
	r.Get("/readyz", h.Ready)
	r.Get("/livez", h.Live)
}

// probe pings every dependency and reports per-service state plus whether
// all required ones answered.
func (h *Handler) probe(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Ping(), h.logger, "health check")
	defer cancel()

	services := make(map[string]string, len(h.deps))
	healthy := true
	for _, d := range h.deps {
		if err := d.Pinger.Ping(ctx); err != nil {
			services[d.Name] = "unavailable"
			h.logger.Warn("health check: ping failed", zap.String("service", d.Name), zap.Error(err))
			if d.Required {
				healthy = false
			}
			continue
		}
		services[d.Name] = "ok"
	}
	return services, healthy
}

// Check reports every dependency. It answers 503 when a required one is down.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	services, healthy := h.probe(r.Context())
	if !healthy {
		jsonutil.JSON(w, http.StatusServiceUnavailable, Response{Status: "degraded", Services: services})
		return
	}
	jsonutil.OK(w, Response{Status: "ok", Services: services})
}

// Ready answers 200 once every required dependency responds.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if _, healthy := h.probe(r.Context()); !healthy {
		jsonutil.JSON(w, http.StatusServiceUnavailable, Response{Status: "not ready"})
		return
	}
	jsonutil.OK(w, Response{Status: "ready"})
}

// Live always answers 200 while the process serves requests.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, Response{Status: "alive"})
}
