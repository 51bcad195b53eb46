package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Router dispatches API routes on a plain http.ServeMux.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler registers an http.Handler (promhttp etc.)
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterLookupRoutes lookups (parent entity)
func (r *Router) RegisterLookupRoutes(h *LookupsHandler) {
	r.Handle("/api/v1/lookups", h.ServeHTTP)
	r.Handle("/api/v1/lookups/", h.ServeHTTP)
}

// RegisterLookupValueRoutes lookup values + xlsx export
func (r *Router) RegisterLookupValueRoutes(h *LookupValuesHandler) {
	r.Handle("/api/v1/lookup-values", h.ServeHTTP)
	r.Handle("/api/v1/lookup-values/", h.ServeHTTP)
	r.Handle("/api/v1/lookup-values/export", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Export(w, req)
	})
}

// RegisterOpsRoutes /metrics and /healthz
func (r *Router) RegisterOpsRoutes(registry *prometheus.Registry, ping func(*http.Request) error) {
	r.HandleHandler("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := ping(req); err != nil {
			r.logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, Fail("database unavailable"))
			return
		}
		writeJSON(w, http.StatusOK, Ok("ok"))
	})
}
