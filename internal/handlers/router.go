package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/quantum-portal/api/internal/platform/httpx"
)

// RouteRegistrar registers a set of routes against the provided router.
type RouteRegistrar func(r chi.Router)

// Route groups mounted under the API prefix.
const (
	groupPublic   = "public"
	groupAdmin    = "admin"
	groupWebhooks = "webhooks"
	groupInternal = "internal"
)

var groupOrder = []string{groupPublic, groupAdmin, groupWebhooks, groupInternal}

type routeGroup struct {
	routes      RouteRegistrar
	middlewares []func(http.Handler) http.Handler
}

type routerConfig struct {
	prefix      string
	timeout     time.Duration
	middlewares []func(http.Handler) http.Handler
	health      *HealthHandlers
	metrics     http.Handler
	groups      map[string]*routeGroup
}

func (c *routerConfig) group(name string) *routeGroup {
	g, ok := c.groups[name]
	if !ok {
		g = &routeGroup{}
		c.groups[name] = g
	}
	return g
}

// Option customises the router configuration before construction.
type Option func(*routerConfig)

const (
	defaultAPIPrefix      = "/api/v1"
	defaultRequestTimeout = 30 * time.Second
)

// NewRouter builds the HTTP surface: probes and metrics at the root, then the public, admin,
// webhook and internal groups under the API prefix. A group without routes is not mounted and
// answers route_not_found like any unknown path.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{
		prefix:  defaultAPIPrefix,
		timeout: defaultRequestTimeout,
		groups:  make(map[string]*routeGroup, len(groupOrder)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.health == nil {
		cfg.health = NewHealthHandlers()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.CleanPath, middleware.StripSlashes)
	if cfg.timeout > 0 {
		r.Use(middleware.Timeout(cfg.timeout))
	}
	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(routeNotFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/healthz", cfg.health.Healthz)
	r.Get("/readyz", cfg.health.Readyz)
	if cfg.metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.metrics)
	}

	r.Route(cfg.prefix, func(api chi.Router) {
		for _, name := range groupOrder {
			g, ok := cfg.groups[name]
			if !ok || g.routes == nil {
				continue
			}
			api.Route("/"+name, func(sub chi.Router) {
				for _, mw := range g.middlewares {
					if mw != nil {
						sub.Use(mw)
					}
				}
				g.routes(sub)
			})
		}
	})
	return r
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	httpx.WriteError(r.Context(), w, httpx.NewError("route_not_found", fmt.Sprintf("no route for %s", r.URL.Path), http.StatusNotFound))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httpx.WriteError(r.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", r.Method, r.URL.Path), http.StatusMethodNotAllowed))
}

// WithAPIPrefix mounts the route groups below prefix instead of /api/v1.
func WithAPIPrefix(prefix string) Option {
	return func(cfg *routerConfig) {
		if prefix != "" {
			cfg.prefix = prefix
		}
	}
}

// WithRequestTimeout bounds every request's context. Zero disables the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *routerConfig) {
		if d >= 0 {
			cfg.timeout = d
		}
	}
}

// WithMiddlewares appends global middleware, applied after request ID and path cleanup.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) { cfg.middlewares = append(cfg.middlewares, mw...) }
}

// WithHealthHandlers overrides the probe handlers.
func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) { cfg.health = h }
}

// WithMetricsHandler exposes h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(cfg *routerConfig) { cfg.metrics = h }
}

// WithPublicRoutes mounts the tenant-facing delivery API.
func WithPublicRoutes(reg RouteRegistrar) Option { return withGroupRoutes(groupPublic, reg) }

// WithPublicMiddlewares wraps the public group, typically with tenant resolution.
func WithPublicMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return withGroupMiddlewares(groupPublic, mw)
}

// WithAdminRoutes mounts the authoring API.
func WithAdminRoutes(reg RouteRegistrar) Option { return withGroupRoutes(groupAdmin, reg) }

// WithWebhookRoutes mounts provider callbacks.
func WithWebhookRoutes(reg RouteRegistrar) Option { return withGroupRoutes(groupWebhooks, reg) }

// WithWebhookMiddlewares wraps the webhook group, typically with signature verification.
func WithWebhookMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return withGroupMiddlewares(groupWebhooks, mw)
}

// WithInternalRoutes mounts endpoints invoked by the platform scheduler.
func WithInternalRoutes(reg RouteRegistrar) Option { return withGroupRoutes(groupInternal, reg) }

// WithInternalMiddlewares wraps the internal group, typically with OIDC verification.
func WithInternalMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return withGroupMiddlewares(groupInternal, mw)
}

func withGroupRoutes(name string, reg RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.group(name).routes = reg }
}

func withGroupMiddlewares(name string, mw []func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		g := cfg.group(name)
		g.middlewares = append(g.middlewares, mw...)
	}
}
