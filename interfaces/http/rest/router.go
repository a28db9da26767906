package rest

import (
	"context"
	"net/http"
	"time"

	"catmenu/application/commands/bus"
	querybus "catmenu/application/queries/bus"
	"catmenu/interfaces/http/rest/handlers"
	"catmenu/interfaces/http/rest/middleware"
	"catmenu/pkg/auth"
	pkgerrors "catmenu/pkg/errors"
	"catmenu/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// ReadinessCheck reports whether a dependency can serve requests
type ReadinessCheck func(ctx context.Context) error

// Options configures optional router features
type Options struct {
	EnableCORS     bool
	AllowedOrigins []string
	// Metrics is exposed on /metrics and fed by the request middleware when set
	Metrics *observability.Collector
	// Ready is consulted by /ready; nil means always ready
	Ready ReadinessCheck
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	validator  middleware.TokenValidator
	nonces     auth.NonceVerifier
	errHandler *pkgerrors.ErrorHandler
	opts       Options
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	validator middleware.TokenValidator,
	nonces auth.NonceVerifier,
	errHandler *pkgerrors.ErrorHandler,
	opts Options,
	logger *zap.Logger,
) *Router {
	if nonces == nil {
		nonces = auth.AcceptAllNonces{}
	}
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		validator:  validator,
		nonces:     nonces,
		errHandler: errHandler,
		opts:       opts,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.opts.Metrics != nil {
		router.Use(middleware.Metrics(rt.opts.Metrics))
	}

	if rt.opts.EnableCORS {
		origins := rt.opts.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", auth.NonceHeader},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.opts.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.errHandler, rt.logger))
		r.Use(middleware.RequireRole(auth.RoleManageMenus, rt.errHandler))
		r.Use(middleware.RequireNonce(rt.nonces, rt.errHandler))

		categoryHandler := handlers.NewCategoryHandler(rt.queryBus, rt.errHandler, rt.logger)
		menuHandler := handlers.NewMenuHandler(rt.commandBus, rt.errHandler, rt.logger)

		r.Get("/categories/roots", categoryHandler.ListRoots)

		r.Get("/menus/{menuID}/categories/options", categoryHandler.MenuOptions)
		r.Post("/menus/{menuID}/categories", menuHandler.AddCategories)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errHandler.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errHandler.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := rt.opts.Ready(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			rt.errHandler.HandleStatus(w, req, http.StatusServiceUnavailable, "not ready")
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
