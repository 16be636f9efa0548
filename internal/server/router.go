// Package server assembles the HTTP router of the API process
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/coursework/storefront/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// RouteRegistrar declares the bindings of one resource on a router scoped to its prefix
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// Routes are the resource route tables mounted under /api
type Routes struct {
	Users    RouteRegistrar
	Products RouteRegistrar
	Orders   RouteRegistrar
	Health   http.HandlerFunc
}

// Config controls router assembly
type Config struct {
	Port           int
	AllowedOrigins []string
	// RateLimit is the number of requests per minute allowed for one IP
	RateLimit      int
	MaxRequestSize int64
	Static         StaticConfig
	Registry       *prometheus.Registry
}

// NewRouter builds the chi router with the middleware chain, the API mounts,
// operational endpoints and the static/SPA fallback for unmatched paths
func NewRouter(cfg Config, routes Routes, logger *zap.Logger) (http.Handler, error) {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 100
	}
	if cfg.MaxRequestSize <= 0 {
		cfg.MaxRequestSize = middleware.DefaultMaxRequestSize
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	static, err := newStaticHandler(cfg.Static, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up static files: %w", err)
	}

	metrics := middleware.NewMetrics(cfg.Registry)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(metrics.Middleware)
	r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
	r.Use(middleware.RequestSizeLimit(cfg.MaxRequestSize))

	r.Route("/api/users", routes.Users.RegisterRoutes)
	r.Route("/api/products", routes.Products.RegisterRoutes)
	r.Route("/api/orders", routes.Orders.RegisterRoutes)

	if routes.Health != nil {
		r.Get("/health", routes.Health)
	}
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Port)),
	))

	r.NotFound(static.ServeHTTP)

	return r, nil
}
