package api

import (
	"context"
	"net/http"
	"time"

	"example.com/textile/erp/api/handlers"
	"example.com/textile/erp/api/middleware"
	"example.com/textile/erp/api/routes"
	"example.com/textile/erp/config"
	"example.com/textile/erp/internal/metrics"
	"example.com/textile/erp/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Server represents the HTTP server
type Server struct {
	config     config.ServerConfig
	router     *gin.Engine
	httpServer *http.Server
}

// NewServer creates a new HTTP server. nrApp may be nil.
func NewServer(
	cfg config.ServerConfig,
	svc *service.Services,
	m *metrics.Metrics,
	nrApp *newrelic.Application,
	checks []handlers.HealthCheck,
) *Server {
	router := NewRouter(cfg, svc, m, nrApp, checks)

	return &Server{
		config: cfg,
		router: router,
		httpServer: &http.Server{
			Addr:              cfg.Address,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       cfg.Timeout,
			WriteTimeout:      cfg.Timeout,
		},
	}
}

// NewRouter builds the gin engine with its middleware chain and routes
func NewRouter(
	cfg config.ServerConfig,
	svc *service.Services,
	m *metrics.Metrics,
	nrApp *newrelic.Application,
	checks []handlers.HealthCheck,
) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.Logger())
	router.Use(cors.New(corsConfig(cfg.CorsOrigins)))
	if cfg.GzipEnabled {
		router.Use(gzip.Gzip(gzip.DefaultCompression))
	}
	if nrApp != nil {
		router.Use(middleware.NewRelicMiddleware(nrApp)...)
	}
	router.Use(middleware.Metrics(m))

	routes.SetupRoutes(router, svc, handlers.NewMetricsHandler(m, checks), routes.Options{
		MetricsEnabled: cfg.MetricsEnabled,
	})
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader, "Content-Disposition", "X-Report-Rows"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.Address).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
