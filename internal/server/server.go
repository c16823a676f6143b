package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/middleware"
)

type Server struct {
	config   *config.Config
	router   *gin.Engine
	handlers *handlers.Handlers
	metrics  *metrics.Metrics
	http     *http.Server
	logger   *logging.Logger
}

func New(h *handlers.Handlers, cfg *config.Config, m *metrics.Metrics) *Server {
	if cfg.Environment != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := logging.NewLogger("http")

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger, m))

	s := &Server{
		config:   cfg,
		router:   router,
		handlers: h,
		metrics:  m,
		logger:   logger,
	}

	s.setupRoutes()

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.Health)
	s.router.GET("/ready", s.handlers.Ready)
	s.router.GET("/live", s.handlers.Live)
	s.router.GET(s.metricsPath(), gin.WrapH(s.metrics.Handler()))

	api := s.router.Group("/api")
	{
		api.GET("/products", s.handlers.ListProducts)
		api.POST("/orders", s.handlers.CreateOrder)
		api.GET("/orders/:id", s.handlers.GetOrder)
		api.POST("/seed-products", s.handlers.SeedProducts)
	}
}

func (s *Server) metricsPath() string {
	if s.config.Metrics.Path == "" {
		return "/metrics"
	}
	return s.config.Metrics.Path
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Listening", logging.Fields{"addr": s.http.Addr})
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
