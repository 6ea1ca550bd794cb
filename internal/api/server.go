// Package api serves the readmission risk pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/readmission-risk-server/internal/domain"
	"github.com/readmission-risk-server/internal/middleware"
	"github.com/readmission-risk-server/internal/model"
	"github.com/readmission-risk-server/internal/monitoring"
)

// maxRequestBody bounds assessment request bodies.
const maxRequestBody = 64 << 10

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	assessor      domain.Assessor
	bundle        *model.Bundle
	metrics       *monitoring.Metrics
	logger        *logrus.Logger
	version       string
	router        *gin.Engine
	server        *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for audit and error logging.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(s *Server) {
		s.metrics = metrics
	}
}

// WithVersion sets the version reported by the health endpoint.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// NewServer creates a new HTTP server instance around an assessor and the bundle it
// was built from.
func NewServer(configManager domain.ConfigManager, assessor domain.Assessor, bundle *model.Bundle, opts ...Option) *Server {
	s := &Server{
		configManager: configManager,
		assessor:      assessor,
		bundle:        bundle,
		logger:        logrus.New(),
		version:       "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger(s.logger))
	router.Use(corsMiddleware())
	if s.metrics != nil {
		router.Use(middleware.RequestMetrics(s.metrics))
	}
	s.router = router

	s.setupRoutes(cfg)
	return s
}

// Router exposes the HTTP handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.TLSEnabled {
			err = s.server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.WithField("addr", addr).Info("HTTP server listening")

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes(cfg *domain.Config) {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/model", s.handleModel)

		limited := v1.Group("")
		limited.Use(middleware.RateLimit(middleware.NewLimiter(cfg.RateLimit)))
		limited.Use(middleware.MaxBodySize(maxRequestBody))
		limited.POST("/assess", s.handleAssess)
		limited.POST("/features", s.handleFeatures)
	}

	if s.metrics != nil && cfg.Metrics.Enabled {
		s.router.GET(cfg.Metrics.Path, gin.WrapH(s.metrics.Handler()))
	}
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, "+middleware.CorrelationIDHeader)
		c.Header("Access-Control-Expose-Headers", "Content-Length, "+middleware.CorrelationIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
