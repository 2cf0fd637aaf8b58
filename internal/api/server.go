package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/onco-triage-server/internal/domain"
	"github.com/onco-triage-server/internal/feedback"
	"github.com/onco-triage-server/internal/health"
	"github.com/onco-triage-server/internal/intake"
	"github.com/onco-triage-server/internal/middleware"
	"github.com/onco-triage-server/internal/repository"
	"github.com/onco-triage-server/internal/service"
)

// DispositionStats reads the de-identified daily disposition counters.
type DispositionStats interface {
	Range(ctx context.Context, from, to time.Time) ([]repository.DispositionCount, error)
}

// Options carries the collaborators the HTTP layer serves. Stats and
// RateLimiter are optional.
type Options struct {
	Logger      *logrus.Logger
	Triage      *service.TriageService
	Parser      *intake.Parser
	Feedback    feedback.Store
	Stats       DispositionStats
	Health      *health.Checker
	RateLimiter *middleware.RateLimiter
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	logger        *logrus.Logger
	triage        *service.TriageService
	parser        *intake.Parser
	feedback      feedback.Store
	stats         DispositionStats
	health        *health.Checker
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, opts Options) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.AuditLogger(opts.Logger))
	router.Use(corsMiddleware())
	if opts.RateLimiter != nil {
		router.Use(opts.RateLimiter.Middleware())
	}
	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))

	server := &Server{
		configManager: configManager,
		logger:        opts.Logger,
		triage:        opts.Triage,
		parser:        opts.Parser,
		feedback:      opts.Feedback,
		stats:         opts.Stats,
		health:        opts.Health,
		router:        router,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
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
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		triage := v1.Group("/triage")
		triage.GET("/rules", s.handleListRules)
		triage.POST("/evaluate", s.handleEvaluate)
		triage.POST("/export", s.handleExport)

		fb := v1.Group("/feedback")
		fb.POST("", s.handleSaveFeedback)
		fb.GET("", s.handleListFeedback)
		fb.GET("/export", s.handleExportFeedback)
		fb.GET("/:report_id", s.handleGetFeedback)
		fb.DELETE("/:id", s.handleDeleteFeedback)

		v1.GET("/stats/dispositions", s.handleDispositionStats)
	}
}

// handleHealth runs the component checks on demand
func (s *Server) handleHealth(c *gin.Context) {
	if s.health == nil {
		c.JSON(http.StatusOK, gin.H{
			"overall":   health.HealthStateHealthy,
			"timestamp": time.Now().UTC(),
		})
		return
	}

	status := s.health.Run(c.Request.Context())
	code := http.StatusOK
	if status.Overall == health.HealthStateUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Correlation-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Disposition, X-Correlation-ID, X-Report-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
