package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/aescanero/itemapi/internal/application/items"
	"github.com/aescanero/itemapi/pkg/adapters/metrics/prometheus"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server represents the HTTP API server
type Server struct {
	router       *gin.Engine
	server       *http.Server
	validator    *items.Validator
	metrics      *prometheus.Collector
	logger       *zap.Logger
	maxBodyBytes int64
}

// Config holds HTTP server configuration
type Config struct {
	Addr           string
	AllowedOrigins []string
	MaxBodyBytes   int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	Validator      *items.Validator
	Metrics        *prometheus.Collector
	Logger         *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	// The outer recovery guards the logging and metrics middlewares; the
	// inner one turns handler panics into a 500 they can still observe.
	router.Use(recovery(cfg.Logger))
	router.Use(requestID())
	router.Use(requestLogger(cfg.Logger))
	router.Use(requestMetrics(cfg.Metrics))
	router.Use(recovery(cfg.Logger))
	router.Use(corsMiddleware(NewOriginMatcher(cfg.AllowedOrigins)))
	router.Use(gzip.Gzip(
		gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/metrics", "/ws"}),
		gzip.WithDecompressFn(gzip.DefaultDecompressHandle),
	))

	s := &Server{
		router:       router,
		validator:    cfg.Validator,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		maxBodyBytes: cfg.MaxBodyBytes,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// setupRoutes configures API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	s.router.GET("/hello", s.handleHello)
	s.router.POST("/items", s.handleCreateItem)

	s.router.NoRoute(s.handleNotFound)
}

// SetupWebSocket adds WebSocket handler to the server
func (s *Server) SetupWebSocket(handler interface{}) {
	if wsHandler, ok := handler.(interface {
		HandleItemStream(*gin.Context)
	}); ok {
		s.router.GET("/ws/items", wsHandler.HandleItemStream)
	}
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the configured address and serves until Shutdown
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}

	return s.Serve(listener)
}

// Serve accepts connections on listener until Shutdown
func (s *Server) Serve(listener net.Listener) error {
	s.logger.Info("starting HTTP server", zap.String("addr", listener.Addr().String()))

	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}
