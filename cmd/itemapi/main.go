package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/itemapi/internal/application/items"
	"github.com/aescanero/itemapi/internal/config"
	"github.com/aescanero/itemapi/pkg/adapters/metrics/prometheus"
	"github.com/aescanero/itemapi/pkg/api/grpc"
	"github.com/aescanero/itemapi/pkg/api/http"
	"github.com/aescanero/itemapi/pkg/api/websocket"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "itemapi: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting item API",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	validator, err := items.NewValidator()
	if err != nil {
		return err
	}

	metricsCollector := prometheus.NewCollector()

	// Initialize API servers
	httpServer := http.NewServer(&http.Config{
		Addr:           cfg.GetHTTPAddr(),
		AllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		ReadTimeout:    cfg.Timeouts.Read,
		WriteTimeout:   cfg.Timeouts.Write,
		IdleTimeout:    cfg.Timeouts.Idle,
		Validator:      validator,
		Metrics:        metricsCollector,
		Logger:         logger,
	})

	wsHandler := websocket.NewHandler(&websocket.Config{
		Validator:      validator,
		Metrics:        metricsCollector,
		AllowedOrigins: http.NewOriginMatcher(cfg.HTTP.CORSAllowedOrigins),
		MaxMessageSize: cfg.HTTP.MaxBodyBytes,
		Logger:         logger,
	})
	httpServer.SetupWebSocket(wsHandler)

	var grpcServer *grpc.Server
	if cfg.GRPCEnabled() {
		grpcServer, err = grpc.NewServer(&grpc.Config{
			Addr:   cfg.GetGRPCAddr(),
			Logger: logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create gRPC server: %w", err)
		}
	}

	// Start servers
	errCh := make(chan error, 2)

	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- err
		}
	}()

	if grpcServer != nil {
		go func() {
			if err := grpcServer.Start(); err != nil {
				errCh <- err
			}
		}()
	}

	logger.Info("item API started",
		zap.String("http_addr", cfg.GetHTTPAddr()),
		zap.Int("grpc_port", cfg.GRPCPort))

	// Wait for interrupt signal or a server failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case runErr = <-errCh:
		logger.Error("server failed", zap.Error(runErr))
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.Shutdown)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if grpcServer != nil {
		if err := grpcServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("gRPC server shutdown error", zap.Error(err))
		}
	}

	logger.Info("item API shut down complete")
	return runErr
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
