// Package main runs the library lending REST gateway.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/library-lending/gateway/internal/api"
	"github.com/library-lending/gateway/internal/audit"
	"github.com/library-lending/gateway/internal/config"
	"github.com/library-lending/gateway/internal/rpc"
)

// Version is reported at startup.
const Version = "1.0.0"

func main() {
	// Step 1: Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Step 2: Configure structured logging
	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	slog.SetDefault(logger)
	logger.Info("starting library gateway", "version", Version)

	opts := []rpc.Option{
		rpc.WithCallTimeout(cfg.Backend.CallTimeout),
		rpc.WithLogger(logger),
	}

	// Step 3: Initialize audit logger if enabled
	var auditLogger *audit.Logger
	if cfg.Audit.Dir != "" {
		auditLogger, err = audit.NewLogger(cfg.Audit)
		if err != nil {
			log.Fatalf("Failed to initialize audit logger: %v", err)
		}
		opts = append(opts, rpc.WithRecorder(auditLogger))
		logger.Info("audit logger initialized", "path", auditLogger.FilePath())
	}

	// Step 4: Create backend client (connects lazily)
	client, err := rpc.Dial(cfg.Backend.Address, opts...)
	if err != nil {
		log.Fatalf("Failed to create backend client: %v", err)
	}
	logger.Info("backend client created", "target", client.Target())

	// Optionally wait for the backend before serving
	if cfg.Backend.WaitForBackend > 0 {
		waitCtx, cancel := context.WithTimeout(context.Background(), cfg.Backend.WaitForBackend)
		if err := client.WaitForReady(waitCtx); err != nil {
			logger.Warn("backend not ready, continuing; calls fail with Unavailable until it is", "error", err)
		} else {
			logger.Info("backend connection ready")
		}
		cancel()
	}

	// Step 5: Create API server
	server := api.NewServer(client, cfg.HTTP, logger)
	addr := cfg.Addr()

	// Step 6: Start HTTP server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(addr); err != nil {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()
	logger.Info("gateway listening", "addr", addr, "health", fmt.Sprintf("http://localhost%s/health", addr))

	// Set up graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal or server error
	select {
	case sig := <-shutdown:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-serverErr:
		logger.Error("server error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop HTTP server first so no new calls start
	if err := server.Stop(ctx); err != nil {
		logger.Error("error stopping HTTP server", "error", err)
	}
	// Close backend connection
	if err := client.Close(); err != nil {
		logger.Error("error closing backend client", "error", err)
	}
	// Close audit logger
	if auditLogger != nil {
		if err := auditLogger.Close(); err != nil {
			logger.Error("error closing audit logger", "error", err)
		}
	}
	logger.Info("gateway shutdown complete")
}

func newLogger(cfg config.LogConfig) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}
