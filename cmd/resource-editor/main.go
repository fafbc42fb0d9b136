package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resource-editor-server/internal/accessor"
	"resource-editor-server/internal/changelog"
	"resource-editor-server/internal/config"
	"resource-editor-server/internal/datasource"
	"resource-editor-server/internal/lock"
	"resource-editor-server/internal/mcp"
	"resource-editor-server/internal/service"
	"resource-editor-server/internal/transport"
)

func main() {
	cfg := loadAndValidateConfig()
	logger := newLogger(cfg.Transport)
	logEffectiveConfig(logger, cfg)

	maxSizeBytes := int64(cfg.MaxResourceSizeMB) * 1024 * 1024
	lockTimeout := time.Duration(cfg.OperationTimeoutSec) * time.Second

	lockManager := lock.NewManager()
	registry := datasource.NewRegistry()
	accessors := make(map[string]accessor.ResourceAccessor)

	localConn := &datasource.Connection{
		ID:           "local",
		Name:         "Local Files",
		ProviderType: datasource.ProviderFilesystem,
		Root:         cfg.FilesystemRoot,
	}
	registry.Register(localConn, cfg.PrimaryDataSource == "local")
	accessors[localConn.ID] = accessor.NewFilesystemAccessor(localConn, lockManager, maxSizeBytes, lockTimeout)

	if cfg.BlockstoreRoot != "" {
		docsConn := &datasource.Connection{
			ID:           "docs",
			Name:         "Block Documents",
			ProviderType: datasource.ProviderBlockstore,
			Root:         cfg.BlockstoreRoot,
		}
		registry.Register(docsConn, cfg.PrimaryDataSource == "docs")
		accessors[docsConn.ID] = accessor.NewBlockstoreAccessor(docsConn, lockManager, maxSizeBytes, lockTimeout)
	}

	editorService := service.NewDefaultResourceEditorService(registry, accessors, changelog.NewLogger(), logger, cfg.MaxOperations)
	processor := mcp.NewProcessor(editorService)
	logger.Println("Core services initialized successfully.")

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)
	serverDoneChan := make(chan error, 1)

	var httpHandler *transport.HTTPHandler

	switch cfg.Transport {
	case "http":
		logger.Printf("Initializing HTTP transport on port %d", cfg.Port)
		httpHandler = transport.NewHTTPHandler(editorService, processor, logger)
		go func() {
			serverDoneChan <- httpHandler.StartServer(cfg.Port, cfg.OperationTimeoutSec, cfg.OperationTimeoutSec)
		}()
	case "stdio":
		logger.Println("Initializing stdio JSON-RPC transport")
		go func() {
			stdioHandler := transport.NewStdioHandler(processor, logger)
			serverDoneChan <- stdioHandler.Start(os.Stdin, os.Stdout)
		}()
	}

	select {
	case sig := <-shutdownChan:
		logger.Printf("Shutdown signal received: %s. Initiating graceful shutdown.", sig)
		if httpHandler != nil {
			ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
			defer cancel()
			if err := httpHandler.Shutdown(ctx); err != nil {
				logger.Printf("HTTP server graceful shutdown error: %v", err)
			} else {
				logger.Println("HTTP server gracefully stopped.")
			}
			<-serverDoneChan
		}
	case err := <-serverDoneChan:
		if err != nil {
			logger.Printf("Server stopped due to error: %v", err)
			os.Exit(1)
		}
		logger.Println("Server stopped normally.")
	}

	logger.Println("Application shutting down.")
}

func loadAndValidateConfig() *config.Config {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("CRITICAL: failed to parse configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("CRITICAL: configuration error: %v", err)
	}
	return cfg
}

// newLogger routes log output. Under stdio transport the stdout stream
// carries JSON-RPC responses, so logs go to stderr.
func newLogger(transportType string) *log.Logger {
	out := os.Stdout
	if transportType == "stdio" {
		out = os.Stderr
	}
	return log.New(out, "", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
}

func logEffectiveConfig(logger *log.Logger, cfg *config.Config) {
	logger.Println("Effective configuration:")
	logger.Printf("  Filesystem Root: %s", cfg.FilesystemRoot)
	if cfg.BlockstoreRoot != "" {
		logger.Printf("  Blockstore Root: %s", cfg.BlockstoreRoot)
	} else {
		logger.Println("  Blockstore: disabled")
	}
	logger.Printf("  Primary Data Source: %s", cfg.PrimaryDataSource)
	logger.Printf("  Transport: %s", cfg.Transport)
	if cfg.Transport == "http" {
		logger.Printf("  HTTP Port: %d", cfg.Port)
	}
	logger.Printf("  Max Resource Size (MB): %d", cfg.MaxResourceSizeMB)
	logger.Printf("  Max Operations per Batch: %d", cfg.MaxOperations)
	logger.Printf("  Operation Timeout (sec): %d", cfg.OperationTimeoutSec)
}
