package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-template-forms/internal/catalog"
	"github.com/a3tai/mcp-template-forms/internal/config"
	"github.com/a3tai/mcp-template-forms/internal/forms"
	"github.com/a3tai/mcp-template-forms/internal/logging"
	"github.com/a3tai/mcp-template-forms/internal/mcp"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging builds the logger for the server mode. In stdio mode logs go
// to stderr so they never interfere with the MCP protocol on stdout.
func setupLogging(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.LogLevel, !cfg.IsServerMode())
	if err != nil {
		return nil, err
	}
	// Route the standard library logger of dependencies through zap as well
	zap.RedirectStdLog(logger)
	return logger, nil
}

// openCatalog opens the configured placeholder catalog. The returned closer
// releases database handles and is never nil.
func openCatalog(ctx context.Context, cfg *config.Config) (catalog.Source, func(), error) {
	src, err := catalog.Open(ctx, cfg.CatalogPath)
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to open catalog: %w", err)
	}
	closer := func() {}
	if c, ok := src.(io.Closer); ok {
		closer = func() { _ = c.Close() }
	}
	return src, closer, nil
}

// newFormsService wires the forms service from the configuration
func newFormsService(cfg *config.Config, src catalog.Source, logger *zap.Logger) (*forms.Service, error) {
	return forms.NewService(forms.Options{
		TemplateDirectory: cfg.TemplateDirectory,
		MaxFileSize:       cfg.MaxFileSize,
		Catalog:           src,
		CatalogTimeout:    cfg.CatalogTimeout,
		Categories:        cfg.Categories(),
		LogoURL:           cfg.LogoURL,
		SignatureURL:      cfg.SignatureURL,
		Logger:            logger,
	})
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server, logger *zap.Logger) error {
	// Set up signal handling for graceful shutdown
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signalCh)

	// Start server in a goroutine
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-signalCh:
		logger.Info("received signal, initiating graceful shutdown", zap.String("signal", sig.String()))
		cancel()

		// Wait for server to shutdown
		if err := <-serverErrCh; err != nil {
			return fmt.Errorf("server shutdown with error: %w", err)
		}

	case err := <-serverErrCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("server stopped successfully")
	return nil
}

// runStdioMode handles stdio mode execution
func runStdioMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server) error {
	// In stdio mode the parent process controls our lifecycle; an interrupt
	// still stops the server cleanly
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer cancel()

	return server.Run(ctx)
}

func run() error {
	// Load configuration from flags first
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	logger, err := setupLogging(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Debug("starting with configuration", zap.Stringer("config", cfg))

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src, closeCatalog, err := openCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCatalog()

	formsService, err := newFormsService(cfg, src, logger)
	if err != nil {
		return fmt.Errorf("failed to create forms service: %w", err)
	}

	// Create MCP server
	server, err := mcp.NewServer(cfg, formsService, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	// Handle different modes
	if cfg.IsServerMode() {
		return runServerMode(ctx, cancel, server, logger)
	}
	return runStdioMode(ctx, cancel, server)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("MCP Template Forms\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
