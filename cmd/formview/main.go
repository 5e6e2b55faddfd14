package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/formview/formview/internal/config"
	"github.com/formview/formview/internal/logger"
	"github.com/formview/formview/internal/mcp"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging configures the root logger based on the server mode
func setupLogging(cfg *config.Config) (zerolog.Logger, error) {
	return logger.Setup(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		// In stdio mode log output goes to stderr to avoid interfering
		// with the MCP protocol stream.
		Stdio: cfg.IsStdioMode(),
	})
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server, log zerolog.Logger) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		log.Info().Str("signal", sig.String()).Msg("initiating graceful shutdown")
		cancel()

		if err := <-serverErrCh; err != nil {
			log.Error().Err(err).Msg("server shutdown with error")
			os.Exit(1)
		}

	case err := <-serverErrCh:
		if err != nil {
			log.Error().Err(err).Msg("server error")
			os.Exit(1)
		}
	}

	log.Info().Msg("server stopped")
}

// runStdioMode handles stdio mode execution
func runStdioMode(ctx context.Context, server *mcp.Server, log zerolog.Logger) {
	// In stdio mode, the parent process controls our lifecycle. Exit
	// cleanly when stdin closes.
	if err := server.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsServerMode() {
		log.Debug().Stringer("config", cfg).Msg("starting")
	}

	server, err := mcp.NewServer(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create MCP server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.IsServerMode() {
		runServerMode(ctx, cancel, server, log)
	} else {
		runStdioMode(ctx, server, log)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("Formview\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
