package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/thornav/decoy/internal/config"
	"github.com/thornav/decoy/internal/console"
	"github.com/thornav/decoy/internal/logging"
	"github.com/thornav/decoy/internal/registry"
	"github.com/thornav/decoy/internal/relay"
	"github.com/thornav/decoy/internal/server"
	"github.com/thornav/decoy/internal/tracing"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	listenAddr := flag.String("listen", "", "Listen address, overrides the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run wires the two execution contexts together: the relay and store
// are constructed once and handed to both sides, the backend is bound
// and serving before the foreground loop starts polling, and teardown
// restores the terminal before reporting any failure.
func run(cfg *config.Config) error {
	rel := relay.New(cfg.Logging.Buffer)
	logger := logging.New(rel, cfg.Logging.Level)
	logger.Info("application_starting")

	store := registry.New(cfg.Server.MatchMethod)

	if cfg.Endpoints.File != "" {
		seeds, err := registry.LoadFile(cfg.Endpoints.File)
		if err != nil {
			return fmt.Errorf("load endpoints file: %w", err)
		}
		added, updated := store.ApplySeeds(seeds)
		logger.Info("endpoints_loaded",
			zap.String("file", cfg.Endpoints.File),
			zap.Int("added", added),
			zap.Int("updated", updated),
		)
		if cfg.Endpoints.Watch {
			watcher, err := registry.WatchFile(cfg.Endpoints.File, store, logger)
			if err != nil {
				return fmt.Errorf("watch endpoints file: %w", err)
			}
			defer watcher.Close()
		}
	}

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Init(context.Background(), cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
		if err != nil {
			logger.Error("tracing_init_failed", zap.Error(err))
		} else {
			defer func() { _ = shutdown(context.Background()) }()
			logger.Info("tracing_initialized",
				zap.String("service", cfg.Tracing.ServiceName),
				zap.String("endpoint", cfg.Tracing.Endpoint),
			)
		}
	}

	srv := server.New(server.Options{
		Addr:            cfg.Server.ListenAddr,
		Metrics:         cfg.Server.Metrics,
		VerboseNotFound: cfg.Server.VerboseNotFound,
	}, store, logger)

	// Bind before the terminal is taken over: a server with no
	// listener provides no value, and the error must reach stderr.
	if err := srv.Listen(); err != nil {
		return fmt.Errorf("bind %s: %w", cfg.Server.ListenAddr, err)
	}
	defer srv.Close()
	go func() {
		if err := srv.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_stopped", zap.Error(err))
		}
	}()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()

	app := console.New(screen, store, rel, logger, console.Options{
		Scrollback:      cfg.Logging.Scrollback,
		UnknownCommands: cfg.Commands.Unknown,
	})
	return app.Run()
}
