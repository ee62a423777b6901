package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"chatdeck/services/inbox-sync/internal/config"
	"chatdeck/services/inbox-sync/internal/domain/transcript"
	"chatdeck/services/inbox-sync/internal/engine"
	"chatdeck/services/inbox-sync/internal/infrastructure/auth"
	"chatdeck/services/inbox-sync/internal/infrastructure/chatapi"
	"chatdeck/services/inbox-sync/internal/infrastructure/logger"
	"chatdeck/services/inbox-sync/internal/infrastructure/observability"
	"chatdeck/services/inbox-sync/internal/infrastructure/streamclient"
	"chatdeck/services/inbox-sync/internal/interfaces/httpserver"
	"chatdeck/services/inbox-sync/internal/poller"
)

// Application holds the main application components.
type Application struct {
	httpServer *httpserver.HTTPServer
	syncEngine *engine.Engine
	poller     *poller.Poller
	log        zerolog.Logger
}

// NewApplication creates a new application instance.
func NewApplication(httpServer *httpserver.HTTPServer, syncEngine *engine.Engine, fallbackPoller *poller.Poller, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		syncEngine: syncEngine,
		poller:     fallbackPoller,
		log:        log,
	}
}

// Start runs the application.
func (a *Application) Start(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return a.poller.Run(groupCtx)
	})
	group.Go(func() error {
		return a.httpServer.Run(groupCtx)
	})

	err := group.Wait()

	a.poller.Stop()
	a.syncEngine.Close()

	return err
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup observability
	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	// Initialize auth validator
	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize auth validator")
	}

	// Initialize platform clients
	streams := streamclient.NewClient(cfg.PlatformAPIURL, cfg.StreamTimeout)
	platform := chatapi.NewClient(cfg.PlatformAPIURL, cfg.SessionWindow, cfg.CapabilityTTL)

	// Initialize transcript store and reconciler (mutex-based, no goroutine)
	store := transcript.NewStore(log)
	reconciler := transcript.NewReconciler(store, log)

	// Initialize the synchronization engine
	syncEngine := engine.New(engine.Config{
		WindowDuration: cfg.SessionWindow,
		StreamTimeout:  cfg.StreamTimeout,
	}, store, reconciler, streams, platform, log)

	// Initialize the fallback poller
	fallbackPoller := poller.New(platform, store, cfg.PollInterval, log)

	// Initialize HTTP server
	httpServer := httpserver.New(cfg, log, syncEngine, fallbackPoller, platform, authValidator)

	// Create and start application
	app := NewApplication(httpServer, syncEngine, fallbackPoller, log)

	log.Info().
		Str("service", cfg.ServiceName).
		Int("port", cfg.HTTPPort).
		Str("environment", cfg.Environment).
		Msg("starting application")

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env", "../../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
