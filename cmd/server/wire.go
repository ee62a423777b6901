//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"chatdeck/services/inbox-sync/internal/config"
	"chatdeck/services/inbox-sync/internal/domain/chat"
	"chatdeck/services/inbox-sync/internal/domain/transcript"
	"chatdeck/services/inbox-sync/internal/engine"
	"chatdeck/services/inbox-sync/internal/infrastructure/auth"
	"chatdeck/services/inbox-sync/internal/infrastructure/chatapi"
	"chatdeck/services/inbox-sync/internal/infrastructure/streamclient"
	"chatdeck/services/inbox-sync/internal/interfaces/httpserver"
	"chatdeck/services/inbox-sync/internal/poller"
)

// ProviderSet is the wire provider set for the application.
var ProviderSet = wire.NewSet(
	// Infrastructure providers
	ProvideStreamProvider,
	ProvidePlatformClient,
	ProvideTranscriptStore,
	ProvideReconciler,
	ProvideAuthValidator,

	// Domain providers
	ProvideEngine,
	ProvidePoller,

	// Interface providers
	ProvideHTTPServer,

	// Application
	NewApplication,
)

// ProvideStreamProvider provides the upstream SSE stream client.
func ProvideStreamProvider(cfg *config.Config) chat.StreamProvider {
	return streamclient.NewClient(cfg.PlatformAPIURL, cfg.StreamTimeout)
}

// ProvidePlatformClient provides the platform REST client.
func ProvidePlatformClient(cfg *config.Config) *chatapi.Client {
	return chatapi.NewClient(cfg.PlatformAPIURL, cfg.SessionWindow, cfg.CapabilityTTL)
}

// ProvideTranscriptStore provides the in-memory transcript store.
func ProvideTranscriptStore(log zerolog.Logger) *transcript.Store {
	return transcript.NewStore(log)
}

// ProvideReconciler provides the transcript reconciler.
func ProvideReconciler(store *transcript.Store, log zerolog.Logger) *transcript.Reconciler {
	return transcript.NewReconciler(store, log)
}

// ProvideAuthValidator provides an auth validator.
func ProvideAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

// ProvideEngine provides the synchronization engine.
func ProvideEngine(
	cfg *config.Config,
	store *transcript.Store,
	rec *transcript.Reconciler,
	streams chat.StreamProvider,
	platform *chatapi.Client,
	log zerolog.Logger,
) *engine.Engine {
	return engine.New(engine.Config{
		WindowDuration: cfg.SessionWindow,
		StreamTimeout:  cfg.StreamTimeout,
	}, store, rec, streams, platform, log)
}

// ProvidePoller provides the fallback poller.
func ProvidePoller(platform *chatapi.Client, store *transcript.Store, cfg *config.Config, log zerolog.Logger) *poller.Poller {
	return poller.New(platform, store, cfg.PollInterval, log)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(
	cfg *config.Config,
	log zerolog.Logger,
	syncEngine *engine.Engine,
	fallbackPoller *poller.Poller,
	platform *chatapi.Client,
	authValidator *auth.Validator,
) *httpserver.HTTPServer {
	return httpserver.New(cfg, log, syncEngine, fallbackPoller, platform, authValidator)
}

// CreateApplication creates the application with all dependencies wired.
func CreateApplication(
	ctx context.Context,
	cfg *config.Config,
	log zerolog.Logger,
) (*Application, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
