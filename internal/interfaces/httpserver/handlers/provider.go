package handlers

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"chatdeck/services/inbox-sync/internal/engine"
)

// Provider holds all HTTP handlers.
type Provider struct {
	Chat *ChatHandler
}

// NewProvider creates a new handler provider.
func NewProvider(service ChatService, visibility VisibilityReporter, capability engine.CapabilitySource, log zerolog.Logger) *Provider {
	return &Provider{
		Chat: NewChatHandler(service, visibility, capability, log),
	}
}

// HandlerProvider provides all handlers for wire.
var HandlerProvider = wire.NewSet(
	NewChatHandler,
	NewProvider,
)
