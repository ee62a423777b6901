package chat

import (
	"context"

	"chatdeck/services/inbox-sync/internal/domain/session"
)

// SendRequest is the upstream send-stream request body.
type SendRequest struct {
	ConversationID string `json:"conversationId"`
	Text           string `json:"text"`
	ProviderKey    string `json:"providerKey"`
	ModeKey        string `json:"modeKey"`
}

// Stream is a single-pass ordered event sequence. Recv returns io.EOF when
// the source closes; the stream is not restartable.
type Stream interface {
	Recv() (*Event, error)
	Close() error
}

// StreamProvider opens a send stream against the platform backend.
type StreamProvider interface {
	OpenStream(ctx context.Context, req SendRequest) (Stream, error)
}

// TranscriptSnapshot is one poll result: the authoritative message list and
// session window for a conversation.
type TranscriptSnapshot struct {
	Messages []Message
	Window   session.Window
}

// TranscriptSource fetches server truth for a conversation.
type TranscriptSource interface {
	FetchTranscript(ctx context.Context, conversationID string) (*TranscriptSnapshot, error)
}

type authTokenKey struct{}

// WithAuthToken stores the caller's bearer token for upstream calls.
func WithAuthToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, authTokenKey{}, token)
}

// AuthTokenFromContext returns the bearer token set by WithAuthToken, if any.
func AuthTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(authTokenKey{}).(string)
	return token
}
