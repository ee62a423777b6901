// Package chatapi is the Resty-backed client for the platform's poll-list
// and capability-probe endpoints.
package chatapi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"chatdeck/services/inbox-sync/internal/domain/chat"
	"chatdeck/services/inbox-sync/internal/domain/compliance"
	"chatdeck/services/inbox-sync/internal/domain/session"
)

// Client talks to the platform backend. The capability probe result is
// cached for a short TTL; the compliance gate always evaluates the latest
// snapshot at send time.
type Client struct {
	httpClient     *resty.Client
	windowDuration time.Duration
	capTTL         time.Duration

	mu           sync.Mutex
	cachedCap    *compliance.Capability
	capFetchedAt time.Time
}

// NewClient creates a chatapi client.
func NewClient(baseURL string, windowDuration, capTTL time.Duration) *Client {
	if windowDuration <= 0 {
		windowDuration = session.DefaultDuration
	}
	return &Client{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(15 * time.Second),
		windowDuration: windowDuration,
		capTTL:         capTTL,
	}
}

type messageDTO struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"createdAt"`
}

type sessionDTO struct {
	State          string     `json:"state"`
	LastInboundAt  *time.Time `json:"lastInboundAt"`
	LastOutboundAt *time.Time `json:"lastOutboundAt"`
}

type transcriptResponse struct {
	Messages []messageDTO `json:"messages"`
	Session  sessionDTO   `json:"session"`
}

// FetchTranscript retrieves the authoritative transcript. The session
// window is recomputed locally from the returned timestamps rather than
// trusted from the wire, so it is always a function of its inputs.
func (c *Client) FetchTranscript(ctx context.Context, conversationID string) (*chat.TranscriptSnapshot, error) {
	var out transcriptResponse
	request := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", conversationID).
		SetResult(&out)

	if token := chat.AuthTokenFromContext(ctx); token != "" {
		request.SetHeader("Authorization", token)
	}

	resp, err := request.Get("/v1/conversations/{id}/messages")
	if err != nil {
		return nil, fmt.Errorf("fetch transcript: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch transcript: %s", resp.String())
	}

	messages := make([]chat.Message, 0, len(out.Messages))
	for _, dto := range out.Messages {
		messages = append(messages, chat.Message{
			ID:        dto.ID,
			Origin:    chat.OriginDurable,
			Role:      chat.Role(dto.Role),
			Content:   dto.Content,
			Status:    parseStatus(dto.Status),
			Provider:  dto.Provider,
			CreatedAt: dto.CreatedAt,
		})
	}

	window := session.Compute(out.Session.LastInboundAt, out.Session.LastOutboundAt, c.windowDuration, time.Now())
	return &chat.TranscriptSnapshot{Messages: messages, Window: window}, nil
}

// Capability returns the cached probe snapshot, refreshing it when stale.
func (c *Client) Capability(ctx context.Context) (*compliance.Capability, error) {
	c.mu.Lock()
	if c.cachedCap != nil && time.Since(c.capFetchedAt) < c.capTTL {
		snapshot := *c.cachedCap
		c.mu.Unlock()
		return &snapshot, nil
	}
	c.mu.Unlock()

	var out compliance.Capability
	request := c.httpClient.R().
		SetContext(ctx).
		SetResult(&out)

	if token := chat.AuthTokenFromContext(ctx); token != "" {
		request.SetHeader("Authorization", token)
	}

	resp, err := request.Get("/v1/capability")
	if err != nil {
		return nil, fmt.Errorf("capability probe: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("capability probe: %s", resp.String())
	}

	c.mu.Lock()
	c.cachedCap = &out
	c.capFetchedAt = time.Now()
	c.mu.Unlock()

	snapshot := out
	return &snapshot, nil
}

func parseStatus(raw string) chat.Status {
	switch chat.Status(raw) {
	case chat.StatusPending, chat.StatusStreaming, chat.StatusDone, chat.StatusError, chat.StatusCancelled:
		return chat.Status(raw)
	default:
		return chat.StatusDone
	}
}

// Ensure interface compliance.
var _ chat.TranscriptSource = (*Client)(nil)
