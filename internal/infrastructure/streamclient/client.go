// Package streamclient opens send streams against the platform backend and
// decodes their line-oriented event protocol.
package streamclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"chatdeck/services/inbox-sync/internal/domain/chat"
)

// Client opens send streams. The raw http.Client is used instead of resty
// because the response body must be consumed incrementally.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a stream client. timeout bounds the whole stream
// lifetime, not a single read.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// OpenStream POSTs the send request and hands the streaming body to a
// Decoder. Closing the returned stream releases the body.
func (c *Client) OpenStream(ctx context.Context, req chat.SendRequest) (chat.Stream, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages/stream", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if token := chat.AuthTokenFromContext(ctx); token != "" {
		httpReq.Header.Set("Authorization", token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("send stream error: %d %s", resp.StatusCode, string(msg))
	}

	return NewDecoder(resp.Body), nil
}

// Ensure interface compliance.
var _ chat.StreamProvider = (*Client)(nil)
