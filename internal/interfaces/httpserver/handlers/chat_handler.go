package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"chatdeck/services/inbox-sync/internal/domain/chat"
	"chatdeck/services/inbox-sync/internal/domain/compliance"
	"chatdeck/services/inbox-sync/internal/domain/session"
	"chatdeck/services/inbox-sync/internal/engine"
	"chatdeck/services/inbox-sync/internal/infrastructure/auth"
	"chatdeck/services/inbox-sync/internal/interfaces/httpserver/responses"
)

// ChatService is the engine surface the handlers depend on.
type ChatService interface {
	Send(ctx context.Context, convID, text string, opts engine.SendOptions) (*engine.SendHandle, compliance.Decision, error)
	Cancel(convID string) bool
	Snapshot(convID string) (chat.Conversation, session.Window, error)
}

var _ ChatService = (*engine.Engine)(nil)

// VisibilityReporter receives dashboard visibility changes.
type VisibilityReporter interface {
	SetVisible(visible bool)
}

// ChatHandler exposes the synchronization engine over HTTP.
type ChatHandler struct {
	service    ChatService
	visibility VisibilityReporter
	capability engine.CapabilitySource
	log        zerolog.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(service ChatService, visibility VisibilityReporter, capability engine.CapabilitySource, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service:    service,
		visibility: visibility,
		capability: capability,
		log:        log.With().Str("component", "chat-handler").Logger(),
	}
}

// SendMessageRequest is the send endpoint body.
type SendMessageRequest struct {
	Text        string `json:"text" binding:"required"`
	ProviderKey string `json:"provider_key"`
	ModeKey     string `json:"mode_key"`
	Template    bool   `json:"template"`
}

// SendMessage gates and starts a send, then re-streams the decoded events
// to the dashboard as SSE. A blocked send returns 403 with the reason code
// and never opens a stream.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	convID := c.Param("id")

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.WriteValidationError(c, "text is required")
		return
	}

	ctx := c.Request.Context()
	if token := c.GetHeader("Authorization"); token != "" {
		ctx = chat.WithAuthToken(ctx, token)
	}

	handle, decision, err := h.service.Send(ctx, convID, req.Text, engine.SendOptions{
		ProviderKey: req.ProviderKey,
		ModeKey:     req.ModeKey,
		Template:    req.Template,
		CanWrite:    auth.CanWrite(c),
	})
	if err != nil {
		if errors.Is(err, engine.ErrEmptyText) {
			responses.WriteValidationError(c, err.Error())
			return
		}
		responses.HandleError(c, err, "failed to start send")
		return
	}
	if !decision.Allowed {
		responses.WriteComplianceDenied(c, decision)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	writeSSE(c, "accepted", responses.AcceptedPayload{
		UserMessageID:      handle.UserMessageID,
		AssistantMessageID: handle.AssistantMessageID,
	})

	clientGone := c.Request.Context().Done()
	for {
		select {
		case ev, ok := <-handle.Events:
			if !ok {
				return
			}
			writeSSE(c, string(ev.Type), ev.Payload())
		case <-clientGone:
			// The stream keeps running; the transcript stays consistent and
			// the poller covers the refresh.
			return
		}
	}
}

// CancelStream aborts the conversation's in-flight stream.
func (h *ChatHandler) CancelStream(c *gin.Context) {
	cancelled := h.service.Cancel(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"cancelled": cancelled})
}

// GetConversation returns the current transcript and session window.
func (h *ChatHandler) GetConversation(c *gin.Context) {
	conv, window, err := h.service.Snapshot(c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "conversation not found")
		return
	}

	c.JSON(http.StatusOK, responses.ConversationResponse{
		ID:        conv.ID,
		Title:     conv.Title,
		Messages:  conv.Messages,
		Session:   window,
		UpdatedAt: conv.UpdatedAt,
	})
}

// GetCapability returns the latest capability probe snapshot.
func (h *ChatHandler) GetCapability(c *gin.Context) {
	ctx := c.Request.Context()
	if token := c.GetHeader("Authorization"); token != "" {
		ctx = chat.WithAuthToken(ctx, token)
	}

	capability, err := h.capability.Capability(ctx)
	if err != nil {
		responses.WriteUpstreamError(c, "capability probe failed")
		return
	}
	c.JSON(http.StatusOK, capability)
}

// VisibilityRequest is the visibility report body.
type VisibilityRequest struct {
	Visible *bool `json:"visible" binding:"required"`
}

// SetVisibility suspends or resumes the fallback poller as the dashboard
// view hides and shows.
func (h *ChatHandler) SetVisibility(c *gin.Context) {
	var req VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.WriteValidationError(c, "visible is required")
		return
	}
	h.visibility.SetVisible(*req.Visible)
	c.Status(http.StatusNoContent)
}

func writeSSE(c *gin.Context, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, data)
	c.Writer.Flush()
}
