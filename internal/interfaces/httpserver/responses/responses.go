// Package responses contains HTTP response DTOs and error helpers for the
// inbox-sync API.
package responses

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chatdeck/services/inbox-sync/internal/domain/chat"
	"chatdeck/services/inbox-sync/internal/domain/compliance"
	"chatdeck/services/inbox-sync/internal/domain/session"
	"chatdeck/services/inbox-sync/internal/domain/transcript"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// ConversationResponse is the GET conversation payload.
type ConversationResponse struct {
	ID        string         `json:"id"`
	Title     string         `json:"title,omitempty"`
	Messages  []chat.Message `json:"messages"`
	Session   session.Window `json:"session"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// AcceptedPayload is the first SSE event on a send: the optimistic ids the
// dashboard needs to track the pair until the meta remap.
type AcceptedPayload struct {
	UserMessageID      string `json:"userMessageId"`
	AssistantMessageID string `json:"assistantMessageId"`
}

// WriteComplianceDenied reports a blocked send with its reason code.
func WriteComplianceDenied(c *gin.Context, decision compliance.Decision) {
	c.JSON(http.StatusForbidden, ErrorResponse{
		Error: &ErrorDetail{
			Message: decision.Reason,
			Type:    "compliance_error",
			Code:    string(decision.Code),
		},
	})
}

// HandleError maps domain errors to HTTP status codes.
func HandleError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, transcript.ErrConversationNotFound):
		writeError(c, http.StatusNotFound, message, "not_found_error")
	default:
		writeError(c, http.StatusInternalServerError, message, "internal_error")
	}
}

// WriteValidationError reports a malformed request body.
func WriteValidationError(c *gin.Context, message string) {
	writeError(c, http.StatusBadRequest, message, "validation_error")
}

// WriteUpstreamError reports a failed platform call.
func WriteUpstreamError(c *gin.Context, message string) {
	writeError(c, http.StatusBadGateway, message, "external_error")
}

func writeError(c *gin.Context, status int, message, errType string) {
	c.JSON(status, ErrorResponse{
		Error: &ErrorDetail{
			Message: message,
			Type:    errType,
		},
	})
}
