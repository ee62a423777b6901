// Package chat defines the core conversation types shared by the
// synchronization engine, the fallback poller, and the HTTP surface.
package chat

import (
	"errors"
	"time"
)

// Role indicates who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Origin distinguishes client-generated optimistic messages from
// server-confirmed ones. A pending message carries a client id until the
// stream's meta event remaps it to the durable server id.
type Origin string

const (
	OriginPending Origin = "pending"
	OriginDurable Origin = "durable"
)

// Status represents the lifecycle status of a message.
type Status string

const (
	// Non-terminal states
	StatusPending   Status = "pending"   // Created optimistically, stream not yet delivering
	StatusStreaming Status = "streaming" // Content arriving via delta events

	// Terminal states (no further transitions allowed)
	StatusDone      Status = "done"      // Finalized normally
	StatusError     Status = "error"     // Transport or server-reported failure
	StatusCancelled Status = "cancelled" // Stream aborted before completion
)

// ErrInvalidTransition is returned when a status transition is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusError || s == StatusCancelled
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ValidTransitions defines allowed status transitions.
var ValidTransitions = map[Status][]Status{
	StatusPending:   {StatusStreaming, StatusDone, StatusError, StatusCancelled},
	StatusStreaming: {StatusDone, StatusError, StatusCancelled},
	// Terminal states have no valid transitions
	StatusDone:      {},
	StatusError:     {},
	StatusCancelled: {},
}

// CanTransitionTo checks if a transition from the current status to the
// target status is valid.
func (s Status) CanTransitionTo(target Status) bool {
	validTargets, ok := ValidTransitions[s]
	if !ok {
		return false
	}
	for _, t := range validTargets {
		if t == target {
			return true
		}
	}
	return false
}

// TransitionTo attempts to transition to the target status and returns an
// error if the transition is invalid.
func (s Status) TransitionTo(target Status) (Status, error) {
	if !s.CanTransitionTo(target) {
		return s, ErrInvalidTransition
	}
	return target, nil
}

// Message is a single transcript entry. Content is append-only while the
// message is streaming and immutable once the status is terminal.
type Message struct {
	ID        string    `json:"id"`
	Origin    Origin    `json:"origin"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Status    Status    `json:"status"`
	Provider  string    `json:"provider,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation holds an ordered message list. Insertion order is display
// order and is preserved across remaps and deltas.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LastInbound returns the content of the most recent user message, or the
// empty string when the conversation has none.
func (c *Conversation) LastInbound() string {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return c.Messages[i].Content
		}
	}
	return ""
}
