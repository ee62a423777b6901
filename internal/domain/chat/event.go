package chat

import (
	"encoding/json"
	"fmt"
)

// EventType names the events carried on a send stream.
type EventType string

const (
	// EventMessage is the default event name when the stream sets none.
	EventMessage EventType = "message"
	EventMeta    EventType = "meta"
	EventDelta   EventType = "delta"
	EventDone    EventType = "done"
	EventError   EventType = "error"
)

// MetaPayload remaps the optimistic client ids to the durable server ids.
type MetaPayload struct {
	UserMessageID      string `json:"userMessageId"`
	AssistantMessageID string `json:"assistantMessageId"`
}

// DeltaPayload carries one content fragment.
type DeltaPayload struct {
	Text string `json:"text"`
}

// DonePayload terminates the stream normally.
type DonePayload struct {
	Status   string `json:"status"`
	Provider string `json:"provider"`
}

// ErrorPayload terminates the stream with a server-reported failure.
type ErrorPayload struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Provider string `json:"provider"`
}

// Event is the tagged union decoded from a send stream. Exactly one payload
// field is set, matching Type.
type Event struct {
	Type  EventType     `json:"type"`
	Meta  *MetaPayload  `json:"meta,omitempty"`
	Delta *DeltaPayload `json:"delta,omitempty"`
	Done  *DonePayload  `json:"done,omitempty"`
	Err   *ErrorPayload `json:"error,omitempty"`
}

// Payload returns the non-nil payload for serialization, or nil for events
// without one.
func (e *Event) Payload() any {
	switch e.Type {
	case EventMeta:
		return e.Meta
	case EventDelta:
		return e.Delta
	case EventDone:
		return e.Done
	case EventError:
		return e.Err
	}
	return nil
}

// ParseEvent validates and narrows a raw stream payload into a typed Event.
// Unknown event names and undecodable payloads are rejected here so nothing
// untyped crosses into the reconciler.
func ParseEvent(name string, data []byte) (*Event, error) {
	switch EventType(name) {
	case EventMeta:
		var p MetaPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode meta payload: %w", err)
		}
		return &Event{Type: EventMeta, Meta: &p}, nil
	case EventDelta:
		var p DeltaPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode delta payload: %w", err)
		}
		return &Event{Type: EventDelta, Delta: &p}, nil
	case EventDone:
		var p DonePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode done payload: %w", err)
		}
		return &Event{Type: EventDone, Done: &p}, nil
	case EventError:
		var p ErrorPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode error payload: %w", err)
		}
		return &Event{Type: EventError, Err: &p}, nil
	default:
		return nil, fmt.Errorf("unknown stream event %q", name)
	}
}
