package chat_test

import (
	"testing"

	"chatdeck/services/inbox-sync/internal/domain/chat"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name    string
		event   string
		data    string
		wantErr bool
		check   func(t *testing.T, ev *chat.Event)
	}{
		{
			name:  "meta remap",
			event: "meta",
			data:  `{"userMessageId":"m_1","assistantMessageId":"m_2"}`,
			check: func(t *testing.T, ev *chat.Event) {
				if ev.Meta == nil {
					t.Fatal("Meta payload is nil")
				}
				if ev.Meta.UserMessageID != "m_1" || ev.Meta.AssistantMessageID != "m_2" {
					t.Errorf("meta ids = %q/%q, want m_1/m_2", ev.Meta.UserMessageID, ev.Meta.AssistantMessageID)
				}
			},
		},
		{
			name:  "delta fragment",
			event: "delta",
			data:  `{"text":"Hello"}`,
			check: func(t *testing.T, ev *chat.Event) {
				if ev.Delta == nil || ev.Delta.Text != "Hello" {
					t.Errorf("delta = %+v, want text Hello", ev.Delta)
				}
			},
		},
		{
			name:  "done with provider",
			event: "done",
			data:  `{"status":"done","provider":"acme"}`,
			check: func(t *testing.T, ev *chat.Event) {
				if ev.Done == nil || ev.Done.Provider != "acme" {
					t.Errorf("done = %+v, want provider acme", ev.Done)
				}
			},
		},
		{
			name:  "error payload",
			event: "error",
			data:  `{"code":"rate_limited","message":"slow down"}`,
			check: func(t *testing.T, ev *chat.Event) {
				if ev.Err == nil || ev.Err.Code != "rate_limited" {
					t.Errorf("error = %+v, want code rate_limited", ev.Err)
				}
			},
		},
		{
			name:    "unknown event name is rejected",
			event:   "heartbeat",
			data:    `{}`,
			wantErr: true,
		},
		{
			name:    "malformed json is rejected",
			event:   "delta",
			data:    `{"text":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := chat.ParseEvent(tt.event, []byte(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Fatal("ParseEvent() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEvent() unexpected error: %v", err)
			}
			if string(ev.Type) != tt.event {
				t.Errorf("ParseEvent() type = %s, want %s", ev.Type, tt.event)
			}
			if tt.check != nil {
				tt.check(t, ev)
			}
		})
	}
}

func TestEvent_Payload(t *testing.T) {
	delta := &chat.Event{Type: chat.EventDelta, Delta: &chat.DeltaPayload{Text: "x"}}
	if got, ok := delta.Payload().(*chat.DeltaPayload); !ok || got.Text != "x" {
		t.Errorf("Payload() = %#v, want delta payload", delta.Payload())
	}

	unknown := &chat.Event{Type: chat.EventMessage}
	if got := unknown.Payload(); got != nil {
		t.Errorf("Payload() for message event = %#v, want nil", got)
	}
}
