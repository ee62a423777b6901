package session_test

import (
	"testing"
	"time"

	"chatdeck/services/inbox-sync/internal/domain/session"
)

func TestCompute(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		inboundAgo    time.Duration
		noInbound     bool
		wantState     session.State
		wantRemaining int
	}{
		{"recent inbound is active", 1 * time.Hour, false, session.StateActive, 23 * 60},
		{"almost expired is still active", 24*time.Hour - time.Minute, false, session.StateActive, 1},
		{"exactly at the boundary is expired", 24 * time.Hour, false, session.StateExpired, 0},
		{"old inbound is expired", 25 * time.Hour, false, session.StateExpired, 0},
		{"no inbound ever is unknown", 0, true, session.StateUnknown, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var inbound *time.Time
			if !tt.noInbound {
				ts := now.Add(-tt.inboundAgo)
				inbound = &ts
			}

			w := session.Compute(inbound, nil, session.DefaultDuration, now)
			if w.State != tt.wantState {
				t.Errorf("Compute() state = %s, want %s", w.State, tt.wantState)
			}
			if w.RemainingMinutes != tt.wantRemaining {
				t.Errorf("Compute() remaining = %d, want %d", w.RemainingMinutes, tt.wantRemaining)
			}
		})
	}
}

func TestCompute_ExpiresAt(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	inbound := now.Add(-2 * time.Hour)

	w := session.Compute(&inbound, nil, session.DefaultDuration, now)
	if w.ExpiresAt == nil {
		t.Fatal("ExpiresAt is nil")
	}
	want := inbound.Add(session.DefaultDuration)
	if !w.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", w.ExpiresAt, want)
	}
}

func TestCompute_UnknownKeepsOutbound(t *testing.T) {
	now := time.Now()
	outbound := now.Add(-time.Hour)

	w := session.Compute(nil, &outbound, session.DefaultDuration, now)
	if w.State != session.StateUnknown {
		t.Fatalf("state = %s, want unknown", w.State)
	}
	if w.LastOutboundAt == nil || !w.LastOutboundAt.Equal(outbound) {
		t.Errorf("LastOutboundAt = %v, want %v", w.LastOutboundAt, outbound)
	}
	if w.ExpiresAt != nil {
		t.Errorf("ExpiresAt = %v, want nil", w.ExpiresAt)
	}
}
