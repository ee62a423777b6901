// Package session computes the messaging session window: the fixed-duration
// interval after the most recent inbound message during which free-form
// outbound sends are permitted by platform policy.
package session

import "time"

// DefaultDuration is the platform's session window length.
const DefaultDuration = 24 * time.Hour

// State classifies the session window.
type State string

const (
	StateActive  State = "active"
	StateExpired State = "expired"
	StateUnknown State = "unknown" // no inbound message has ever been seen
)

// Window is derived state. It is always recomputed from the inbound and
// outbound timestamps, never cached independently of them.
type Window struct {
	State            State      `json:"state"`
	LastInboundAt    *time.Time `json:"last_inbound_at,omitempty"`
	LastOutboundAt   *time.Time `json:"last_outbound_at,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	RemainingMinutes int        `json:"remaining_minutes"`
}

// Compute derives the window from the last message timestamps at the given
// instant. The window is active while now - lastInboundAt < duration.
func Compute(lastInboundAt, lastOutboundAt *time.Time, duration time.Duration, now time.Time) Window {
	if lastInboundAt == nil {
		return Window{State: StateUnknown, LastOutboundAt: lastOutboundAt}
	}

	expiresAt := lastInboundAt.Add(duration)
	w := Window{
		LastInboundAt:  lastInboundAt,
		LastOutboundAt: lastOutboundAt,
		ExpiresAt:      &expiresAt,
	}

	if now.Sub(*lastInboundAt) < duration {
		w.State = StateActive
		w.RemainingMinutes = int(expiresAt.Sub(now) / time.Minute)
		if w.RemainingMinutes < 0 {
			w.RemainingMinutes = 0
		}
	} else {
		w.State = StateExpired
	}
	return w
}
