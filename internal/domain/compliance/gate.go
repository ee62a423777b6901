// Package compliance decides whether an outbound send may proceed. The gate
// is a pure function evaluated fresh at every send attempt; decisions are
// never persisted across sends.
package compliance

import (
	"regexp"

	"chatdeck/services/inbox-sync/internal/domain/session"
)

// ReasonCode identifies why a send was blocked.
type ReasonCode string

const (
	// Local checks
	ReasonWriteForbidden    ReasonCode = "WRITE_FORBIDDEN"
	ReasonRecipientOptedOut ReasonCode = "RECIPIENT_OPTED_OUT"
	ReasonWindowExpired     ReasonCode = "SESSION_WINDOW_EXPIRED"

	// Capability probe results
	ReasonPlanLocked         ReasonCode = "PLAN_LOCKED"
	ReasonNoConnection       ReasonCode = "NO_CONNECTION"
	ReasonConnectionInactive ReasonCode = "CONNECTION_INACTIVE"
	ReasonPhoneNumberMissing ReasonCode = "PHONE_NUMBER_MISSING"
	ReasonTokenMissing       ReasonCode = "TOKEN_MISSING"
	ReasonTokenExpired       ReasonCode = "TOKEN_EXPIRED"
	ReasonCapabilityAPIError ReasonCode = "CAPABILITY_API_ERROR"
)

// Capability is the cached result of the server-side capability probe.
type Capability struct {
	CanSendText bool       `json:"canSendText"`
	ReasonCode  ReasonCode `json:"reasonCode,omitempty"`
	Reason      string     `json:"reason,omitempty"`
}

// Decision is the gate's verdict for one send attempt.
type Decision struct {
	Allowed bool       `json:"allowed"`
	Code    ReasonCode `json:"code,omitempty"`
	Reason  string     `json:"reason,omitempty"`
}

// Input collects everything the gate looks at.
type Input struct {
	CanWrite        bool
	LastInboundText string
	Window          session.Window
	Template        bool
	Capability      *Capability
}

// Whole-token match only: "nonstop" must not trigger.
var optOutPattern = regexp.MustCompile(`(?i)\b(stop|unsubscribe|cancel|end|quit)\b`)

// ContainsOptOut reports whether the text carries a stop-messaging token.
func ContainsOptOut(text string) bool {
	return optOutPattern.MatchString(text)
}

// Evaluate runs the four checks in fixed priority order. The first failing
// check supplies the single reported reason.
func Evaluate(in Input) Decision {
	if !in.CanWrite {
		return Decision{
			Code:   ReasonWriteForbidden,
			Reason: "your workspace role does not allow sending messages",
		}
	}

	if ContainsOptOut(in.LastInboundText) {
		return Decision{
			Code:   ReasonRecipientOptedOut,
			Reason: "the contact's last message asks to stop receiving messages",
		}
	}

	if in.Window.State == session.StateExpired && !in.Template {
		return Decision{
			Code:   ReasonWindowExpired,
			Reason: "the 24h session window has expired; only template messages can be sent",
		}
	}

	if in.Capability == nil {
		return Decision{
			Code:   ReasonCapabilityAPIError,
			Reason: "sending capability could not be verified",
		}
	}
	if !in.Capability.CanSendText {
		reason := in.Capability.Reason
		if reason == "" {
			reason = "the platform reports sending is currently unavailable"
		}
		code := in.Capability.ReasonCode
		if code == "" {
			code = ReasonCapabilityAPIError
		}
		return Decision{Code: code, Reason: reason}
	}

	return Decision{Allowed: true}
}
