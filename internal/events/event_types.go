package events

import (
	"time"

	"github.com/karsaku/session-gate/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionBootstrapped        EventType = "session_bootstrapped"
	EventSessionSignedIn            EventType = "session_signed_in"
	EventSessionOnboardingCompleted EventType = "session_onboarding_completed"
	EventSessionSignedOut           EventType = "session_signed_out"
)

// AllSessionEvents lists every session transition event.
var AllSessionEvents = []EventType{
	EventSessionBootstrapped,
	EventSessionSignedIn,
	EventSessionOnboardingCompleted,
	EventSessionSignedOut,
}

// Event represents a session transition.
type Event struct {
	Type      EventType           `json:"type"`
	State     domain.SessionState `json:"state"`
	Group     domain.ScreenGroup  `json:"screen_group"`
	Timestamp time.Time           `json:"timestamp"`
	Payload   interface{}         `json:"payload,omitempty"`
}

// BootstrapPayload describes how bootstrap went.
type BootstrapPayload struct {
	Duration     time.Duration `json:"duration"`
	FailedReads  []string      `json:"failed_reads,omitempty"`
	TokenExpired bool          `json:"token_expired,omitempty"`
	UnknownRole  string        `json:"unknown_role,omitempty"`
}

// SignOutPayload lists keys that could not be deleted.
type SignOutPayload struct {
	FailedDeletes []string `json:"failed_deletes,omitempty"`
}
