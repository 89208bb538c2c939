package domain

import "strings"

// Role is the coarse account type that picks the signed-in screen group.
type Role string

const (
	RoleUser         Role = "user"
	RoleProfessional Role = "professional"
)

// ParseRole maps a persisted role value to a Role. Unknown values report false.
func ParseRole(v string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(v))) {
	case RoleUser:
		return RoleUser, true
	case RoleProfessional:
		return RoleProfessional, true
	default:
		return "", false
	}
}

// Persisted secret store keys. These names are the on-device layout and
// must not change between releases.
const (
	KeyAccessToken        = "access_token"
	KeyUserID             = "user_id"
	KeyRole               = "role"
	KeyQuestionsCompleted = "questions_completed"

	// KeyLegacyProfessionalID was written by older professional-login builds.
	KeyLegacyProfessionalID = "professional_id"
)

// SessionKeys lists every key cleared on sign-out.
var SessionKeys = []string{
	KeyAccessToken,
	KeyUserID,
	KeyRole,
	KeyQuestionsCompleted,
	KeyLegacyProfessionalID,
}

// SessionSignals is the raw persisted session data. Nil means absent.
type SessionSignals struct {
	AccessToken         *string
	UserID              *string
	Role                *string
	OnboardingCompleted *string
}

// SessionState is the in-memory view of the session that drives navigation.
type SessionState struct {
	IsBootstrapping     bool   `json:"is_bootstrapping"`
	IsSignedIn          bool   `json:"is_signed_in"`
	UserID              string `json:"user_id,omitempty"`
	Role                Role   `json:"role"`
	ShouldAskOnboarding bool   `json:"should_ask_onboarding"`
}

// InitialState is the state at process start, before bootstrap finishes.
func InitialState() SessionState {
	state := SignedOutState()
	state.IsBootstrapping = true
	return state
}

// SignedOutState is the reset state used after bootstrap and sign-out.
func SignedOutState() SessionState {
	return SessionState{Role: RoleUser}
}

// ScreenGroup is a mutually exclusive top-level navigation state.
type ScreenGroup string

const (
	ScreenGroupBootstrapping        ScreenGroup = "BOOTSTRAPPING"
	ScreenGroupSignedOut            ScreenGroup = "SIGNED_OUT"
	ScreenGroupOnboarding           ScreenGroup = "ONBOARDING"
	ScreenGroupSignedInUser         ScreenGroup = "SIGNED_IN_USER"
	ScreenGroupSignedInProfessional ScreenGroup = "SIGNED_IN_PROFESSIONAL"
)

// LoginResult is what a successful login mutation hands to the session.
type LoginResult struct {
	AccessToken         string
	UserID              string
	DisplayName         string
	Role                *Role
	ShouldAskOnboarding *bool
}
