// Package session owns the client session: the bootstrap sequencer that
// hydrates it from the secret store, the mutators that change it, and the
// navigation gate that maps it to a screen group.
package session

import (
	"strings"

	"github.com/karsaku/session-gate/internal/domain"
)

// SelectScreenGroup picks the one active screen group for state.
// Professionals never see onboarding.
func SelectScreenGroup(state domain.SessionState) domain.ScreenGroup {
	switch {
	case state.IsBootstrapping:
		return domain.ScreenGroupBootstrapping
	case !state.IsSignedIn:
		return domain.ScreenGroupSignedOut
	case state.Role == domain.RoleProfessional:
		return domain.ScreenGroupSignedInProfessional
	case state.ShouldAskOnboarding:
		return domain.ScreenGroupOnboarding
	default:
		return domain.ScreenGroupSignedInUser
	}
}

// DeriveState resolves persisted signals into a settled (non-bootstrapping)
// state. Absent role means user; absent or non-"true" completion means the
// user is asked onboarding questions.
func DeriveState(signals domain.SessionSignals) domain.SessionState {
	state := domain.SignedOutState()

	if signals.AccessToken == nil || strings.TrimSpace(*signals.AccessToken) == "" {
		return state
	}

	state.IsSignedIn = true
	if signals.UserID != nil {
		state.UserID = *signals.UserID
	}
	if signals.Role != nil {
		if role, ok := domain.ParseRole(*signals.Role); ok {
			state.Role = role
		}
	}
	state.ShouldAskOnboarding = signals.OnboardingCompleted == nil || *signals.OnboardingCompleted != "true"
	return state
}
