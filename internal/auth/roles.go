package auth

import (
	"errors"

	"github.com/karsaku/session-gate/internal/domain"
)

var (
	// ErrUnauthenticated is returned when no principal is present.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the principal lacks an allowed role.
	ErrForbidden = errors.New("insufficient role")
)

// RequireRole ensures the principal exists and has one of the allowed roles.
// An empty allowed list accepts any authenticated principal.
func RequireRole(principal *Principal, allowed ...domain.Role) error {
	if principal == nil {
		return ErrUnauthenticated
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, role := range allowed {
		if principal.Role == role {
			return nil
		}
	}
	return ErrForbidden
}
