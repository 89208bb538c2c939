package domain

import "time"

// AccountStatus represents lifecycle states for a backend account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

// Account is a backend identity: an end user logging in by username or a
// professional logging in by email.
type Account struct {
	ID           string
	Login        string
	DisplayName  string
	PasswordHash string
	Role         Role
	Status       AccountStatus
	CreatedAt    time.Time
}

// Preferences is a stored onboarding questionnaire.
type Preferences struct {
	ID        string
	AccountID string
	Answers   OnboardingAnswers
	CreatedAt time.Time
}
