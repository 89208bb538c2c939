package dto

import "github.com/karsaku/session-gate/internal/domain"

// LoginRequest payload for end-user login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ProfessionalLoginRequest payload for professional login.
type ProfessionalLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// OnboardingRequest carries the preference questionnaire.
type OnboardingRequest struct {
	Job             string   `json:"job"`
	DailyActivities []string `json:"daily_activities"`
	StressLevel     int      `json:"stress_level"`
	PreferredFoods  []string `json:"preferred_foods"`
	AvoidedFoods    []string `json:"avoided_foods"`
	Domicile        string   `json:"domicile"`
	Date            string   `json:"date"`
}

// Answers converts the request to domain answers.
func (r OnboardingRequest) Answers() domain.OnboardingAnswers {
	return domain.OnboardingAnswers(r)
}

// SessionResponse describes the session and the screens it unlocks.
type SessionResponse struct {
	State       domain.SessionState `json:"state"`
	ScreenGroup domain.ScreenGroup  `json:"screen_group"`
	EntryScreen string              `json:"entry_screen"`
	Screens     []string            `json:"screens"`
}

// OnboardingResponse is the session after a questionnaire submission.
type OnboardingResponse struct {
	Session SessionResponse          `json:"session"`
	Receipt domain.OnboardingReceipt `json:"receipt"`
}

// ScreenAccessResponse answers a route guard query.
type ScreenAccessResponse struct {
	Screen      string             `json:"screen"`
	ScreenGroup domain.ScreenGroup `json:"screen_group"`
	Allowed     bool               `json:"allowed"`
}
