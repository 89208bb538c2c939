package backend

import (
	"context"
	"fmt"

	"github.com/karsaku/session-gate/internal/domain"
)

const (
	loginMutation = `mutation Login($username: String, $password: String) {
  login(username: $username, password: $password) {
    access_token
    userId
    username
  }
}`

	loginProfessionalMutation = `mutation LoginProfessional($email: String!, $password: String!) {
  loginProfessional(email: $email, password: $password) {
    access_token
    professionalId
    name
  }
}`

	updateUserPreferencesMutation = `mutation UpdateUserPreferences(
  $job: String
  $dailyActivities: [String]
  $stressLevel: Int
  $preferredFoods: [String]
  $avoidedFoods: [String]
  $domicile: String
  $date: String
) {
  updateUserPreferences(
    job: $job
    dailyActivities: $dailyActivities
    stressLevel: $stressLevel
    preferredFoods: $preferredFoods
    avoidedFoods: $avoidedFoods
    domicile: $domicile
    date: $date
  ) {
    _id
    lastQuestionDate
  }
}`
)

// Login signs an end user in. The backend does not report onboarding status
// for users, so the result leaves it unset and the session asks again.
func (c *Client) Login(ctx context.Context, username, password string) (domain.LoginResult, error) {
	var data struct {
		Login *struct {
			AccessToken string `json:"access_token"`
			UserID      string `json:"userId"`
			Username    string `json:"username"`
		} `json:"login"`
	}
	vars := map[string]any{"username": username, "password": password}
	if err := c.do(ctx, "Login", loginMutation, vars, "", &data); err != nil {
		return domain.LoginResult{}, classify(err, domain.ErrLoginRejected)
	}
	if data.Login == nil {
		return domain.LoginResult{}, fmt.Errorf("%w: empty login payload", domain.ErrInvalidLoginResult)
	}

	role := domain.RoleUser
	return domain.LoginResult{
		AccessToken: data.Login.AccessToken,
		UserID:      data.Login.UserID,
		DisplayName: data.Login.Username,
		Role:        &role,
	}, nil
}

// LoginProfessional signs a professional in. Professionals skip onboarding.
func (c *Client) LoginProfessional(ctx context.Context, email, password string) (domain.LoginResult, error) {
	var data struct {
		LoginProfessional *struct {
			AccessToken    string `json:"access_token"`
			ProfessionalID string `json:"professionalId"`
			Name           string `json:"name"`
		} `json:"loginProfessional"`
	}
	vars := map[string]any{"email": email, "password": password}
	if err := c.do(ctx, "LoginProfessional", loginProfessionalMutation, vars, "", &data); err != nil {
		return domain.LoginResult{}, classify(err, domain.ErrLoginRejected)
	}
	if data.LoginProfessional == nil {
		return domain.LoginResult{}, fmt.Errorf("%w: empty loginProfessional payload", domain.ErrInvalidLoginResult)
	}

	role := domain.RoleProfessional
	ask := false
	return domain.LoginResult{
		AccessToken:         data.LoginProfessional.AccessToken,
		UserID:              data.LoginProfessional.ProfessionalID,
		DisplayName:         data.LoginProfessional.Name,
		Role:                &role,
		ShouldAskOnboarding: &ask,
	}, nil
}

// SubmitOnboarding stores the questionnaire for the bearer of token.
func (c *Client) SubmitOnboarding(ctx context.Context, token string, answers domain.OnboardingAnswers) (domain.OnboardingReceipt, error) {
	var data struct {
		UpdateUserPreferences *struct {
			ID               string `json:"_id"`
			LastQuestionDate string `json:"lastQuestionDate"`
		} `json:"updateUserPreferences"`
	}
	vars := map[string]any{
		"job":             answers.Job,
		"dailyActivities": answers.DailyActivities,
		"stressLevel":     answers.StressLevel,
		"preferredFoods":  answers.PreferredFoods,
		"avoidedFoods":    answers.AvoidedFoods,
		"domicile":        answers.Domicile,
		"date":            answers.Date,
	}
	if err := c.do(ctx, "UpdateUserPreferences", updateUserPreferencesMutation, vars, token, &data); err != nil {
		return domain.OnboardingReceipt{}, classify(err, domain.ErrOnboardingSubmissionFailed)
	}
	if data.UpdateUserPreferences == nil {
		return domain.OnboardingReceipt{}, fmt.Errorf("%w: empty updateUserPreferences payload", domain.ErrOnboardingSubmissionFailed)
	}
	return domain.OnboardingReceipt{
		PreferencesID:    data.UpdateUserPreferences.ID,
		LastQuestionDate: data.UpdateUserPreferences.LastQuestionDate,
	}, nil
}
