package backend

import (
	"fmt"
	"strings"
	"time"

	"github.com/karsaku/session-gate/internal/domain"
)

// Stress level bounds accepted by the questionnaire.
const (
	MinStressLevel = 1
	MaxStressLevel = 10
)

// NormalizeOnboardingAnswers trims the questionnaire and checks it before it is
// sent. List entries that are blank after trimming are dropped. An empty date
// becomes now in RFC3339.
func NormalizeOnboardingAnswers(answers domain.OnboardingAnswers, now time.Time) (domain.OnboardingAnswers, error) {
	out := domain.OnboardingAnswers{
		Job:             strings.TrimSpace(answers.Job),
		DailyActivities: compact(answers.DailyActivities),
		StressLevel:     answers.StressLevel,
		PreferredFoods:  compact(answers.PreferredFoods),
		AvoidedFoods:    compact(answers.AvoidedFoods),
		Domicile:        strings.TrimSpace(answers.Domicile),
		Date:            strings.TrimSpace(answers.Date),
	}

	var problems []string
	if len(out.DailyActivities) == 0 {
		problems = append(problems, "dailyActivities is required")
	}
	if out.Domicile == "" {
		problems = append(problems, "domicile is required")
	}
	if out.StressLevel < MinStressLevel || out.StressLevel > MaxStressLevel {
		problems = append(problems, fmt.Sprintf("stressLevel must be between %d and %d", MinStressLevel, MaxStressLevel))
	}
	if out.Date == "" {
		out.Date = now.UTC().Format(time.RFC3339)
	} else if _, err := time.Parse(time.RFC3339, out.Date); err != nil {
		problems = append(problems, "date must be RFC3339")
	}

	if len(problems) > 0 {
		return domain.OnboardingAnswers{}, fmt.Errorf("%w: %s", domain.ErrInvalidOnboardingAnswers, strings.Join(problems, "; "))
	}
	return out, nil
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
