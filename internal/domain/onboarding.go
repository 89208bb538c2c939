package domain

// OnboardingAnswers is the preference questionnaire submitted after sign-in.
type OnboardingAnswers struct {
	Job             string   `json:"job"`
	DailyActivities []string `json:"daily_activities"`
	StressLevel     int      `json:"stress_level"`
	PreferredFoods  []string `json:"preferred_foods"`
	AvoidedFoods    []string `json:"avoided_foods"`
	Domicile        string   `json:"domicile"`
	Date            string   `json:"date"`
}

// OnboardingReceipt acknowledges a stored questionnaire.
type OnboardingReceipt struct {
	PreferencesID    string `json:"preferences_id"`
	LastQuestionDate string `json:"last_question_date"`
}
