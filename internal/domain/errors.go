package domain

import "errors"

var (
	// ErrStorageUnavailable reports a failed secret store read or write.
	ErrStorageUnavailable = errors.New("secret store unavailable")
	// ErrLoginRejected reports a login refused by the backend.
	ErrLoginRejected = errors.New("login rejected")
	// ErrOnboardingSubmissionFailed reports a refused questionnaire submission.
	ErrOnboardingSubmissionFailed = errors.New("onboarding submission failed")
	// ErrBackendUnavailable reports a transport failure talking to the backend.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrBootstrapping is returned by mutators before bootstrap completes.
	ErrBootstrapping = errors.New("session is bootstrapping")
	// ErrMutationInFlight is returned while another session mutation runs.
	ErrMutationInFlight = errors.New("session mutation already in flight")
	// ErrInvalidLoginResult reports a login response without a usable token.
	ErrInvalidLoginResult = errors.New("invalid login result")
	// ErrInvalidOnboardingAnswers reports a questionnaire that fails validation.
	ErrInvalidOnboardingAnswers = errors.New("invalid onboarding answers")
)
