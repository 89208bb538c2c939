package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/karsaku/session-gate/internal/domain"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string) error {
	return NewDomainError("NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

type sentinelMapping struct {
	target  error
	code    string
	status  int
	message string
}

// Sentinels are matched in order; the first errors.Is hit wins.
var sentinels = []sentinelMapping{
	{domain.ErrBootstrapping, "BOOTSTRAPPING", http.StatusServiceUnavailable, "session is still bootstrapping"},
	{domain.ErrMutationInFlight, "MUTATION_IN_FLIGHT", http.StatusConflict, "another session change is in progress"},
	{domain.ErrInvalidOnboardingAnswers, "VALIDATION_FAILED", http.StatusBadRequest, ""},
	{domain.ErrLoginRejected, "LOGIN_REJECTED", http.StatusUnauthorized, ""},
	{domain.ErrOnboardingSubmissionFailed, "ONBOARDING_SUBMISSION_FAILED", http.StatusUnprocessableEntity, ""},
	{domain.ErrInvalidLoginResult, "INVALID_LOGIN_RESULT", http.StatusBadGateway, "backend returned an unusable login result"},
	{domain.ErrBackendUnavailable, "BACKEND_UNAVAILABLE", http.StatusBadGateway, "backend unavailable"},
	{domain.ErrStorageUnavailable, "STORAGE_UNAVAILABLE", http.StatusServiceUnavailable, "secure storage unavailable"},
}

// ToDomainError converts generic errors to DomainError. Sentinels with an
// empty message keep the wrapped error text so backend messages reach the user.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	for _, m := range sentinels {
		if errors.Is(err, m.target) {
			msg := m.message
			if msg == "" {
				msg = err.Error()
			}
			return &DomainError{Code: m.code, Message: msg, HTTPStatus: m.status, Err: err}
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError converts err into a *DomainError typed as error.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
