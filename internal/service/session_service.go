package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/karsaku/session-gate/internal/backend"
	"github.com/karsaku/session-gate/internal/domain"
	"github.com/karsaku/session-gate/internal/session"
	"github.com/karsaku/session-gate/pkg/errorutil"
)

// Backend is the remote API the session service signs in and submits through.
type Backend interface {
	Login(ctx context.Context, username, password string) (domain.LoginResult, error)
	LoginProfessional(ctx context.Context, email, password string) (domain.LoginResult, error)
	SubmitOnboarding(ctx context.Context, token string, answers domain.OnboardingAnswers) (domain.OnboardingReceipt, error)
}

// SessionService coordinates the backend calls with the session manager.
type SessionService struct {
	backend Backend
	manager *session.Manager
	logger  *zap.Logger
	now     func() time.Time
}

// NewSessionService wires the service.
func NewSessionService(b Backend, manager *session.Manager, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{backend: b, manager: manager, logger: logger, now: time.Now}
}

// SessionView is the session state together with the screens it unlocks.
type SessionView struct {
	State       domain.SessionState
	ScreenGroup domain.ScreenGroup
	Entry       session.Screen
	Screens     []session.Screen
}

// State returns the current session view.
func (s *SessionService) State() SessionView {
	state := s.manager.State()
	group := session.SelectScreenGroup(state)
	return SessionView{
		State:       state,
		ScreenGroup: group,
		Entry:       session.EntryScreen(group),
		Screens:     session.Screens(group),
	}
}

// Login signs an end user in.
func (s *SessionService) Login(ctx context.Context, username, password string) (SessionView, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return SessionView{}, errorutil.NewValidationError("username and password are required", nil)
	}
	err := s.manager.SignInWith(ctx, func(ctx context.Context) (domain.LoginResult, error) {
		return s.backend.Login(ctx, username, password)
	})
	if err != nil {
		s.logLoginFailure("user", err)
		return SessionView{}, err
	}
	return s.State(), nil
}

// LoginProfessional signs a professional in.
func (s *SessionService) LoginProfessional(ctx context.Context, email, password string) (SessionView, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return SessionView{}, errorutil.NewValidationError("email and password are required", nil)
	}
	err := s.manager.SignInWith(ctx, func(ctx context.Context) (domain.LoginResult, error) {
		return s.backend.LoginProfessional(ctx, email, password)
	})
	if err != nil {
		s.logLoginFailure("professional", err)
		return SessionView{}, err
	}
	return s.State(), nil
}

// SubmitOnboarding validates the questionnaire, sends it with the stored
// access token and marks onboarding complete once the backend accepts it.
// Users may resubmit to retake the questions. Signed out, or signed in as a
// professional, it reports the current view without calling the backend.
func (s *SessionService) SubmitOnboarding(ctx context.Context, answers domain.OnboardingAnswers) (SessionView, domain.OnboardingReceipt, error) {
	normalized, err := backend.NormalizeOnboardingAnswers(answers, s.now())
	if err != nil {
		return SessionView{}, domain.OnboardingReceipt{}, err
	}

	var receipt domain.OnboardingReceipt
	err = s.manager.CompleteOnboardingWith(ctx, func(ctx context.Context) error {
		if s.manager.State().Role == domain.RoleProfessional {
			return errSkipSubmission
		}
		token, ok, err := s.manager.AccessToken(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: no access token stored", domain.ErrOnboardingSubmissionFailed)
		}
		receipt, err = s.backend.SubmitOnboarding(ctx, token, normalized)
		return err
	})
	if errors.Is(err, errSkipSubmission) {
		return s.State(), receipt, nil
	}
	if err != nil {
		s.logger.Info("onboarding submission failed", zap.Error(err))
		return SessionView{}, domain.OnboardingReceipt{}, err
	}
	return s.State(), receipt, nil
}

var errSkipSubmission = errors.New("onboarding does not apply")

// Logout signs the session out. Storage failures never keep it signed in.
func (s *SessionService) Logout(ctx context.Context) (SessionView, error) {
	if err := s.manager.SignOut(ctx); err != nil {
		return SessionView{}, err
	}
	return s.State(), nil
}

func (s *SessionService) logLoginFailure(kind string, err error) {
	switch {
	case errors.Is(err, domain.ErrLoginRejected):
		s.logger.Info("login rejected", zap.String("kind", kind), zap.Error(err))
	case errors.Is(err, domain.ErrBootstrapping), errors.Is(err, domain.ErrMutationInFlight):
		s.logger.Debug("login refused", zap.String("kind", kind), zap.Error(err))
	default:
		s.logger.Warn("login failed", zap.String("kind", kind), zap.Error(err))
	}
}
