package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/karsaku/session-gate/internal/domain"
	"github.com/karsaku/session-gate/internal/events"
	"github.com/karsaku/session-gate/internal/observability"
	"github.com/karsaku/session-gate/internal/securestore"
	"github.com/karsaku/session-gate/internal/session"
	"github.com/karsaku/session-gate/pkg/errorutil"
)

type fakeBackend struct {
	mu          sync.Mutex
	loginErr    error
	submitErr   error
	submitted   []domain.OnboardingAnswers
	submitToken string
}

func (f *fakeBackend) Login(_ context.Context, username, password string) (domain.LoginResult, error) {
	if f.loginErr != nil {
		return domain.LoginResult{}, f.loginErr
	}
	role := domain.RoleUser
	return domain.LoginResult{AccessToken: "tok-" + username, UserID: "u-" + username, DisplayName: username, Role: &role}, nil
}

func (f *fakeBackend) LoginProfessional(_ context.Context, email, password string) (domain.LoginResult, error) {
	if f.loginErr != nil {
		return domain.LoginResult{}, f.loginErr
	}
	role := domain.RoleProfessional
	ask := false
	return domain.LoginResult{AccessToken: "tok-pro", UserID: "p-" + email, Role: &role, ShouldAskOnboarding: &ask}, nil
}

func (f *fakeBackend) SubmitOnboarding(_ context.Context, token string, answers domain.OnboardingAnswers) (domain.OnboardingReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return domain.OnboardingReceipt{}, f.submitErr
	}
	f.submitToken = token
	f.submitted = append(f.submitted, answers)
	return domain.OnboardingReceipt{PreferencesID: "pref-1", LastQuestionDate: answers.Date}, nil
}

func (f *fakeBackend) submissions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

type fixture struct {
	svc     *SessionService
	backend *fakeBackend
	store   *securestore.Memory
	metrics *observability.Metrics
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	NewAuditService(dispatcher, metrics, logger).RegisterHandlers()

	store := securestore.NewMemory()
	manager := session.NewManager(store, session.Options{Logger: logger, Events: dispatcher})
	manager.Bootstrap(context.Background())

	b := &fakeBackend{}
	svc := NewSessionService(b, manager, logger)
	svc.now = func() time.Time { return time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC) }
	return fixture{svc: svc, backend: b, store: store, metrics: metrics}
}

var validAnswers = domain.OnboardingAnswers{DailyActivities: []string{"cycling"}, StressLevel: 3, Domicile: "Depok"}

func TestLoginThenOnboarding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.svc.Login(ctx, " alice ", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if view.ScreenGroup != domain.ScreenGroupOnboarding || view.State.UserID != "u-alice" {
		t.Fatalf("unexpected view %+v", view)
	}

	view, receipt, err := f.svc.SubmitOnboarding(ctx, validAnswers)
	if err != nil {
		t.Fatalf("SubmitOnboarding: %v", err)
	}
	if view.ScreenGroup != domain.ScreenGroupSignedInUser {
		t.Fatalf("expected signed-in user group, got %s", view.ScreenGroup)
	}
	if receipt.LastQuestionDate != "2026-10-15T00:00:00Z" {
		t.Fatalf("date not defaulted: %+v", receipt)
	}
	if f.backend.submitToken != "tok-alice" {
		t.Fatalf("submission used token %q", f.backend.submitToken)
	}
	if v, _, _ := f.store.Get(ctx, domain.KeyQuestionsCompleted); v != "true" {
		t.Fatalf("questions_completed = %q", v)
	}
}

func TestSubmitOnboardingFailureKeepsAsking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Login(ctx, "alice", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	f.backend.submitErr = fmt.Errorf("%w: server said no", domain.ErrOnboardingSubmissionFailed)
	_, _, err := f.svc.SubmitOnboarding(ctx, validAnswers)
	if !errors.Is(err, domain.ErrOnboardingSubmissionFailed) {
		t.Fatalf("expected ErrOnboardingSubmissionFailed, got %v", err)
	}
	if got := f.svc.State().ScreenGroup; got != domain.ScreenGroupOnboarding {
		t.Fatalf("expected to stay in onboarding, got %s", got)
	}

	// Retry succeeds.
	f.backend.submitErr = nil
	if _, _, err := f.svc.SubmitOnboarding(ctx, validAnswers); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestSubmitOnboardingValidatesBeforeCallingBackend(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Login(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	_, _, err := f.svc.SubmitOnboarding(context.Background(), domain.OnboardingAnswers{StressLevel: 3})
	if !errors.Is(err, domain.ErrInvalidOnboardingAnswers) {
		t.Fatalf("expected ErrInvalidOnboardingAnswers, got %v", err)
	}
	if f.backend.submissions() != 0 {
		t.Fatalf("backend called with invalid answers")
	}
	if de := errorutil.ToDomainError(err); de.HTTPStatus != 400 {
		t.Fatalf("expected 400, got %d", de.HTTPStatus)
	}
}

func TestSubmitOnboardingSkippedForProfessionalsAndSignedOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, _, err := f.svc.SubmitOnboarding(ctx, validAnswers)
	if err != nil || view.ScreenGroup != domain.ScreenGroupSignedOut {
		t.Fatalf("signed-out submit: view=%+v err=%v", view, err)
	}

	if _, err := f.svc.LoginProfessional(ctx, "dr@karsaku.id", "secret"); err != nil {
		t.Fatalf("LoginProfessional: %v", err)
	}
	view, _, err = f.svc.SubmitOnboarding(ctx, validAnswers)
	if err != nil || view.ScreenGroup != domain.ScreenGroupSignedInProfessional {
		t.Fatalf("professional submit: view=%+v err=%v", view, err)
	}
	if f.backend.submissions() != 0 {
		t.Fatalf("backend should not be called")
	}
}

func TestLoginRejectedLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	f.backend.loginErr = fmt.Errorf("%w: invalid credentials", domain.ErrLoginRejected)

	_, err := f.svc.Login(context.Background(), "alice", "bad")
	if !errors.Is(err, domain.ErrLoginRejected) {
		t.Fatalf("expected ErrLoginRejected, got %v", err)
	}
	if f.svc.State().State.IsSignedIn {
		t.Fatalf("rejected login signed the session in")
	}
	if _, ok, _ := f.store.Get(context.Background(), domain.KeyAccessToken); ok {
		t.Fatalf("token persisted after rejection")
	}
}

func TestLoginRequiresCredentials(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Login(context.Background(), "  ", "x"); errorutil.ToDomainError(err).Code != "VALIDATION_FAILED" {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.svc.LoginProfessional(context.Background(), "a@b", ""); errorutil.ToDomainError(err).Code != "VALIDATION_FAILED" {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLogoutThenLoginAsOtherRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.LoginProfessional(ctx, "dr@karsaku.id", "secret"); err != nil {
		t.Fatalf("LoginProfessional: %v", err)
	}
	view, err := f.svc.Logout(ctx)
	if err != nil || view.ScreenGroup != domain.ScreenGroupSignedOut {
		t.Fatalf("Logout: view=%+v err=%v", view, err)
	}
	view, err = f.svc.Login(ctx, "bob", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if view.State.Role != domain.RoleUser || view.ScreenGroup != domain.ScreenGroupOnboarding {
		t.Fatalf("stale professional state leaked: %+v", view)
	}
}

func TestAuditServiceFeedsMetrics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Login(ctx, "alice", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := f.svc.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	snap := f.metrics.Snapshot()
	for _, key := range []string{
		"session_bootstrapped|SIGNED_OUT",
		"session_signed_in|ONBOARDING",
		"session_signed_out|SIGNED_OUT",
	} {
		if snap.Transitions[key] != 1 {
			t.Fatalf("transition %s = %d, all=%v", key, snap.Transitions[key], snap.Transitions)
		}
	}
}
