package backend

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/karsaku/session-gate/internal/config"
	"github.com/karsaku/session-gate/internal/devbackend"
	"github.com/karsaku/session-gate/internal/domain"
)

func startDevBackend(t *testing.T) *Client {
	t.Helper()
	logger := zaptest.NewLogger(t)

	srv := devbackend.NewServer(config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: 4}, logger)
	seeds := []devbackend.SeedAccount{
		{Role: domain.RoleUser, Login: "alice", Password: "secret", DisplayName: "alice"},
		{Role: domain.RoleProfessional, Login: "dr@karsaku.id", Password: "secret", DisplayName: "Dr. Rina"},
	}
	for _, seed := range seeds {
		if _, err := srv.AddAccount(seed); err != nil {
			t.Fatalf("AddAccount: %v", err)
		}
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	return NewClient(config.BackendConfig{
		GraphQLURL:     "http://" + ln.Addr().String() + "/graphql",
		TimeoutSeconds: 5,
	}, logger)
}

func TestClientLogin(t *testing.T) {
	client := startDevBackend(t)

	result, err := client.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.AccessToken == "" || result.UserID == "" || result.DisplayName != "alice" {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Role == nil || *result.Role != domain.RoleUser {
		t.Fatalf("expected user role, got %v", result.Role)
	}
	if result.ShouldAskOnboarding != nil {
		t.Fatalf("user login should leave onboarding unset")
	}
}

func TestClientLoginRejected(t *testing.T) {
	client := startDevBackend(t)

	_, err := client.Login(context.Background(), "alice", "nope")
	if !errors.Is(err, domain.ErrLoginRejected) {
		t.Fatalf("expected ErrLoginRejected, got %v", err)
	}
}

func TestClientLoginProfessional(t *testing.T) {
	client := startDevBackend(t)

	result, err := client.LoginProfessional(context.Background(), "dr@karsaku.id", "secret")
	if err != nil {
		t.Fatalf("LoginProfessional: %v", err)
	}
	if result.Role == nil || *result.Role != domain.RoleProfessional {
		t.Fatalf("expected professional role, got %v", result.Role)
	}
	if result.ShouldAskOnboarding == nil || *result.ShouldAskOnboarding {
		t.Fatalf("professionals skip onboarding")
	}
	if result.DisplayName != "Dr. Rina" {
		t.Fatalf("unexpected display name %q", result.DisplayName)
	}
}

func TestClientSubmitOnboarding(t *testing.T) {
	client := startDevBackend(t)
	ctx := context.Background()

	login, err := client.Login(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	answers := domain.OnboardingAnswers{
		DailyActivities: []string{"commuting"},
		StressLevel:     6,
		Domicile:        "Jakarta",
		Date:            "2026-10-15T08:00:00Z",
	}
	receipt, err := client.SubmitOnboarding(ctx, login.AccessToken, answers)
	if err != nil {
		t.Fatalf("SubmitOnboarding: %v", err)
	}
	if receipt.PreferencesID == "" || receipt.LastQuestionDate != answers.Date {
		t.Fatalf("unexpected receipt %+v", receipt)
	}

	_, err = client.SubmitOnboarding(ctx, "", answers)
	if !errors.Is(err, domain.ErrOnboardingSubmissionFailed) {
		t.Fatalf("expected ErrOnboardingSubmissionFailed without token, got %v", err)
	}
}

func TestClientUnreachableBackend(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	client := NewClient(config.BackendConfig{GraphQLURL: "http://" + addr + "/graphql", TimeoutSeconds: 1}, zaptest.NewLogger(t))
	_, err = client.Login(context.Background(), "alice", "secret")
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if errors.Is(err, domain.ErrLoginRejected) {
		t.Fatalf("transport failure must not look like a rejection")
	}
}

func TestClientCanceledContext(t *testing.T) {
	client := NewClient(config.BackendConfig{GraphQLURL: "http://127.0.0.1:1/graphql", TimeoutSeconds: 1}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	if _, err := client.Login(ctx, "a", "b"); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}
