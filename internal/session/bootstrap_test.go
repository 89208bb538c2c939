package session

import (
	"context"
	"sync"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap/zaptest"

	"github.com/karsaku/session-gate/internal/auth"
	"github.com/karsaku/session-gate/internal/domain"
	"github.com/karsaku/session-gate/internal/events"
)

func TestBootstrapScenarios(t *testing.T) {
	cases := []struct {
		name string
		seed map[string]string
		want domain.ScreenGroup
	}{
		{"fresh install", nil, domain.ScreenGroupSignedOut},
		{"token without completion", map[string]string{domain.KeyAccessToken: "tok1"}, domain.ScreenGroupOnboarding},
		{"completed user without role", map[string]string{domain.KeyAccessToken: "tok1", domain.KeyQuestionsCompleted: "true"}, domain.ScreenGroupSignedInUser},
		{"professional without completion", map[string]string{domain.KeyAccessToken: "tok1", domain.KeyRole: "professional"}, domain.ScreenGroupSignedInProfessional},
		{"professional with completion", map[string]string{domain.KeyAccessToken: "tok1", domain.KeyRole: "professional", domain.KeyQuestionsCompleted: "true"}, domain.ScreenGroupSignedInProfessional},
		{"stray keys without token", map[string]string{domain.KeyRole: "professional", domain.KeyQuestionsCompleted: "true"}, domain.ScreenGroupSignedOut},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFaultyStore()
			store.seed(t, tc.seed)
			m, rec := newTestManager(t, store)

			if got := m.ScreenGroup(); got != domain.ScreenGroupBootstrapping {
				t.Fatalf("before bootstrap: got %s", got)
			}

			state := m.Bootstrap(context.Background())
			if state.IsBootstrapping {
				t.Fatalf("still bootstrapping after Bootstrap returned")
			}
			if got := SelectScreenGroup(state); got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
			if types := rec.types(); len(types) != 1 || types[0] != events.EventSessionBootstrapped {
				t.Fatalf("expected one bootstrapped event, got %v", types)
			}
		})
	}
}

func TestBootstrapFailsOpenWhenEveryReadFails(t *testing.T) {
	store := newFaultyStore()
	store.seed(t, map[string]string{domain.KeyAccessToken: "tok1", domain.KeyRole: "professional"})
	for _, k := range []string{domain.KeyAccessToken, domain.KeyUserID, domain.KeyRole, domain.KeyQuestionsCompleted} {
		store.failGet[k] = true
	}
	m, rec := newTestManager(t, store)

	state := m.Bootstrap(context.Background())
	want := domain.SessionState{IsSignedIn: false, Role: domain.RoleUser, ShouldAskOnboarding: false, IsBootstrapping: false}
	if state != want {
		t.Fatalf("got %+v, want %+v", state, want)
	}
	if m.ScreenGroup() != domain.ScreenGroupSignedOut {
		t.Fatalf("expected signed out, got %s", m.ScreenGroup())
	}

	payload, ok := rec.last().Payload.(events.BootstrapPayload)
	if !ok || len(payload.FailedReads) != 4 {
		t.Fatalf("expected 4 failed reads in payload, got %+v", rec.last().Payload)
	}
}

func TestBootstrapTreatsFailedOnboardingReadAsAbsent(t *testing.T) {
	store := newFaultyStore()
	store.seed(t, map[string]string{domain.KeyAccessToken: "tok1", domain.KeyQuestionsCompleted: "true"})
	store.failGet[domain.KeyQuestionsCompleted] = true
	m, _ := newTestManager(t, store)

	if got := SelectScreenGroup(m.Bootstrap(context.Background())); got != domain.ScreenGroupOnboarding {
		t.Fatalf("got %s, want ONBOARDING", got)
	}
}

type panickingStore struct{ *faultyStore }

func (p panickingStore) Get(context.Context, string) (string, bool, error) {
	panic("keychain exploded")
}

func TestBootstrapSurvivesPanickingStore(t *testing.T) {
	m, _ := newTestManager(t, panickingStore{newFaultyStore()})
	if got := SelectScreenGroup(m.Bootstrap(context.Background())); got != domain.ScreenGroupSignedOut {
		t.Fatalf("got %s, want SIGNED_OUT", got)
	}
}

func TestBootstrapHoldsSplashMinimum(t *testing.T) {
	const splash = 150 * time.Millisecond

	store := newFaultyStore()
	store.getDelay = 10 * time.Millisecond
	m := NewManager(store, Options{SplashMin: splash, Logger: zaptest.NewLogger(t)})

	done := make(chan time.Duration, 1)
	start := time.Now()
	go func() {
		m.Bootstrap(context.Background())
		done <- time.Since(start)
	}()

	time.Sleep(splash / 2)
	if !m.State().IsBootstrapping {
		t.Fatalf("bootstrap finished before the splash minimum")
	}

	select {
	case elapsed := <-done:
		if elapsed < splash {
			t.Fatalf("bootstrap took %s, want at least %s", elapsed, splash)
		}
		if elapsed > splash+time.Second {
			t.Fatalf("bootstrap took %s, far beyond the splash minimum", elapsed)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("bootstrap did not finish")
	}
	if m.State().IsBootstrapping {
		t.Fatalf("still bootstrapping")
	}
}

func TestBootstrapSplashRunsConcurrentlyWithReads(t *testing.T) {
	const splash = 100 * time.Millisecond

	store := newFaultyStore()
	store.getDelay = 80 * time.Millisecond
	m := NewManager(store, Options{SplashMin: splash, Logger: zaptest.NewLogger(t)})

	start := time.Now()
	m.Bootstrap(context.Background())
	// Sequential reads plus splash would be well over 180ms.
	if elapsed := time.Since(start); elapsed >= 2*splash+80*time.Millisecond {
		t.Fatalf("splash and reads did not overlap: %s", elapsed)
	}
}

func TestBootstrapCanceledContextCutsSplash(t *testing.T) {
	m := NewManager(newFaultyStore(), Options{SplashMin: time.Hour, Logger: zaptest.NewLogger(t)})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	state := m.Bootstrap(ctx)
	if state.IsBootstrapping {
		t.Fatalf("canceled bootstrap must still settle")
	}
}

func TestBootstrapRunsOnce(t *testing.T) {
	store := newFaultyStore()
	m, rec := newTestManager(t, store)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Bootstrap(context.Background())
		}()
	}
	wg.Wait()

	store.seed(t, map[string]string{domain.KeyAccessToken: "tok1"})
	if got := SelectScreenGroup(m.Bootstrap(context.Background())); got != domain.ScreenGroupSignedOut {
		t.Fatalf("second bootstrap re-read the store: %s", got)
	}
	if n := len(rec.types()); n != 1 {
		t.Fatalf("expected a single bootstrapped event, got %d", n)
	}
	select {
	case <-m.Ready():
	default:
		t.Fatalf("Ready not closed")
	}
}

func TestBootstrapFlagsExpiredToken(t *testing.T) {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString([]byte("s"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	fresh, _, err := auth.NewTokenManager("s", 5).GenerateToken("u1", domain.RoleUser, "")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	for _, tc := range []struct {
		token string
		want  bool
	}{{expired, true}, {fresh, false}, {"opaque", false}} {
		store := newFaultyStore()
		store.seed(t, map[string]string{domain.KeyAccessToken: tc.token, domain.KeyQuestionsCompleted: "true"})
		m, rec := newTestManager(t, store)

		m.Bootstrap(context.Background())
		payload := rec.last().Payload.(events.BootstrapPayload)
		if payload.TokenExpired != tc.want {
			t.Fatalf("token %q: TokenExpired=%v, want %v", tc.token, payload.TokenExpired, tc.want)
		}
		// Expiry is only reported; the backend decides whether the token still works.
		if m.ScreenGroup() != domain.ScreenGroupSignedInUser {
			t.Fatalf("token %q: got %s", tc.token, m.ScreenGroup())
		}
	}
}
