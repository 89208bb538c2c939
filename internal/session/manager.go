package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/karsaku/session-gate/internal/domain"
	"github.com/karsaku/session-gate/internal/events"
	"github.com/karsaku/session-gate/internal/securestore"
)

// DefaultSplashMin is the minimum bootstrap duration used by the app.
const DefaultSplashMin = 3 * time.Second

// Options configures a Manager.
type Options struct {
	// SplashMin is the minimum time bootstrap takes. Zero disables the hold.
	SplashMin time.Duration
	Logger    *zap.Logger
	Events    events.Dispatcher
}

// LoginFunc performs the external login call for SignInWith.
type LoginFunc func(ctx context.Context) (domain.LoginResult, error)

// SubmitFunc performs the external onboarding submission for CompleteOnboardingWith.
type SubmitFunc func(ctx context.Context) error

// Manager is the single owner of SessionState. The state only changes through
// Bootstrap and the mutators; readers get copies.
type Manager struct {
	store  securestore.Store
	logger *zap.Logger
	events events.Dispatcher
	splash time.Duration

	mu    sync.RWMutex
	state domain.SessionState

	bootOnce sync.Once
	ready    chan struct{}
	mutating atomic.Bool
}

// NewManager returns a Manager in the bootstrapping state.
func NewManager(store securestore.Store, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:  store,
		logger: logger.Named("session"),
		events: opts.Events,
		splash: opts.SplashMin,
		state:  domain.InitialState(),
		ready:  make(chan struct{}),
	}
}

// State returns a copy of the current session state.
func (m *Manager) State() domain.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// ScreenGroup returns the screen group for the current state.
func (m *Manager) ScreenGroup() domain.ScreenGroup {
	return SelectScreenGroup(m.State())
}

// Ready is closed once bootstrap has finished.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// AccessToken reads the persisted access token for authenticating backend calls.
func (m *Manager) AccessToken(ctx context.Context) (string, bool, error) {
	return m.store.Get(ctx, domain.KeyAccessToken)
}

// SignIn persists a login result and switches to the matching signed-in state.
func (m *Manager) SignIn(ctx context.Context, result domain.LoginResult) error {
	return m.SignInWith(ctx, func(context.Context) (domain.LoginResult, error) {
		return result, nil
	})
}

// SignInWith runs login inside the mutation slot, then persists and applies
// its result. The new state replaces the old one entirely. If login or any
// write fails, the in-memory state is unchanged.
func (m *Manager) SignInWith(ctx context.Context, login LoginFunc) error {
	release, err := m.begin()
	if err != nil {
		return err
	}
	defer release()

	result, err := login(ctx)
	if err != nil {
		return err
	}

	next, err := stateFromLogin(result)
	if err != nil {
		return err
	}
	if err := m.persistSignIn(ctx, result.AccessToken, next); err != nil {
		return err
	}

	m.apply(ctx, events.EventSessionSignedIn, next, nil)
	m.logger.Info("signed in",
		zap.String("user_id", next.UserID),
		zap.String("role", string(next.Role)),
		zap.Bool("should_ask_onboarding", next.ShouldAskOnboarding))
	return nil
}

// CompleteOnboarding marks onboarding done. It is a no-op when signed out.
func (m *Manager) CompleteOnboarding(ctx context.Context) error {
	return m.CompleteOnboardingWith(ctx, nil)
}

// CompleteOnboardingWith runs submit inside the mutation slot and, once it
// succeeds, persists questions_completed=true and clears ShouldAskOnboarding.
// Signed out it does nothing and returns nil.
func (m *Manager) CompleteOnboardingWith(ctx context.Context, submit SubmitFunc) error {
	release, err := m.begin()
	if err != nil {
		return err
	}
	defer release()

	current := m.State()
	if !current.IsSignedIn {
		m.logger.Debug("ignoring onboarding completion while signed out")
		return nil
	}

	if submit != nil {
		if err := submit(ctx); err != nil {
			return err
		}
	}

	if err := m.store.Set(ctx, domain.KeyQuestionsCompleted, "true"); err != nil {
		m.logger.Error("persist onboarding completion failed", zap.Error(err))
		return fmt.Errorf("persist %s: %w", domain.KeyQuestionsCompleted, err)
	}

	next := current
	next.ShouldAskOnboarding = false
	m.apply(ctx, events.EventSessionOnboardingCompleted, next, nil)
	return nil
}

// SignOut clears every session key and resets to the signed-out state. Each
// delete is attempted independently; failures are logged and reported in
// the event payload but never keep the session signed in.
func (m *Manager) SignOut(ctx context.Context) error {
	release, err := m.begin()
	if err != nil {
		return err
	}
	defer release()

	var failed []string
	for _, key := range domain.SessionKeys {
		if err := m.store.Delete(ctx, key); err != nil {
			m.logger.Warn("secret store delete failed during sign-out", zap.String("key", key), zap.Error(err))
			failed = append(failed, key)
		}
	}

	m.apply(ctx, events.EventSessionSignedOut, domain.SignedOutState(), events.SignOutPayload{FailedDeletes: failed})
	m.logger.Info("signed out", zap.Strings("failed_deletes", failed))
	return nil
}

// begin claims the mutation slot. Mutators are refused before bootstrap
// finishes and while another mutator runs.
func (m *Manager) begin() (func(), error) {
	select {
	case <-m.ready:
	default:
		return nil, domain.ErrBootstrapping
	}
	if !m.mutating.CompareAndSwap(false, true) {
		return nil, domain.ErrMutationInFlight
	}
	return func() { m.mutating.Store(false) }, nil
}

func (m *Manager) apply(ctx context.Context, eventType events.EventType, next domain.SessionState, payload interface{}) {
	m.mu.Lock()
	m.state = next
	m.mu.Unlock()
	m.publish(ctx, eventType, next, payload)
}

func (m *Manager) publish(ctx context.Context, eventType events.EventType, state domain.SessionState, payload interface{}) {
	if m.events == nil {
		return
	}
	event := events.Event{
		Type:      eventType,
		State:     state,
		Group:     SelectScreenGroup(state),
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := m.events.Publish(context.WithoutCancel(ctx), event); err != nil {
		m.logger.Warn("session event handler failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}

type keyValue struct {
	key   string
	value string
}

// priorValue is a key's content before a sign-in started writing.
type priorValue struct {
	key     string
	value   string
	present bool
}

// persistSignIn writes the access token last. Before writing it snapshots
// the keys it touches; if any write fails they are restored best-effort,
// profile keys first and the token last, so the store keeps describing the
// previous session rather than a mix of the two.
func (m *Manager) persistSignIn(ctx context.Context, token string, next domain.SessionState) error {
	writes := []keyValue{
		{domain.KeyUserID, next.UserID},
		{domain.KeyRole, string(next.Role)},
		{domain.KeyQuestionsCompleted, strconv.FormatBool(!next.ShouldAskOnboarding)},
		{domain.KeyAccessToken, token},
	}

	prior := make([]priorValue, 0, len(writes))
	for _, w := range writes {
		value, ok, err := m.store.Get(ctx, w.key)
		if err != nil {
			m.logger.Error("snapshot before sign-in failed", zap.String("key", w.key), zap.Error(err))
			return fmt.Errorf("read %s: %w", w.key, err)
		}
		prior = append(prior, priorValue{key: w.key, value: value, present: ok})
	}

	for _, w := range writes {
		if err := m.store.Set(ctx, w.key, w.value); err != nil {
			m.logger.Error("persist sign-in failed", zap.String("key", w.key), zap.Error(err))
			m.restore(context.WithoutCancel(ctx), prior)
			return fmt.Errorf("persist %s: %w", w.key, err)
		}
	}
	return nil
}

func (m *Manager) restore(ctx context.Context, prior []priorValue) {
	for _, p := range prior {
		var err error
		if p.present {
			err = m.store.Set(ctx, p.key, p.value)
		} else {
			err = m.store.Delete(ctx, p.key)
		}
		if err != nil {
			m.logger.Warn("rollback of sign-in key failed", zap.String("key", p.key), zap.Error(err))
		}
	}
}

func stateFromLogin(result domain.LoginResult) (domain.SessionState, error) {
	if strings.TrimSpace(result.AccessToken) == "" {
		return domain.SessionState{}, fmt.Errorf("%w: missing access token", domain.ErrInvalidLoginResult)
	}

	next := domain.SignedOutState()
	next.IsSignedIn = true
	next.UserID = result.UserID
	if result.Role != nil {
		role, ok := domain.ParseRole(string(*result.Role))
		if !ok {
			return domain.SessionState{}, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidLoginResult, *result.Role)
		}
		next.Role = role
	}
	next.ShouldAskOnboarding = true
	if result.ShouldAskOnboarding != nil {
		next.ShouldAskOnboarding = *result.ShouldAskOnboarding
	}
	return next, nil
}
