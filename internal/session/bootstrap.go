package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/karsaku/session-gate/internal/auth"
	"github.com/karsaku/session-gate/internal/domain"
	"github.com/karsaku/session-gate/internal/events"
)

// Bootstrap hydrates the session from the secret store. Only the first call
// does any work; later and concurrent calls wait for it and return the
// current state. It never fails: unreadable keys count as absent.
//
// The splash timer starts before the reads, so bootstrap takes
// max(read latency, SplashMin). Canceling ctx cuts the splash hold short.
func (m *Manager) Bootstrap(ctx context.Context) domain.SessionState {
	m.bootOnce.Do(func() { m.bootstrap(ctx) })
	return m.State()
}

func (m *Manager) bootstrap(ctx context.Context) {
	start := time.Now()

	var splash <-chan time.Time
	if m.splash > 0 {
		timer := time.NewTimer(m.splash)
		defer timer.Stop()
		splash = timer.C
	}

	signals, failed := m.readSignals(ctx)
	state := DeriveState(signals)
	payload := events.BootstrapPayload{FailedReads: failed}

	if signals.Role != nil {
		if _, ok := domain.ParseRole(*signals.Role); !ok {
			payload.UnknownRole = *signals.Role
			m.logger.Warn("unknown persisted role; defaulting to user", zap.String("role", *signals.Role))
		}
	}
	if state.IsSignedIn {
		if exp, ok := auth.ExpiresAt(*signals.AccessToken); ok && exp.Before(time.Now()) {
			payload.TokenExpired = true
			m.logger.Warn("persisted access token has expired", zap.Time("expired_at", exp))
		}
	}

	if splash != nil {
		select {
		case <-splash:
		case <-ctx.Done():
		}
	}

	payload.Duration = time.Since(start)
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
	close(m.ready)

	m.logger.Info("session bootstrapped",
		zap.String("screen_group", string(SelectScreenGroup(state))),
		zap.Duration("duration", payload.Duration),
		zap.Strings("failed_reads", failed))
	m.publish(ctx, events.EventSessionBootstrapped, state, payload)
}

// readSignals issues the key reads concurrently. A failed or panicking read
// is logged and treated as absent.
func (m *Manager) readSignals(ctx context.Context) (domain.SessionSignals, []string) {
	var signals domain.SessionSignals
	reads := []struct {
		key string
		dst **string
	}{
		{domain.KeyAccessToken, &signals.AccessToken},
		{domain.KeyUserID, &signals.UserID},
		{domain.KeyRole, &signals.Role},
		{domain.KeyQuestionsCompleted, &signals.OnboardingCompleted},
	}

	var (
		g      errgroup.Group
		mu     sync.Mutex
		failed []string
	)
	for _, r := range reads {
		r := r
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("secret store panic: %v", p)
				}
				if err != nil {
					m.logger.Warn("secret store read failed; treating key as absent", zap.String("key", r.key), zap.Error(err))
					mu.Lock()
					failed = append(failed, r.key)
					mu.Unlock()
				}
			}()

			value, ok, err := m.store.Get(ctx, r.key)
			if err != nil {
				return err
			}
			if ok {
				*r.dst = &value
			}
			return nil
		})
	}
	// Errors are collected in failed; Wait only joins the goroutines.
	_ = g.Wait()

	sort.Strings(failed)
	return signals, failed
}
