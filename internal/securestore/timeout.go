package securestore

import (
	"context"
	"sync"
	"time"
)

type timeoutStore struct {
	inner   Store
	timeout time.Duration

	mu        sync.Mutex
	abandoned map[string]chan struct{}
}

// WithTimeout bounds every call on inner by d. The caller is released when
// the deadline passes even if inner ignores its context, so a hung backend
// surfaces as ErrStorageUnavailable instead of blocking forever. A
// non-positive d returns inner unchanged.
//
// A call released this way may still complete on inner later. Later calls on
// the same key wait for it first, within their own deadline, so a delete
// issued after a timed-out set is never overtaken by that set.
func WithTimeout(inner Store, d time.Duration) Store {
	if d <= 0 {
		return inner
	}
	return &timeoutStore{inner: inner, timeout: d, abandoned: make(map[string]chan struct{})}
}

func (s *timeoutStore) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := s.run(ctx, "get", key, func(ctx context.Context) error {
		var err error
		value, ok, err = s.inner.Get(ctx, key)
		return err
	})
	if err != nil {
		return "", false, err
	}
	return value, ok, nil
}

func (s *timeoutStore) Set(ctx context.Context, key, value string) error {
	return s.run(ctx, "set", key, func(ctx context.Context) error {
		return s.inner.Set(ctx, key, value)
	})
}

func (s *timeoutStore) Delete(ctx context.Context, key string) error {
	return s.run(ctx, "delete", key, func(ctx context.Context) error {
		return s.inner.Delete(ctx, key)
	})
}

func (s *timeoutStore) run(ctx context.Context, op, key string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.awaitAbandoned(ctx, key); err != nil {
		return unavailable(op, key, err)
	}

	var err error
	finished := make(chan struct{})
	go func() {
		err = fn(ctx)
		close(finished)
	}()

	select {
	case <-finished:
		return err
	case <-ctx.Done():
		s.abandon(key, finished)
		return unavailable(op, key, ctx.Err())
	}
}

// abandon records a call that outlived its deadline until it finishes.
func (s *timeoutStore) abandon(key string, finished chan struct{}) {
	s.mu.Lock()
	s.abandoned[key] = finished
	s.mu.Unlock()

	go func() {
		<-finished
		s.mu.Lock()
		if s.abandoned[key] == finished {
			delete(s.abandoned, key)
		}
		s.mu.Unlock()
	}()
}

func (s *timeoutStore) awaitAbandoned(ctx context.Context, key string) error {
	for {
		s.mu.Lock()
		pending, ok := s.abandoned[key]
		s.mu.Unlock()
		if !ok {
			return nil
		}
		select {
		case <-pending:
			// Finished but not yet cleared; anything newer would have replaced it.
			return nil
		default:
		}
		select {
		case <-pending:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
