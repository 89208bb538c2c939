package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/karsaku/session-gate/internal/domain"
	"github.com/karsaku/session-gate/internal/events"
	"github.com/karsaku/session-gate/internal/securestore"
)

// faultyStore wraps a Memory store and fails chosen operations per key.
type faultyStore struct {
	*securestore.Memory

	mu         sync.Mutex
	failGet    map[string]bool
	failSet    map[string]bool
	failDelete map[string]bool
	getDelay   time.Duration
	deletes    []string
}

func newFaultyStore() *faultyStore {
	return &faultyStore{
		Memory:     securestore.NewMemory(),
		failGet:    map[string]bool{},
		failSet:    map[string]bool{},
		failDelete: map[string]bool{},
	}
}

func (f *faultyStore) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getDelay > 0 {
		time.Sleep(f.getDelay)
	}
	f.mu.Lock()
	fail := f.failGet[key]
	f.mu.Unlock()
	if fail {
		return "", false, fmt.Errorf("get %s: %w", key, domain.ErrStorageUnavailable)
	}
	return f.Memory.Get(ctx, key)
}

func (f *faultyStore) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	fail := f.failSet[key]
	f.mu.Unlock()
	if fail {
		return fmt.Errorf("set %s: %w", key, domain.ErrStorageUnavailable)
	}
	return f.Memory.Set(ctx, key, value)
}

func (f *faultyStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	f.deletes = append(f.deletes, key)
	fail := f.failDelete[key]
	f.mu.Unlock()
	if fail {
		return fmt.Errorf("delete %s: %w", key, domain.ErrStorageUnavailable)
	}
	return f.Memory.Delete(ctx, key)
}

func (f *faultyStore) seed(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		if err := f.Memory.Set(context.Background(), k, v); err != nil {
			t.Fatalf("seed %s: %v", k, err)
		}
	}
}

func (f *faultyStore) value(t *testing.T, key string) (string, bool) {
	t.Helper()
	v, ok, err := f.Memory.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	return v, ok
}

// recorder captures published session events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) attach(d events.Dispatcher) {
	for _, et := range events.AllSessionEvents {
		d.Subscribe(et, func(_ context.Context, e events.Event) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, e)
			return nil
		})
	}
}

func (r *recorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recorder) last() events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func newTestManager(t *testing.T, store securestore.Store) (*Manager, *recorder) {
	t.Helper()
	d := events.NewInMemoryDispatcher()
	rec := &recorder{}
	rec.attach(d)
	return NewManager(store, Options{Logger: zaptest.NewLogger(t), Events: d}), rec
}

func bootedManager(t *testing.T, store securestore.Store) (*Manager, *recorder) {
	t.Helper()
	m, rec := newTestManager(t, store)
	m.Bootstrap(context.Background())
	return m, rec
}

func rolePtr(r domain.Role) *domain.Role { return &r }

func boolPtr(b bool) *bool { return &b }
