package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/karsaku/session-gate/internal/events"
	"github.com/karsaku/session-gate/internal/observability"
)

// AuditService records session transitions in the log and in metrics.
type AuditService struct {
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to every session event.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventSessionBootstrapped, a.handleBootstrapped)
	a.dispatcher.Subscribe(events.EventSessionSignedIn, a.handleTransition)
	a.dispatcher.Subscribe(events.EventSessionOnboardingCompleted, a.handleTransition)
	a.dispatcher.Subscribe(events.EventSessionSignedOut, a.handleSignedOut)
}

func (a *AuditService) handleBootstrapped(ctx context.Context, event events.Event) error {
	a.record(event)
	payload, ok := event.Payload.(events.BootstrapPayload)
	if !ok {
		return nil
	}
	a.metrics.RecordBootstrap(payload.Duration)
	for _, key := range payload.FailedReads {
		a.metrics.RecordStorageFailure("get", key)
	}
	a.logger.Info("SessionBootstrapped",
		zap.String("screen_group", string(event.Group)),
		zap.Duration("duration", payload.Duration),
		zap.Strings("failed_reads", payload.FailedReads),
		zap.Bool("token_expired", payload.TokenExpired))
	return nil
}

func (a *AuditService) handleTransition(ctx context.Context, event events.Event) error {
	a.record(event)
	a.logger.Info("SessionTransition",
		zap.String("event_type", string(event.Type)),
		zap.String("screen_group", string(event.Group)),
		zap.String("user_id", event.State.UserID),
		zap.String("role", string(event.State.Role)))
	return nil
}

func (a *AuditService) handleSignedOut(ctx context.Context, event events.Event) error {
	a.record(event)
	payload, _ := event.Payload.(events.SignOutPayload)
	for _, key := range payload.FailedDeletes {
		a.metrics.RecordStorageFailure("delete", key)
	}
	a.logger.Info("SessionSignedOut", zap.Strings("failed_deletes", payload.FailedDeletes))
	return nil
}

func (a *AuditService) record(event events.Event) {
	a.metrics.RecordTransition(string(event.Type), string(event.Group))
}
