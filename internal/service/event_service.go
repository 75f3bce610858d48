package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/petflix/notifier/internal/domain"
	"github.com/petflix/notifier/internal/queue"
	"github.com/petflix/notifier/internal/repository"
)

// EventService is the enqueue surface exposed to the rest of the Petflix
// backend. It validates inbound events, stamps identity and creation time,
// and parks them on the intake buffer for the writer pool to persist.
// HTTP handlers and workers depend on this service, not on each other.
type EventService struct {
	repo   repository.EventRepository
	subs   repository.SubscriptionRepository
	intake *queue.Intake
	logger *zap.Logger
}

func NewEventService(
	repo repository.EventRepository,
	subs repository.SubscriptionRepository,
	intake *queue.Intake,
	logger *zap.Logger,
) *EventService {
	return &EventService{repo: repo, subs: subs, intake: intake, logger: logger}
}

// Enqueue validates and accepts a single notification event.
//
// This is fire-and-forget from the caller's perspective: the event is
// buffered, not yet durable, when Enqueue returns. Delivery itself happens
// minutes later, once the grouping window has elapsed and the processor
// picks the row up. No delivery is ever attempted synchronously.
func (s *EventService) Enqueue(_ context.Context, req domain.EnqueueRequest) (*domain.QueuedEvent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e := &domain.QueuedEvent{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		Type:      req.Type,
		Payload:   req.Payload,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.intake.Enqueue(e); err != nil {
		s.logger.Warn("intake buffer full, event rejected",
			zap.String("user_id", e.UserID),
			zap.String("type", string(e.Type)),
		)
		return nil, err
	}
	return e, nil
}

func (s *EventService) GetByID(ctx context.Context, id string) (*domain.QueuedEvent, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *EventService) List(ctx context.Context, filter domain.ListFilter) ([]*domain.QueuedEvent, int, error) {
	return s.repo.List(ctx, filter)
}

// PendingCounts returns the number of unsent events per type, for the
// stats endpoint.
func (s *EventService) PendingCounts(ctx context.Context) (map[domain.EventType]int, error) {
	return s.repo.CountPending(ctx)
}

// RegisterSubscription stores a new browser push subscription.
func (s *EventService) RegisterSubscription(ctx context.Context, req domain.CreateSubscriptionRequest) (*domain.PushSubscription, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sub := &domain.PushSubscription{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		Endpoint:  req.Endpoint,
		P256dh:    req.P256dh,
		Auth:      req.Auth,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// RevokeSubscription deactivates a subscription; the processor stops
// delivering to it from the next tick on.
func (s *EventService) RevokeSubscription(ctx context.Context, id string) error {
	return s.subs.Revoke(ctx, id)
}
