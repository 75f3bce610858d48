package repository

import (
	"context"
	"time"

	"github.com/petflix/notifier/internal/domain"
)

// EventRepository defines all persistence operations for queued
// notification events. The pgx implementation is in pg_event_repo.go.
// Tests use a hand-written mock (mock_event_repo.go).
//
// The events table is the durable queue: route-layer collaborators insert,
// the digest processor selects and marks, and nothing else writes to it.
// The processor is the only actor permitted to set sent_at.
type EventRepository interface {
	Create(ctx context.Context, e *domain.QueuedEvent) error
	GetByID(ctx context.Context, id string) (*domain.QueuedEvent, error)
	List(ctx context.Context, filter domain.ListFilter) ([]*domain.QueuedEvent, int, error)

	// FindPending returns every unsent event created at or before cutoff,
	// oldest first. The cutoff enforces the grouping window: recent events
	// wait for a later tick so a burst has time to accumulate.
	FindPending(ctx context.Context, cutoff time.Time) ([]*domain.QueuedEvent, error)

	// MarkSent stamps sent_at on the given rows. Rows already marked by a
	// concurrent processor are left untouched.
	MarkSent(ctx context.Context, ids []string, sentAt time.Time) error

	// CountPending returns the number of unsent events per type.
	CountPending(ctx context.Context) (map[domain.EventType]int, error)

	// DeleteSentBefore purges delivered rows older than cutoff and returns
	// how many were removed. Unsent rows are never deleted.
	DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SubscriptionRepository is the read/write surface for browser push
// subscriptions. The processor only reads (ActiveByUser); the HTTP API
// registers and revokes.
type SubscriptionRepository interface {
	Create(ctx context.Context, s *domain.PushSubscription) error
	Revoke(ctx context.Context, id string) error
	ActiveByUser(ctx context.Context, userID string) ([]*domain.PushSubscription, error)
}
