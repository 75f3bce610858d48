package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/petflix/notifier/internal/domain"
	"github.com/petflix/notifier/internal/queue"
	"github.com/petflix/notifier/internal/repository"
)

// Writer is a single goroutine that drains the in-memory intake buffer and
// performs the durable inserts into the events table. Keeping inserts off
// the request path is what lets the enqueue API answer without waiting on
// the database.
type Writer struct {
	id     int
	intake *queue.Intake
	repo   repository.EventRepository
	logger *zap.Logger

	// Metrics hook, injected by the pool so the writer stays metrics-agnostic.
	onPersisted func(t domain.EventType)
}

func NewWriter(
	id int,
	intake *queue.Intake,
	repo repository.EventRepository,
	logger *zap.Logger,
	onPersisted func(domain.EventType),
) *Writer {
	if onPersisted == nil {
		onPersisted = func(domain.EventType) {}
	}
	return &Writer{id: id, intake: intake, repo: repo, logger: logger, onPersisted: onPersisted}
}

// Run blocks until ctx is cancelled, persisting one buffered event per
// iteration.
func (w *Writer) Run(ctx context.Context) {
	w.logger.Info("intake writer started", zap.Int("id", w.id))
	for {
		e, ok := w.intake.Dequeue(ctx)
		if !ok {
			w.logger.Info("intake writer stopping", zap.Int("id", w.id))
			return
		}
		w.persist(ctx, e)
	}
}

func (w *Writer) persist(ctx context.Context, e *domain.QueuedEvent) {
	if err := w.repo.Create(ctx, e); err != nil {
		// Notification delivery is best-effort by contract; an event that
		// cannot be persisted is dropped and logged, never bounced back to
		// the caller whose HTTP response has long since been sent.
		w.logger.Error("event dropped: insert failed",
			zap.String("event_id", e.ID),
			zap.String("user_id", e.UserID),
			zap.String("type", string(e.Type)),
			zap.Error(err),
		)
		return
	}
	w.onPersisted(e.Type)
}
