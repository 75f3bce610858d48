package worker_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/petflix/notifier/internal/domain"
	"github.com/petflix/notifier/internal/queue"
	"github.com/petflix/notifier/internal/repository"
	"github.com/petflix/notifier/internal/worker"
)

func TestWriterPool_PersistsBufferedEvents(t *testing.T) {
	repo := repository.NewMockEventRepository()
	intake := queue.New(16)

	persisted := make(chan domain.EventType, 16)
	pool := worker.NewWriterPool(2, intake, repo, zap.NewNop(),
		func(typ domain.EventType) { persisted <- typ })

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	for i, id := range []string{"a", "b", "c"} {
		err := intake.Enqueue(&domain.QueuedEvent{
			ID:        id,
			UserID:    "user-1",
			Type:      domain.EventFollow,
			Payload:   []byte(`{"actor_id":"x","actor_name":"Cat"}`),
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Millisecond),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < 3; i++ {
		select {
		case <-persisted:
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout: only %d/3 events persisted", i)
		}
	}

	cancel()
	pool.Wait()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := repo.GetByID(context.Background(), id); err != nil {
			t.Fatalf("event %s not persisted: %v", id, err)
		}
	}
}

// An insert failure drops the event without crashing the writer; following
// events still go through.
func TestWriter_InsertFailureDoesNotStopWriter(t *testing.T) {
	repo := repository.NewMockEventRepository()
	intake := queue.New(16)

	persisted := make(chan domain.EventType, 16)
	pool := worker.NewWriterPool(1, intake, repo, zap.NewNop(),
		func(typ domain.EventType) { persisted <- typ })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	repo.CreateErr = context.DeadlineExceeded
	_ = intake.Enqueue(&domain.QueuedEvent{ID: "doomed", UserID: "u", Type: domain.EventLike, Payload: []byte(`{}`), CreatedAt: time.Now().UTC()})

	// Give the writer a moment to consume the doomed event, then recover.
	time.Sleep(50 * time.Millisecond)
	repo.CreateErr = nil

	_ = intake.Enqueue(&domain.QueuedEvent{ID: "fine", UserID: "u", Type: domain.EventLike, Payload: []byte(`{}`), CreatedAt: time.Now().UTC()})

	select {
	case <-persisted:
	case <-time.After(2 * time.Second):
		t.Fatal("writer stopped processing after an insert failure")
	}

	if _, err := repo.GetByID(context.Background(), "fine"); err != nil {
		t.Fatalf("expected follow-up event to be persisted: %v", err)
	}
}
