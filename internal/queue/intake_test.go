package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/petflix/notifier/internal/domain"
	"github.com/petflix/notifier/internal/queue"
)

func bufferedEvent(id string) *domain.QueuedEvent {
	return &domain.QueuedEvent{
		ID:        id,
		UserID:    "user-1",
		Type:      domain.EventLike,
		Payload:   []byte(`{}`),
		CreatedAt: time.Now().UTC(),
	}
}

func TestIntake_EnqueueDequeue(t *testing.T) {
	q := queue.New(8)
	ctx := context.Background()

	if err := q.Enqueue(bufferedEvent("1")); err != nil {
		t.Fatal(err)
	}

	got, ok := q.Dequeue(ctx)
	if !ok {
		t.Fatal("expected event, got nothing")
	}
	if got.ID != "1" {
		t.Fatalf("expected id=1, got %s", got.ID)
	}
}

// TestIntake_ErrQueueFull verifies the non-blocking Enqueue returns
// ErrQueueFull when the buffer is saturated.
func TestIntake_ErrQueueFull(t *testing.T) {
	q := queue.New(1)

	if err := q.Enqueue(bufferedEvent("1")); err != nil {
		t.Fatalf("unexpected error on empty buffer: %v", err)
	}
	if err := q.Enqueue(bufferedEvent("2")); err != domain.ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

// TestIntake_ContextCancellation verifies Dequeue returns (nil, false)
// when the context is cancelled while blocking.
func TestIntake_ContextCancellation(t *testing.T) {
	q := queue.New(8)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Dequeue(ctx)
		done <- ok
	}()

	cancel()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("expected ok=false after context cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not return after context cancellation")
	}
}

func TestIntake_Depth(t *testing.T) {
	q := queue.New(8)

	_ = q.Enqueue(bufferedEvent("1"))
	_ = q.Enqueue(bufferedEvent("2"))

	if d := q.Depth(); d != 2 {
		t.Fatalf("expected depth=2, got %d", d)
	}
}

func TestIntake_DefaultCapacity(t *testing.T) {
	q := queue.New(0)
	// Zero or negative capacity falls back to the default rather than an
	// unbuffered channel that would block every Enqueue.
	if err := q.Enqueue(bufferedEvent("1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
