package digest_test

import (
	"testing"
	"time"

	"github.com/petflix/notifier/internal/digest"
	"github.com/petflix/notifier/internal/domain"
)

func event(id, userID string, typ domain.EventType, age time.Duration) *domain.QueuedEvent {
	return &domain.QueuedEvent{
		ID:        id,
		UserID:    userID,
		Type:      typ,
		Payload:   []byte(`{}`),
		CreatedAt: time.Now().UTC().Add(-age),
	}
}

func TestGroup_ByUserAndType(t *testing.T) {
	events := []*domain.QueuedEvent{
		event("1", "alice", domain.EventLike, 10*time.Minute),
		event("2", "alice", domain.EventLike, 9*time.Minute),
		event("3", "alice", domain.EventComment, 8*time.Minute),
		event("4", "bob", domain.EventLike, 7*time.Minute),
	}

	parts := digest.Group(events)
	if len(parts) != 3 {
		t.Fatalf("expected 3 partitions, got %d", len(parts))
	}

	byKey := make(map[digest.Key]int)
	for _, p := range parts {
		byKey[p.Key] = len(p.Events)
	}
	if byKey[digest.Key{UserID: "alice", Type: domain.EventLike}] != 2 {
		t.Fatal("expected alice/like partition with 2 events")
	}
	if byKey[digest.Key{UserID: "alice", Type: domain.EventComment}] != 1 {
		t.Fatal("expected alice/comment partition with 1 event")
	}
	if byKey[digest.Key{UserID: "bob", Type: domain.EventLike}] != 1 {
		t.Fatal("expected bob/like partition with 1 event")
	}
}

// Events for different users or different types must never land in the
// same partition, regardless of timing.
func TestGroup_NeverMergesAcrossUsersOrTypes(t *testing.T) {
	events := []*domain.QueuedEvent{
		event("1", "alice", domain.EventFollow, 6*time.Minute),
		event("2", "bob", domain.EventFollow, 6*time.Minute),
		event("3", "alice", domain.EventLike, 6*time.Minute),
	}

	parts := digest.Group(events)
	if len(parts) != 3 {
		t.Fatalf("expected 3 partitions, got %d", len(parts))
	}
	for _, p := range parts {
		if len(p.Events) != 1 {
			t.Fatalf("partition %v: expected 1 event, got %d", p.Key, len(p.Events))
		}
	}
}

func TestGroup_OrderedByOldestEvent(t *testing.T) {
	events := []*domain.QueuedEvent{
		event("young", "bob", domain.EventLike, 6*time.Minute),
		event("old", "alice", domain.EventFollow, 20*time.Minute),
	}

	parts := digest.Group(events)
	if parts[0].Key.UserID != "alice" {
		t.Fatalf("expected partition holding the oldest event first, got %v", parts[0].Key)
	}
}

func TestGroup_Empty(t *testing.T) {
	if parts := digest.Group(nil); len(parts) != 0 {
		t.Fatalf("expected no partitions, got %d", len(parts))
	}
}

func TestPartition_IDs(t *testing.T) {
	parts := digest.Group([]*domain.QueuedEvent{
		event("a", "alice", domain.EventLike, 6*time.Minute),
		event("b", "alice", domain.EventLike, 5*time.Minute),
	})
	if len(parts) != 1 {
		t.Fatalf("expected 1 partition, got %d", len(parts))
	}
	ids := parts[0].IDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}
