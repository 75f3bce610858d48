package digest_test

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/petflix/notifier/internal/digest"
	"github.com/petflix/notifier/internal/domain"
)

func payloadEvent(t *testing.T, id, userID string, typ domain.EventType, p domain.EventPayload) *domain.QueuedEvent {
	t.Helper()
	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	return &domain.QueuedEvent{
		ID:        id,
		UserID:    userID,
		Type:      typ,
		Payload:   raw,
		CreatedAt: time.Now().UTC().Add(-6 * time.Minute),
	}
}

func onePartition(t *testing.T, events []*domain.QueuedEvent) digest.Partition {
	t.Helper()
	parts := digest.Group(events)
	if len(parts) != 1 {
		t.Fatalf("expected 1 partition, got %d", len(parts))
	}
	return parts[0]
}

func TestFormat_SingularPhrasing(t *testing.T) {
	actor := domain.EventPayload{ActorID: "actor-1", ActorName: "Fluffy", VideoID: "video-1"}

	tests := []struct {
		typ      domain.EventType
		body     string
		deepLink string
	}{
		{domain.EventFollow, "Fluffy started following you", "/profile/actor-1"},
		{domain.EventComment, "Fluffy commented on your video", "/video/video-1"},
		{domain.EventLike, "Fluffy liked your video", "/video/video-1"},
		{domain.EventNewVideo, "Fluffy uploaded a new video", "/video/video-1"},
	}

	for _, tc := range tests {
		t.Run(string(tc.typ), func(t *testing.T) {
			p := onePartition(t, []*domain.QueuedEvent{
				payloadEvent(t, "1", "user-1", tc.typ, actor),
			})
			msg, malformed, err := digest.Format(p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(malformed) != 0 {
				t.Fatalf("unexpected malformed rows: %v", malformed)
			}
			if msg.Body != tc.body {
				t.Fatalf("expected body %q, got %q", tc.body, msg.Body)
			}
			if msg.DeepLink != tc.deepLink {
				t.Fatalf("expected deep link %q, got %q", tc.deepLink, msg.DeepLink)
			}
		})
	}
}

func TestFormat_GroupedFollowers(t *testing.T) {
	var events []*domain.QueuedEvent
	for i := 0; i < 3; i++ {
		events = append(events, payloadEvent(t, fmt.Sprintf("f%d", i), "user-1", domain.EventFollow,
			domain.EventPayload{ActorID: fmt.Sprintf("actor-%d", i), ActorName: fmt.Sprintf("Cat %d", i)}))
	}

	msg, _, err := digest.Format(onePartition(t, events))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Body != "3 new followers" {
		t.Fatalf("expected %q, got %q", "3 new followers", msg.Body)
	}
	if msg.DeepLink != "/profile/user-1" {
		t.Fatalf("unexpected deep link %q", msg.DeepLink)
	}
}

// Five likes on the same video collapse into one "N people liked" digest.
func TestFormat_GroupedLikesSameVideo(t *testing.T) {
	var events []*domain.QueuedEvent
	for i := 0; i < 5; i++ {
		events = append(events, payloadEvent(t, fmt.Sprintf("l%d", i), "user-1", domain.EventLike,
			domain.EventPayload{ActorID: fmt.Sprintf("actor-%d", i), ActorName: "Cat", VideoID: "video-1"}))
	}

	msg, _, err := digest.Format(onePartition(t, events))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Body != "5 people liked your video" {
		t.Fatalf("expected %q, got %q", "5 people liked your video", msg.Body)
	}
	if msg.DeepLink != "/video/video-1" {
		t.Fatalf("unexpected deep link %q", msg.DeepLink)
	}
}

func TestFormat_GroupedLikesAcrossVideos(t *testing.T) {
	events := []*domain.QueuedEvent{
		payloadEvent(t, "1", "user-1", domain.EventLike, domain.EventPayload{ActorID: "a1", ActorName: "Cat", VideoID: "video-1"}),
		payloadEvent(t, "2", "user-1", domain.EventLike, domain.EventPayload{ActorID: "a2", ActorName: "Dog", VideoID: "video-2"}),
		payloadEvent(t, "3", "user-1", domain.EventLike, domain.EventPayload{ActorID: "a3", ActorName: "Fox", VideoID: "video-2"}),
	}

	msg, _, err := digest.Format(onePartition(t, events))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Body != "3 likes on 2 videos" {
		t.Fatalf("expected %q, got %q", "3 likes on 2 videos", msg.Body)
	}
	if msg.DeepLink != "/" {
		t.Fatalf("unexpected deep link %q", msg.DeepLink)
	}
}

// Two comments on video A plus one on video B phrase as "3 new comments
// on 2 videos".
func TestFormat_GroupedCommentsAcrossVideos(t *testing.T) {
	events := []*domain.QueuedEvent{
		payloadEvent(t, "1", "user-1", domain.EventComment, domain.EventPayload{ActorID: "a1", ActorName: "Cat", VideoID: "video-a"}),
		payloadEvent(t, "2", "user-1", domain.EventComment, domain.EventPayload{ActorID: "a2", ActorName: "Dog", VideoID: "video-a"}),
		payloadEvent(t, "3", "user-1", domain.EventComment, domain.EventPayload{ActorID: "a3", ActorName: "Fox", VideoID: "video-b"}),
	}

	msg, _, err := digest.Format(onePartition(t, events))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Body != "3 new comments on 2 videos" {
		t.Fatalf("expected %q, got %q", "3 new comments on 2 videos", msg.Body)
	}
}

func TestFormat_GroupedCommentsSameVideo(t *testing.T) {
	events := []*domain.QueuedEvent{
		payloadEvent(t, "1", "user-1", domain.EventComment, domain.EventPayload{ActorID: "a1", ActorName: "Cat", VideoID: "video-a"}),
		payloadEvent(t, "2", "user-1", domain.EventComment, domain.EventPayload{ActorID: "a2", ActorName: "Dog", VideoID: "video-a"}),
	}

	msg, _, err := digest.Format(onePartition(t, events))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Body != "2 new comments on your video" {
		t.Fatalf("expected %q, got %q", "2 new comments on your video", msg.Body)
	}
	if msg.DeepLink != "/video/video-a" {
		t.Fatalf("unexpected deep link %q", msg.DeepLink)
	}
}

func TestFormat_GroupedVideosSameActor(t *testing.T) {
	events := []*domain.QueuedEvent{
		payloadEvent(t, "1", "user-1", domain.EventNewVideo, domain.EventPayload{ActorID: "a1", ActorName: "Fluffy", VideoID: "v1"}),
		payloadEvent(t, "2", "user-1", domain.EventNewVideo, domain.EventPayload{ActorID: "a1", ActorName: "Fluffy", VideoID: "v2"}),
	}

	msg, _, err := digest.Format(onePartition(t, events))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Body != "2 new videos from Fluffy" {
		t.Fatalf("expected %q, got %q", "2 new videos from Fluffy", msg.Body)
	}
}

func TestFormat_GroupedVideosMultipleActors(t *testing.T) {
	events := []*domain.QueuedEvent{
		payloadEvent(t, "1", "user-1", domain.EventNewVideo, domain.EventPayload{ActorID: "a1", ActorName: "Fluffy", VideoID: "v1"}),
		payloadEvent(t, "2", "user-1", domain.EventNewVideo, domain.EventPayload{ActorID: "a2", ActorName: "Rex", VideoID: "v2"}),
	}

	msg, _, err := digest.Format(onePartition(t, events))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Body != "2 new videos from 2 users" {
		t.Fatalf("expected %q, got %q", "2 new videos from 2 users", msg.Body)
	}
}

// A malformed row inside a partition is reported and excluded; the
// remaining rows still phrase correctly.
func TestFormat_SkipsMalformedRows(t *testing.T) {
	good := payloadEvent(t, "good", "user-1", domain.EventLike,
		domain.EventPayload{ActorID: "a1", ActorName: "Cat", VideoID: "video-1"})
	bad := &domain.QueuedEvent{
		ID: "bad", UserID: "user-1", Type: domain.EventLike,
		Payload:   []byte(`{"actor_id":""}`),
		CreatedAt: good.CreatedAt,
	}

	msg, malformed, err := digest.Format(onePartition(t, []*domain.QueuedEvent{good, bad}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(malformed) != 1 || malformed[0] != "bad" {
		t.Fatalf("expected malformed=[bad], got %v", malformed)
	}
	// With the bad row excluded only one usable event remains, so phrasing
	// falls back to singular.
	if msg.Body != "Cat liked your video" {
		t.Fatalf("expected singular phrasing, got %q", msg.Body)
	}
}

func TestFormat_AllMalformed(t *testing.T) {
	bad := &domain.QueuedEvent{
		ID: "bad", UserID: "user-1", Type: domain.EventFollow,
		Payload:   []byte(`not json`),
		CreatedAt: time.Now().UTC(),
	}

	_, malformed, err := digest.Format(onePartition(t, []*domain.QueuedEvent{bad}))
	if err != domain.ErrMalformedPayload {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
	if len(malformed) != 1 {
		t.Fatalf("expected 1 malformed row, got %d", len(malformed))
	}
}

func TestDeepLink(t *testing.T) {
	p := domain.EventPayload{ActorID: "actor-1", VideoID: "video-1"}
	if got := digest.DeepLink(domain.EventFollow, p); got != "/profile/actor-1" {
		t.Fatalf("follow: got %q", got)
	}
	for _, typ := range []domain.EventType{domain.EventComment, domain.EventLike, domain.EventNewVideo} {
		if got := digest.DeepLink(typ, p); got != "/video/video-1" {
			t.Fatalf("%s: got %q", typ, got)
		}
	}
}
