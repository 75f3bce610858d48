package digest

import (
	"encoding/json"
	"fmt"

	"github.com/petflix/notifier/internal/domain"
)

// entry is one event whose payload parsed successfully.
type entry struct {
	id      string
	payload domain.EventPayload
}

// Format builds the push message summarizing a partition.
//
// A single usable event gets singular phrasing built from its payload;
// two or more get the type-specific grouped phrasing. Events whose payload
// cannot be parsed, or is missing fields the type requires, are excluded
// from the summary and returned in malformed so the caller can log them.
// If no event in the partition is usable, ErrMalformedPayload is returned.
func Format(p Partition) (domain.PushMessage, []string, error) {
	var entries []entry
	var malformed []string

	for _, e := range p.Events {
		var payload domain.EventPayload
		if err := json.Unmarshal(e.Payload, &payload); err != nil {
			malformed = append(malformed, e.ID)
			continue
		}
		if err := payload.Validate(p.Key.Type); err != nil {
			malformed = append(malformed, e.ID)
			continue
		}
		entries = append(entries, entry{id: e.ID, payload: payload})
	}

	if len(entries) == 0 {
		return domain.PushMessage{}, malformed, domain.ErrMalformedPayload
	}

	if len(entries) == 1 {
		return singular(p.Key, entries[0].payload), malformed, nil
	}
	return grouped(p.Key, entries), malformed, nil
}

func singular(k Key, p domain.EventPayload) domain.PushMessage {
	switch k.Type {
	case domain.EventFollow:
		return domain.PushMessage{
			Title:    "New follower",
			Body:     fmt.Sprintf("%s started following you", p.ActorName),
			DeepLink: DeepLink(k.Type, p),
		}
	case domain.EventComment:
		return domain.PushMessage{
			Title:    "New comment",
			Body:     fmt.Sprintf("%s commented on your video", p.ActorName),
			DeepLink: DeepLink(k.Type, p),
		}
	case domain.EventLike:
		return domain.PushMessage{
			Title:    "New like",
			Body:     fmt.Sprintf("%s liked your video", p.ActorName),
			DeepLink: DeepLink(k.Type, p),
		}
	default: // domain.EventNewVideo
		return domain.PushMessage{
			Title:    "New video",
			Body:     fmt.Sprintf("%s uploaded a new video", p.ActorName),
			DeepLink: DeepLink(k.Type, p),
		}
	}
}

func grouped(k Key, entries []entry) domain.PushMessage {
	n := len(entries)

	switch k.Type {
	case domain.EventFollow:
		return domain.PushMessage{
			Title:    "New followers",
			Body:     fmt.Sprintf("%d new followers", n),
			DeepLink: "/profile/" + k.UserID,
		}

	case domain.EventComment:
		videos := distinctVideos(entries)
		if len(videos) == 1 {
			return domain.PushMessage{
				Title:    "New comments",
				Body:     fmt.Sprintf("%d new comments on your video", n),
				DeepLink: "/video/" + videos[0],
			}
		}
		return domain.PushMessage{
			Title:    "New comments",
			Body:     fmt.Sprintf("%d new comments on %d videos", n, len(videos)),
			DeepLink: "/",
		}

	case domain.EventLike:
		videos := distinctVideos(entries)
		if len(videos) == 1 {
			return domain.PushMessage{
				Title:    "New likes",
				Body:     fmt.Sprintf("%d people liked your video", n),
				DeepLink: "/video/" + videos[0],
			}
		}
		return domain.PushMessage{
			Title:    "New likes",
			Body:     fmt.Sprintf("%d likes on %d videos", n, len(videos)),
			DeepLink: "/",
		}

	default: // domain.EventNewVideo
		actors := distinctActors(entries)
		if len(actors) == 1 {
			return domain.PushMessage{
				Title:    "New videos",
				Body:     fmt.Sprintf("%d new videos from %s", n, entries[0].payload.ActorName),
				DeepLink: "/",
			}
		}
		return domain.PushMessage{
			Title:    "New videos",
			Body:     fmt.Sprintf("%d new videos from %d users", n, len(actors)),
			DeepLink: "/",
		}
	}
}

// DeepLink derives where a notification click should navigate.
// Pure function of type and payload.
func DeepLink(t domain.EventType, p domain.EventPayload) string {
	switch t {
	case domain.EventFollow:
		return "/profile/" + p.ActorID
	case domain.EventComment, domain.EventLike, domain.EventNewVideo:
		return "/video/" + p.VideoID
	}
	return "/"
}

// distinctVideos returns unique video IDs in first-seen order.
func distinctVideos(entries []entry) []string {
	seen := make(map[string]struct{}, len(entries))
	var out []string
	for _, e := range entries {
		if _, ok := seen[e.payload.VideoID]; !ok {
			seen[e.payload.VideoID] = struct{}{}
			out = append(out, e.payload.VideoID)
		}
	}
	return out
}

func distinctActors(entries []entry) []string {
	seen := make(map[string]struct{}, len(entries))
	var out []string
	for _, e := range entries {
		if _, ok := seen[e.payload.ActorID]; !ok {
			seen[e.payload.ActorID] = struct{}{}
			out = append(out, e.payload.ActorID)
		}
	}
	return out
}
