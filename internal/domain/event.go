package domain

import (
	"encoding/json"
	"time"
)

// EventType identifies the user action that produced a notification event.
type EventType string

const (
	EventFollow   EventType = "follow"
	EventComment  EventType = "comment"
	EventLike     EventType = "like"
	EventNewVideo EventType = "new_video"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventFollow, EventComment, EventLike, EventNewVideo:
		return true
	}
	return false
}

// EventTypes lists every valid type, in a stable order used for
// per-type stats and tick summaries.
var EventTypes = []EventType{EventFollow, EventComment, EventLike, EventNewVideo}

// QueuedEvent is one raw notification event awaiting digestion.
// A nil SentAt means the row is still pending; once set, the row is
// immutable and excluded from all future grouping scans.
type QueuedEvent struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Type      EventType       `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty"`
}

// Pending reports whether the event is still awaiting a dispatch attempt.
func (e *QueuedEvent) Pending() bool { return e.SentAt == nil }

// EventPayload is the type-specific data carried by an event.
// Which fields are required depends on the event type; see Validate.
// The processor treats the stored payload as opaque until formatting time.
type EventPayload struct {
	ActorID    string `json:"actor_id"`
	ActorName  string `json:"actor_name"`
	VideoID    string `json:"video_id,omitempty"`
	VideoTitle string `json:"video_title,omitempty"`
	CommentID  string `json:"comment_id,omitempty"`
}

// Validate checks that the payload carries the fields the given type's
// phrasing and deep link need.
func (p *EventPayload) Validate(t EventType) error {
	if p.ActorID == "" || p.ActorName == "" {
		return ErrMalformedPayload
	}
	switch t {
	case EventComment, EventLike, EventNewVideo:
		if p.VideoID == "" {
			return ErrMalformedPayload
		}
	}
	return nil
}

// EnqueueRequest is the inbound payload for a single notification event.
type EnqueueRequest struct {
	UserID  string          `json:"user_id"`
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (r *EnqueueRequest) Validate() error {
	if r.UserID == "" {
		return ErrInvalidRecipient
	}
	if !r.Type.IsValid() {
		return ErrInvalidType
	}
	var p EventPayload
	if len(r.Payload) == 0 {
		return ErrInvalidPayload
	}
	if err := json.Unmarshal(r.Payload, &p); err != nil {
		return ErrInvalidPayload
	}
	if err := p.Validate(r.Type); err != nil {
		return ErrInvalidPayload
	}
	return nil
}

// PushSubscription is one browser push endpoint registered by a user.
// A subscription is active while RevokedAt is nil.
type PushSubscription struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Endpoint  string     `json:"endpoint"`
	P256dh    string     `json:"p256dh"`
	Auth      string     `json:"auth"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// CreateSubscriptionRequest is the inbound payload for registering a
// push subscription.
type CreateSubscriptionRequest struct {
	UserID   string `json:"user_id"`
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	if r.UserID == "" {
		return ErrInvalidRecipient
	}
	if r.Endpoint == "" || r.P256dh == "" || r.Auth == "" {
		return ErrInvalidSubscription
	}
	return nil
}

// PushMessage is the formatted notification handed to the push transport.
type PushMessage struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	DeepLink string `json:"deep_link"`
}

// EventStatus filters event listings by delivery state.
type EventStatus string

const (
	StatusPending EventStatus = "pending"
	StatusSent    EventStatus = "sent"
)

func (s EventStatus) IsValid() bool {
	return s == StatusPending || s == StatusSent
}

// ListFilter holds query parameters for paginated event listing.
type ListFilter struct {
	Status *EventStatus
	Type   *EventType
	UserID *string
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}
