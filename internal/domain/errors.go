package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidType         = errors.New("invalid event type: must be follow, comment, like, or new_video")
	ErrInvalidRecipient    = errors.New("user_id must not be empty")
	ErrInvalidPayload      = errors.New("payload is missing required fields for its event type")
	ErrInvalidSubscription = errors.New("subscription requires endpoint, p256dh, and auth")
	ErrDuplicateEndpoint   = errors.New("conflict: subscription endpoint already registered")
	ErrMalformedPayload    = errors.New("malformed event payload")
	ErrQueueFull           = errors.New("intake buffer is at capacity, try again later")
)
