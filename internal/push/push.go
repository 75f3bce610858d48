package push

import (
	"context"

	"github.com/petflix/notifier/internal/domain"
)

// SendRequest is the JSON body posted to the push gateway for one
// subscription. The gateway owns the Web Push protocol details (VAPID
// signing, payload encryption); this service only hands it the endpoint,
// the client keys, and the rendered message.
type SendRequest struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	URL      string `json:"url"`
}

// SendResponse maps the gateway's 202 Accepted response body.
type SendResponse struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// Sender abstracts delivery to the push gateway.
// Mocking this interface in tests gives full control over delivery
// behaviour without making real HTTP calls.
//
// A returned error is non-retryable within this service: the processor
// logs it and still marks the partition sent (fire-and-forget).
type Sender interface {
	Send(ctx context.Context, sub *domain.PushSubscription, msg domain.PushMessage) error
}
