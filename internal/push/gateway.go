package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/petflix/notifier/internal/domain"
)

// GatewaySender delivers push messages by POSTing to the push gateway's
// /send endpoint. The base URL is injected from config so tests can point
// to a local mock.
type GatewaySender struct {
	baseURL    string
	httpClient *http.Client
}

func NewGatewaySender(baseURL string, timeout time.Duration) *GatewaySender {
	return &GatewaySender{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send posts the message to the gateway and expects a 202 Accepted.
// Expired subscriptions surface as 410 Gone, mapped to a plain error:
// the processor treats every Send failure as non-retryable.
func (g *GatewaySender) Send(ctx context.Context, sub *domain.PushSubscription, msg domain.PushMessage) error {
	body, err := json.Marshal(SendRequest{
		Endpoint: sub.Endpoint,
		P256dh:   sub.P256dh,
		Auth:     sub.Auth,
		Title:    msg.Title,
		Body:     msg.Body,
		URL:      msg.DeepLink,
	})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected gateway status: %d", resp.StatusCode)
	}
	return nil
}

// compile-time check that GatewaySender implements Sender
var _ Sender = (*GatewaySender)(nil)
