package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/petflix/notifier/internal/domain"
)

// MockSubscriptionRepository is an in-memory SubscriptionRepository for tests.
type MockSubscriptionRepository struct {
	mu   sync.RWMutex
	subs map[string]*domain.PushSubscription

	// Optional error override for the processor's lookup path.
	ActiveByUserErr error
}

func NewMockSubscriptionRepository() *MockSubscriptionRepository {
	return &MockSubscriptionRepository{subs: make(map[string]*domain.PushSubscription)}
}

func (m *MockSubscriptionRepository) Create(_ context.Context, s *domain.PushSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.subs {
		if existing.Endpoint == s.Endpoint && existing.RevokedAt == nil {
			return domain.ErrDuplicateEndpoint
		}
	}
	clone := *s
	m.subs[s.ID] = &clone
	return nil
}

func (m *MockSubscriptionRepository) Revoke(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok || s.RevokedAt != nil {
		return domain.ErrNotFound
	}
	now := time.Now().UTC()
	s.RevokedAt = &now
	return nil
}

func (m *MockSubscriptionRepository) ActiveByUser(_ context.Context, userID string) ([]*domain.PushSubscription, error) {
	if m.ActiveByUserErr != nil {
		return nil, m.ActiveByUserErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.PushSubscription
	for _, s := range m.subs {
		if s.UserID == userID && s.RevokedAt == nil {
			clone := *s
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}
