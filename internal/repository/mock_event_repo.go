package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/petflix/notifier/internal/domain"
)

// MockEventRepository is a hand-written, in-memory implementation of
// EventRepository used in unit tests. No mock-generation library needed.
type MockEventRepository struct {
	mu     sync.RWMutex
	events map[string]*domain.QueuedEvent

	// Optional error overrides, set in tests to simulate failure paths.
	CreateErr      error
	FindPendingErr error
	MarkSentErr    error
}

func NewMockEventRepository() *MockEventRepository {
	return &MockEventRepository{events: make(map[string]*domain.QueuedEvent)}
}

func (m *MockEventRepository) Create(_ context.Context, e *domain.QueuedEvent) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *e
	m.events[e.ID] = &clone
	return nil
}

func (m *MockEventRepository) GetByID(_ context.Context, id string) (*domain.QueuedEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *e
	return &clone, nil
}

func (m *MockEventRepository) List(_ context.Context, _ domain.ListFilter) ([]*domain.QueuedEvent, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.QueuedEvent, 0, len(m.events))
	for _, e := range m.events {
		clone := *e
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, len(result), nil
}

func (m *MockEventRepository) FindPending(_ context.Context, cutoff time.Time) ([]*domain.QueuedEvent, error) {
	if m.FindPendingErr != nil {
		return nil, m.FindPendingErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.QueuedEvent
	for _, e := range m.events {
		if e.SentAt == nil && !e.CreatedAt.After(cutoff) {
			clone := *e
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *MockEventRepository) MarkSent(_ context.Context, ids []string, sentAt time.Time) error {
	if m.MarkSentErr != nil {
		return m.MarkSentErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if e, ok := m.events[id]; ok && e.SentAt == nil {
			t := sentAt
			e.SentAt = &t
		}
	}
	return nil
}

func (m *MockEventRepository) CountPending(_ context.Context) (map[domain.EventType]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[domain.EventType]int)
	for _, e := range m.events {
		if e.SentAt == nil {
			counts[e.Type]++
		}
	}
	return counts, nil
}

func (m *MockEventRepository) DeleteSentBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, e := range m.events {
		if e.SentAt != nil && e.SentAt.Before(cutoff) {
			delete(m.events, id)
			removed++
		}
	}
	return removed, nil
}
