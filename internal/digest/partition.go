package digest

import (
	"sort"

	"github.com/petflix/notifier/internal/domain"
)

// Key identifies a partition: all eligible events sharing the same
// recipient and event type are summarized into one push message.
// Events are never merged across users or across types.
type Key struct {
	UserID string
	Type   domain.EventType
}

// Partition is the set of events behind one potential digest.
type Partition struct {
	Key    Key
	Events []*domain.QueuedEvent
}

// IDs returns the row IDs of every event in the partition,
// in the partition's event order.
func (p *Partition) IDs() []string {
	ids := make([]string, len(p.Events))
	for i, e := range p.Events {
		ids[i] = e.ID
	}
	return ids
}

// oldest returns the earliest CreatedAt in the partition.
// Group guarantees at least one event per partition.
func (p *Partition) oldest() int64 {
	min := p.Events[0].CreatedAt.UnixNano()
	for _, e := range p.Events[1:] {
		if t := e.CreatedAt.UnixNano(); t < min {
			min = t
		}
	}
	return min
}

// Group partitions events by (recipient, type). Within a partition events
// keep their input order; partitions are ordered by the earliest event they
// contain so dispatch order is deterministic across ticks.
func Group(events []*domain.QueuedEvent) []Partition {
	byKey := make(map[Key]*Partition)
	var order []Key

	for _, e := range events {
		k := Key{UserID: e.UserID, Type: e.Type}
		p, ok := byKey[k]
		if !ok {
			p = &Partition{Key: k}
			byKey[k] = p
			order = append(order, k)
		}
		p.Events = append(p.Events, e)
	}

	result := make([]Partition, 0, len(order))
	for _, k := range order {
		result = append(result, *byKey[k])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].oldest() < result[j].oldest()
	})
	return result
}
