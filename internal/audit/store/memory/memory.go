// Package memory holds the in-memory audit log. It favors clarity over
// performance and backs unit tests and single-node deployments.
package memory

import (
	"context"
	"sync"

	"custos/internal/audit"
	id "custos/pkg/domain"
)

// Store is an append-only, in-memory event log. Events keep their
// global append order; per-product and per-owner indexes point into the
// same sequence so filtered reads stay in commit order.
type Store struct {
	mu        sync.RWMutex
	seq       uint64
	events    []audit.Event
	byProduct map[id.ProductID][]int
	byOwner   map[id.PartyID][]int
	subscribe func(audit.Event)
}

type Option func(*Store)

// WithSubscriber registers a callback invoked with each event after it
// is sequenced, in commit order. The Kafka relay feeds its channel from
// here. The callback must not block.
func WithSubscriber(fn func(audit.Event)) Option {
	return func(s *Store) { s.subscribe = fn }
}

func New(opts ...Option) *Store {
	s := &Store{
		byProduct: make(map[id.ProductID][]int),
		byOwner:   make(map[id.PartyID][]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append records the event and assigns its commit sequence number.
func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	event.Seq = s.seq
	idx := len(s.events)
	s.events = append(s.events, event)

	s.byProduct[event.ProductID] = append(s.byProduct[event.ProductID], idx)
	for _, owner := range ownersOf(event) {
		s.byOwner[owner] = append(s.byOwner[owner], idx)
	}
	if s.subscribe != nil {
		s.subscribe(event)
	}
	return nil
}

func (s *Store) ListByProduct(_ context.Context, productID id.ProductID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byProduct[productID]), nil
}

func (s *Store) ListByOwner(_ context.Context, owner id.PartyID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byOwner[owner]), nil
}

func (s *Store) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}

func (s *Store) collect(indexes []int) []audit.Event {
	out := make([]audit.Event, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, s.events[idx])
	}
	return out
}

// ownersOf returns the parties an event should be indexed under.
// Registration indexes the authority (it becomes the first owner);
// transfers index both sides so a party can trace products it handed
// off as well as ones it received.
func ownersOf(event audit.Event) []id.PartyID {
	switch event.Kind {
	case audit.KindProductRegistered:
		return []id.PartyID{event.Authority}
	case audit.KindStatusUpdated:
		if event.OldOwner == event.NewOwner {
			return []id.PartyID{event.OldOwner}
		}
		return []id.PartyID{event.OldOwner, event.NewOwner}
	}
	return nil
}
