package audit

import (
	"context"
	"time"

	id "custos/pkg/domain"
)

// Store is the append-only persistence behind the Publisher. Append
// assigns the commit sequence number; queries return events in strict
// Seq order.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByProduct(ctx context.Context, productID id.ProductID) ([]Event, error)
	ListByOwner(ctx context.Context, owner id.PartyID) ([]Event, error)
	ListAll(ctx context.Context) ([]Event, error)
}

// Publisher captures custody events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return p.store.Append(ctx, event)
}

// ListByProduct returns the committed events for one product, oldest
// first. Replaying them reconstructs its full custody chain.
func (p *Publisher) ListByProduct(ctx context.Context, productID id.ProductID) ([]Event, error) {
	return p.store.ListByProduct(ctx, productID)
}

// ListByOwner returns the transfer events a party appears in, as old or
// new owner, oldest first.
func (p *Publisher) ListByOwner(ctx context.Context, owner id.PartyID) ([]Event, error) {
	return p.store.ListByOwner(ctx, owner)
}
