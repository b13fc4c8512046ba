package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custos/internal/audit"
	id "custos/pkg/domain"
)

type fakeSink struct {
	mu        sync.Mutex
	published [][]byte
	keys      []id.ProductID
	failUntil int
	calls     int
}

func (f *fakeSink) Publish(_ context.Context, productID id.ProductID, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failUntil {
		return errors.New("broker unavailable")
	}
	f.keys = append(f.keys, productID)
	f.published = append(f.published, payload)
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

type fakeOutbox struct {
	mu      sync.Mutex
	entries []audit.OutboxEntry
	marked  map[uuid.UUID]bool
}

func newFakeOutbox(entries ...audit.OutboxEntry) *fakeOutbox {
	return &fakeOutbox{entries: entries, marked: make(map[uuid.UUID]bool)}
}

func (f *fakeOutbox) PendingOutbox(_ context.Context, limit int) ([]audit.OutboxEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pending []audit.OutboxEntry
	for _, entry := range f.entries {
		if !f.marked[entry.ID] {
			pending = append(pending, entry)
		}
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (f *fakeOutbox) MarkPublished(_ context.Context, entryID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked[entryID] = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func outboxEntry(seq uint64, productID id.ProductID) audit.OutboxEntry {
	return audit.OutboxEntry{
		ID:        uuid.New(),
		EventSeq:  seq,
		ProductID: productID,
		Kind:      audit.KindStatusUpdated,
		Payload:   fmt.Appendf(nil, `{"seq":%d}`, seq),
	}
}

func TestOutboxWorkerDrainsInOrder(t *testing.T) {
	entries := []audit.OutboxEntry{
		outboxEntry(1, "SN-001"),
		outboxEntry(2, "SN-002"),
		outboxEntry(3, "SN-001"),
	}
	source := newFakeOutbox(entries...)
	sink := &fakeSink{}
	w := NewOutboxWorker(source, sink, discardLogger(), nil, time.Millisecond)

	require.NoError(t, w.drain(context.Background()))

	require.Equal(t, 3, sink.count())
	assert.Equal(t, []id.ProductID{"SN-001", "SN-002", "SN-001"}, sink.keys)
	for _, entry := range entries {
		assert.True(t, source.marked[entry.ID], "entry %d should be marked published", entry.EventSeq)
	}
}

func TestOutboxWorkerStopsBatchOnFailure(t *testing.T) {
	entries := []audit.OutboxEntry{
		outboxEntry(1, "SN-001"),
		outboxEntry(2, "SN-002"),
	}
	source := newFakeOutbox(entries...)
	sink := &fakeSink{failUntil: 1}
	w := NewOutboxWorker(source, sink, discardLogger(), nil, time.Millisecond)

	require.Error(t, w.drain(context.Background()))
	assert.Equal(t, 0, sink.count())
	assert.False(t, source.marked[entries[0].ID])

	// Next tick retries from the first unpublished entry.
	require.NoError(t, w.drain(context.Background()))
	assert.Equal(t, 2, sink.count())
	assert.True(t, source.marked[entries[0].ID])
	assert.True(t, source.marked[entries[1].ID])
}

func TestRelayPublishesChannelEvents(t *testing.T) {
	inbox := make(chan audit.Event, 2)
	sink := &fakeSink{}
	relay := NewRelay(sink, inbox, discardLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	event := audit.NewStatusUpdated("SN-001", id.PartyID(uuid.New()), id.PartyID(uuid.New()), "Shipped", time.Now())
	event.Seq = 7
	inbox <- event

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)

	var decoded audit.Event
	require.NoError(t, json.Unmarshal(sink.published[0], &decoded))
	assert.Equal(t, uint64(7), decoded.Seq)
	assert.Equal(t, audit.KindStatusUpdated, decoded.Kind)
	assert.Equal(t, "Shipped", decoded.Status)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
