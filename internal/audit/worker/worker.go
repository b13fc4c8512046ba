// Package worker drains committed audit events toward Kafka.
//
// Two variants cover the two deployments: the OutboxWorker polls the
// postgres outbox table (transactional outbox), the Relay consumes a
// channel fed by the in-memory log. Both publish through the same Sink
// so tests can swap Kafka out.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"custos/internal/audit"
	"custos/internal/audit/metrics"
	id "custos/pkg/domain"
)

// Sink publishes one serialized event, keyed by product id.
type Sink interface {
	Publish(ctx context.Context, productID id.ProductID, payload []byte) error
}

// OutboxSource exposes the pending side of the transactional outbox.
type OutboxSource interface {
	PendingOutbox(ctx context.Context, limit int) ([]audit.OutboxEntry, error)
	MarkPublished(ctx context.Context, entryID uuid.UUID) error
}

const defaultBatchSize = 100

// OutboxWorker relays committed outbox rows to the sink in commit
// order. A row is marked published only after the sink accepted it, so
// a crash between the two yields at-least-once delivery; consumers
// dedupe on Seq.
type OutboxWorker struct {
	source   OutboxSource
	sink     Sink
	logger   *slog.Logger
	metrics  *metrics.Metrics
	interval time.Duration
	batch    int
}

func NewOutboxWorker(source OutboxSource, sink Sink, logger *slog.Logger, m *metrics.Metrics, interval time.Duration) *OutboxWorker {
	return &OutboxWorker{
		source:   source,
		sink:     sink,
		logger:   logger,
		metrics:  m,
		interval: interval,
		batch:    defaultBatchSize,
	}
}

// Run polls until ctx is cancelled. Publish failures stop the current
// batch (preserving order) and are retried on the next tick.
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drain(ctx); err != nil {
				w.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

func (w *OutboxWorker) drain(ctx context.Context) error {
	entries, err := w.source.PendingOutbox(ctx, w.batch)
	if err != nil {
		return err
	}
	w.metrics.SetOutboxPending(len(entries))

	for _, entry := range entries {
		if err := w.sink.Publish(ctx, entry.ProductID, entry.Payload); err != nil {
			w.metrics.IncrementFailures()
			return err
		}
		if err := w.source.MarkPublished(ctx, entry.ID); err != nil {
			return err
		}
		w.metrics.IncrementPublished()
	}
	return nil
}

// Relay consumes committed events from a channel and publishes them.
// It serves the in-memory deployment, where the log itself is the
// source of truth and Kafka is a best-effort fan-out.
type Relay struct {
	sink    Sink
	inbox   <-chan audit.Event
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewRelay(sink Sink, inbox <-chan audit.Event, logger *slog.Logger, m *metrics.Metrics) *Relay {
	return &Relay{sink: sink, inbox: inbox, logger: logger, metrics: m}
}

func (r *Relay) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-r.inbox:
			payload, err := json.Marshal(event)
			if err != nil {
				r.logger.ErrorContext(ctx, "marshal audit event", "error", err, "seq", event.Seq)
				continue
			}
			if err := r.sink.Publish(ctx, event.ProductID, payload); err != nil {
				r.metrics.IncrementFailures()
				r.logger.ErrorContext(ctx, "publish audit event", "error", err, "seq", event.Seq)
				continue
			}
			r.metrics.IncrementPublished()
		}
	}
}
