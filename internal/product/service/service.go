// Package service orchestrates the three product operations:
// registration, custody transfer, and verification.
//
// Every mutation runs inside one StoreTx boundary so the snapshot
// change and the audit append commit as a single indivisible unit.
// Preconditions are checked before any write; a failing precondition
// aborts the whole operation with store and log unchanged. Nothing is
// retried internally — retry is the caller's job.
package service

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"custos/internal/audit"
	"custos/internal/guard"
	"custos/internal/product/metrics"
	"custos/internal/product/models"
	id "custos/pkg/domain"
)

//go:generate mockgen -source=service.go -destination=mocks/mock_service.go -package=mocks

// ProductStore owns the current snapshots. Implementations must make
// CreateIfAbsent first-wins and Execute atomic (validate and mutate
// with the record lock held).
type ProductStore interface {
	CreateIfAbsent(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, productID id.ProductID) (*models.Product, error)
	Execute(
		ctx context.Context,
		productID id.ProductID,
		validate func(*models.Product) error,
		mutate func(*models.Product),
	) (*models.Product, error)
}

// AuditPublisher appends committed events to the custody log.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// StoreTx brackets a mutation so store write and audit append commit
// together. The in-memory implementation serializes all mutations
// behind one mutex; the postgres one opens a SQL transaction.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// SnapshotCache is an optional read-through cache for Verify. A nil
// cache is valid; the core never requires one.
type SnapshotCache interface {
	Get(ctx context.Context, productID id.ProductID) (*models.Product, bool)
	Set(ctx context.Context, product *models.Product)
	Invalidate(ctx context.Context, productID id.ProductID)
}

// Service is the write and read surface over the product registry.
type Service struct {
	guard    *guard.Guard
	products ProductStore
	auditLog AuditPublisher
	tx       StoreTx
	cache    SnapshotCache
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

type serviceConfig struct {
	tx      StoreTx
	cache   SnapshotCache
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*serviceConfig)

// WithTx sets the transaction boundary. Defaults to the in-memory
// global serializer.
func WithTx(tx StoreTx) Option {
	return func(c *serviceConfig) { c.tx = tx }
}

// WithCache enables the read-through snapshot cache for Verify.
func WithCache(cache SnapshotCache) Option {
	return func(c *serviceConfig) { c.cache = cache }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

func New(g *guard.Guard, products ProductStore, auditLog AuditPublisher, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.tx == nil {
		cfg.tx = newInMemoryStoreTx()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Service{
		guard:    g,
		products: products,
		auditLog: auditLog,
		tx:       cfg.tx,
		cache:    cfg.cache,
		logger:   cfg.logger,
		metrics:  cfg.metrics,
		tracer:   otel.Tracer("custos/product"),
	}
}

// inMemoryStoreTx serializes every mutating call behind one mutex,
// which is exactly the execution model: a single global sequential
// transaction order, no two mutations ever interleaved.
type inMemoryStoreTx struct {
	mu sync.Mutex
}

func newInMemoryStoreTx() *inMemoryStoreTx {
	return &inMemoryStoreTx{}
}

func (t *inMemoryStoreTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}
