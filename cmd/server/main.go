// Command server runs the custos product custody registry.
//
// With DATABASE_URL set it persists to Postgres and relays audit events
// to Kafka through the transactional outbox; without it everything runs
// in memory and Kafka fan-out (if configured) is best effort.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"custos/internal/audit"
	audithandler "custos/internal/audit/handler"
	"custos/internal/audit/kafka"
	auditmetrics "custos/internal/audit/metrics"
	auditmem "custos/internal/audit/store/memory"
	auditpg "custos/internal/audit/store/postgres"
	"custos/internal/audit/worker"
	"custos/internal/guard"
	"custos/internal/platform/config"
	"custos/internal/platform/httpserver"
	"custos/internal/platform/logger"
	"custos/internal/platform/postgres"
	"custos/internal/platform/redisclient"
	"custos/internal/platform/token"
	"custos/internal/product/cache"
	producthandler "custos/internal/product/handler"
	productmetrics "custos/internal/product/metrics"
	"custos/internal/product/service"
	productstore "custos/internal/product/store/product"
	"custos/internal/server"
	txcontext "custos/pkg/platform/tx"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	authority, err := cfg.Authority()
	if err != nil {
		return err
	}

	group, ctx := errgroup.WithContext(ctx)

	var sink worker.Sink
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.New(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer producer.Close()
		sink = producer
	}
	auditMetrics := auditmetrics.New()

	var (
		products  service.ProductStore
		auditLog  *audit.Publisher
		extraOpts []service.Option
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		auditStore := auditpg.New(db)
		products = productstore.NewPostgres(db)
		auditLog = audit.NewPublisher(auditStore)
		extraOpts = append(extraOpts, service.WithTx(txcontext.NewRunner(db, 5*time.Second)))

		if sink != nil {
			outbox := worker.NewOutboxWorker(auditStore, sink, log, auditMetrics, cfg.OutboxInterval)
			group.Go(func() error { return ignoreCancel(outbox.Run(ctx)) })
		}
	} else {
		log.Info("no DATABASE_URL configured, using in-memory stores")
		var storeOpts []auditmem.Option
		if sink != nil {
			inbox := make(chan audit.Event, 256)
			storeOpts = append(storeOpts, auditmem.WithSubscriber(func(event audit.Event) {
				select {
				case inbox <- event:
				default:
					log.Warn("audit relay inbox full, dropping event", "seq", event.Seq)
				}
			}))
			relay := worker.NewRelay(sink, inbox, log, auditMetrics)
			group.Go(func() error { return ignoreCancel(relay.Run(ctx)) })
		}
		products = productstore.NewInMemory()
		auditLog = audit.NewPublisher(auditmem.New(storeOpts...))
	}

	if cfg.RedisURL != "" {
		client, err := redisclient.Open(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		extraOpts = append(extraOpts, service.WithCache(cache.NewSnapshot(client, cfg.CacheTTL, log)))
	}

	svc := service.New(
		guard.New(authority, products),
		products,
		auditLog,
		append(extraOpts,
			service.WithLogger(log),
			service.WithMetrics(productmetrics.New()),
		)...,
	)

	tokens := token.NewManager([]byte(cfg.TokenSecret), cfg.TokenTTL)
	router := server.NewRouter(server.Deps{
		Logger:   log,
		Products: producthandler.New(svc, log),
		Audit:    audithandler.New(auditLog),
		Tokens:   tokens,
	})

	srv := httpserver.New(cfg.Addr, router)
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr, "authority", authority.String())
		return srv.Run(ctx, cfg.ShutdownTimeout)
	})

	return group.Wait()
}

// ignoreCancel turns the context cancellation that ends a worker loop
// into a clean exit so shutdown is not reported as a failure.
func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
