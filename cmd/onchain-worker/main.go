package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "github.com/yoframe/yo-pipeline/internal/config/onchain-worker"
	idresolve "github.com/yoframe/yo-pipeline/internal/identity"
	"github.com/yoframe/yo-pipeline/internal/obs"
	"github.com/yoframe/yo-pipeline/internal/obs/retry"
	"github.com/yoframe/yo-pipeline/internal/outbox"
	"github.com/yoframe/yo-pipeline/internal/repository/farcaster"
	"github.com/yoframe/yo-pipeline/internal/repository/kafka"
	pg "github.com/yoframe/yo-pipeline/internal/repository/postgres"
	rd "github.com/yoframe/yo-pipeline/internal/repository/redis"
	worker "github.com/yoframe/yo-pipeline/internal/services/onchain-worker"
)

func wire(cfg *config.Config, db *pg.DB, rdb *rd.Client, bulk *kafka.JobQueue, l *zap.Logger) (*outbox.Runner, *worker.Handler) {
	outboxRepo := pg.NewOutboxRepo(db)
	transactor := pg.NewTransactor(db, l)
	locker := pg.NewPairLocker(db)

	dispatch := outbox.MakeGlobalOutboxHandler(bulk, retry.DefaultPublishPolicy(l))
	outboxRunner := outbox.NewOutboxRunner(
		l,
		outboxRepo,
		dispatch,
		cfg.Outbox.Workers,
		cfg.Outbox.BatchSize,
		cfg.Outbox.WaitTime,
		cfg.Outbox.InProgressTTL)

	resolver := idresolve.NewCachedResolver(farcaster.New(cfg.Farcaster), rd.NewIdentityCache(rdb), l)

	h := worker.NewHandler(
		resolver,
		pg.NewUserRepo(db),
		pg.NewMessageRepo(db),
		outboxRepo,
		transactor,
		locker,
		cfg.Worker.Cooldown,
		cfg.Worker.AppURL,
		l)

	return outboxRunner, h
}

func main() {
	root, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, err := config.Load("../config/onchain-worker.yaml")
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig("onchain-worker"))
	if err != nil {
		log.Fatal(err)
	}

	if err := obs.SetupSentry(cfg.Sentry.AsSentryConfig()); err != nil {
		l.Warn("sentry init", zap.Error(err))
	}
	defer obs.FlushSentry()

	otelCloser, err := obs.SetupOTel(root, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	db, err := pg.New(root, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb, err := rd.New(root, cfg.Redis)
	if err != nil {
		l.Fatal("redis connect", zap.Error(err))
	}
	defer func() { _ = rdb.Close() }()

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, l)

	_ = kafka.EnsureTopic(root, cfg.In.Brokers, kafka.TopicSpec{Name: cfg.In.Topic}, l)
	_ = kafka.EnsureTopic(root, cfg.Out.Brokers, kafka.TopicSpec{Name: cfg.Out.Topic}, l)

	cons := kafka.NewConsumer(cfg.In.AsConsumerConfig()).WithLogger(l)
	defer func() { _ = cons.Close() }()

	prod := kafka.NewProducer(cfg.Out.Brokers, cfg.Out.Topic).WithLogger(l)
	defer func() { _ = prod.Close() }()

	jobStore := rd.NewJobStore(rdb)
	bulk := kafka.NewJobQueue(cfg.Out.Topic, prod, jobStore, l)

	outboxRunner, h := wire(cfg, db, rdb, bulk, l)

	outboxRunner.Start(root)
	errCh := make(chan error, 1)
	go func() { errCh <- worker.Run(root, cons, cfg.In.Topic, jobStore, h, l) }()

	select {
	case <-root.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("worker error", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
