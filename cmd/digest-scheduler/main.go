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

	config "github.com/yoframe/yo-pipeline/internal/config/digest-scheduler"
	idresolve "github.com/yoframe/yo-pipeline/internal/identity"
	"github.com/yoframe/yo-pipeline/internal/obs"
	"github.com/yoframe/yo-pipeline/internal/repository/farcaster"
	"github.com/yoframe/yo-pipeline/internal/repository/kafka"
	pg "github.com/yoframe/yo-pipeline/internal/repository/postgres"
	rd "github.com/yoframe/yo-pipeline/internal/repository/redis"
	"github.com/yoframe/yo-pipeline/internal/services/digest"
)

func main() {
	root, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, err := config.Load("../config/digest-scheduler.yaml")
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig("digest-scheduler"))
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

	_ = kafka.EnsureTopic(root, cfg.Out.Brokers, kafka.TopicSpec{Name: cfg.Out.Topic}, l)
	prod := kafka.NewProducer(cfg.Out.Brokers, cfg.Out.Topic).WithLogger(l)
	defer func() { _ = prod.Close() }()

	bulk := kafka.NewJobQueue(cfg.Out.Topic, prod, rd.NewJobStore(rdb), l)
	resolver := idresolve.NewCachedResolver(farcaster.New(cfg.Farcaster), rd.NewIdentityCache(rdb), l)

	svc := digest.NewService(pg.NewUserRepo(db), pg.NewMessageRepo(db), resolver, bulk, cfg.Digest.AppURL, l)
	runner := digest.NewRunner(svc, cfg.Digest.Interval, l)

	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(root) }()

	select {
	case <-root.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("digest runner error", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
