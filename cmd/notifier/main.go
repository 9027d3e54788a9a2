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

	config "github.com/yoframe/yo-pipeline/internal/config/notifier"
	"github.com/yoframe/yo-pipeline/internal/notify"
	"github.com/yoframe/yo-pipeline/internal/obs"
	"github.com/yoframe/yo-pipeline/internal/repository/kafka"
	rd "github.com/yoframe/yo-pipeline/internal/repository/redis"
	"github.com/yoframe/yo-pipeline/internal/services/notifier"
)

func main() {
	root, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, err := config.Load("../config/notifier.yaml")
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig("notifier"))
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

	rdb, err := rd.New(root, cfg.Redis)
	if err != nil {
		l.Fatal("redis connect", zap.Error(err))
	}
	defer func() { _ = rdb.Close() }()

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return rdb.Ping(hctx)
	}, l)

	_ = kafka.EnsureTopic(root, cfg.In.Brokers, kafka.TopicSpec{Name: cfg.In.Topic}, l)
	cons := kafka.NewConsumer(cfg.In.AsConsumerConfig()).WithLogger(l)
	defer func() { _ = cons.Close() }()

	h := notifier.NewHandler(notify.NewPushSender(cfg.Push.Timeout), l)

	errCh := make(chan error, 1)
	go func() { errCh <- notifier.Run(root, cons, cfg.In.Topic, rd.NewJobStore(rdb), h, l) }()

	select {
	case <-root.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("notifier error", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
