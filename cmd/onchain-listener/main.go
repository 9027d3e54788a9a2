package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	config "github.com/yoframe/yo-pipeline/internal/config/onchain-listener"
	"github.com/yoframe/yo-pipeline/internal/obs"
	"github.com/yoframe/yo-pipeline/internal/repository/kafka"
	rd "github.com/yoframe/yo-pipeline/internal/repository/redis"
	"github.com/yoframe/yo-pipeline/internal/services/listener"
)

func main() {
	root, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, err := config.Load("../config/onchain-listener.yaml")
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig("onchain-listener"))
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

	eth, err := ethclient.DialContext(root, cfg.Chain.RPCURL)
	if err != nil {
		l.Fatal("chain rpc connect", zap.Error(err))
	}
	defer eth.Close()

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return rdb.Ping(hctx)
	}, l)

	_ = kafka.EnsureTopic(root, cfg.Out.Brokers, kafka.TopicSpec{Name: cfg.Out.Topic}, l)
	prod := kafka.NewProducer(cfg.Out.Brokers, cfg.Out.Topic).WithLogger(l)
	defer func() { _ = prod.Close() }()

	jobs := kafka.NewJobQueue(cfg.Out.Topic, prod, rd.NewJobStore(rdb), l)
	lst := listener.New(eth, common.HexToAddress(cfg.Chain.ContractAddress), jobs, l)

	errCh := make(chan error, 1)
	go func() { errCh <- lst.Run(root) }()

	select {
	case <-root.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("listener error", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
