package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/yoframe/yo-pipeline/internal/queue"
)

// ChainClient is the subset of the RPC client the listener needs.
type ChainClient interface {
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
}

var (
	eventsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listener_events_enqueued_total", Help: "Decoded transfer events handed to the queue.",
	})
	eventsMalformed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listener_events_malformed_total", Help: "Contract logs that did not decode.",
	})
	resubscribes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listener_resubscribes_total", Help: "Times the log subscription was re-established.",
	})
)

// Listener subscribes to the contract's transfer events and enqueues
// one job per log. The subscription is re-established with backoff
// whenever it drops; missed logs during the gap are covered by the
// queue's dedup identity if the node replays them.
type Listener struct {
	eth      ChainClient
	contract common.Address
	jobs     queue.Jobs
	log      *zap.Logger
}

func New(eth ChainClient, contract common.Address, jobs queue.Jobs, log *zap.Logger) *Listener {
	if log == nil {
		log = zap.L()
	}
	return &Listener{
		eth:      eth,
		contract: contract,
		jobs:     jobs,
		log:      log.With(zap.String("component", "listener"), zap.String("contract", contract.Hex())),
	}
}

// Run blocks until ctx is canceled.
func (l *Listener) Run(ctx context.Context) error {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := l.subscribeOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		resubscribes.Inc()
		l.log.Warn("subscription dropped; resubscribing",
			zap.Error(err), zap.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < maxBackoff {
			backoff *= 2
		}
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (l *Listener) subscribeOnce(ctx context.Context) error {
	logs := make(chan types.Log, 64)
	sub, err := l.eth.SubscribeFilterLogs(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{l.contract},
		Topics:    [][]common.Hash{{YoEventSig}},
	}, logs)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()
	l.log.Info("subscribed to transfer events")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return err
		case lg := <-logs:
			l.handleLog(ctx, lg)
		}
	}
}

func (l *Listener) handleLog(ctx context.Context, lg types.Log) {
	if lg.Removed {
		// reorged-out log; the canonical block will re-deliver it
		return
	}

	job, err := DecodeLog(lg)
	if err != nil {
		eventsMalformed.Inc()
		l.log.Warn("malformed contract log skipped",
			zap.String("tx", lg.TxHash.Hex()), zap.Uint("log_index", lg.Index), zap.Error(err))
		return
	}

	payload, err := json.Marshal(job)
	if err != nil {
		l.log.Error("marshal job", zap.Error(err))
		return
	}
	if err := l.jobs.Enqueue(ctx, job.JobID(), payload); err != nil {
		l.log.Error("enqueue transfer event",
			zap.String("job_id", job.JobID()), zap.Error(err))
		return
	}
	eventsEnqueued.Inc()
	l.log.Debug("transfer event enqueued", zap.String("job_id", job.JobID()))
}
