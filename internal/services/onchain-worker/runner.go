package onchain_worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yoframe/yo-pipeline/internal/queue"
	"github.com/yoframe/yo-pipeline/internal/repository/kafka"
)

// DefaultPolicy matches the queue's configured retry budget: a second
// attempt after a short fixed pause, then park the job.
var DefaultPolicy = queue.RetryPolicy{Attempts: 2, Backoff: 2 * time.Second}

// Run consumes the onchain-message queue until ctx is canceled.
func Run(ctx context.Context, c *kafka.Consumer, queueName string, failed queue.FailedStore, h *Handler, log *zap.Logger) error {
	w := &queue.Worker{
		Queue:  queueName,
		Policy: DefaultPolicy,
		Failed: failed,
		Log:    log,
	}
	return c.Consume(ctx, w.Wrap(queue.JSONHandler(h.Handle)))
}
