package notifier

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yoframe/yo-pipeline/internal/queue"
	"github.com/yoframe/yo-pipeline/internal/repository/kafka"
)

// DefaultPolicy rides out short push-endpoint outages and rate-limit
// windows: three attempts half a minute apart.
var DefaultPolicy = queue.RetryPolicy{Attempts: 3, Backoff: 30 * time.Second}

// Run consumes the bulk-notification queue until ctx is canceled.
func Run(ctx context.Context, c *kafka.Consumer, queueName string, failed queue.FailedStore, h *Handler, log *zap.Logger) error {
	w := &queue.Worker{
		Queue:  queueName,
		Policy: DefaultPolicy,
		Failed: failed,
		Log:    log,
	}
	return c.Consume(ctx, w.Wrap(queue.JSONHandler(h.Handle)))
}
