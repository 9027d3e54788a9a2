package queue

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/yoframe/yo-pipeline/internal/obs"
)

// FailedStore retains jobs that exhausted their retry budget so they
// stay inspectable instead of vanishing with the commit.
type FailedStore interface {
	RecordFailed(ctx context.Context, queue, jobID string, payload []byte, cause string) error
}

// RetryPolicy is the per-job retry budget: fixed backoff, bounded
// attempts, matching the queue defaults the workers are configured
// with.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

var (
	jobsDone = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_jobs_done_total", Help: "Jobs that completed successfully.",
	}, []string{"queue"})
	jobsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_jobs_rejected_total", Help: "Jobs terminated by a business rejection.",
	}, []string{"queue"})
	jobsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_jobs_failed_total", Help: "Jobs that exhausted their retry budget.",
	}, []string{"queue"})
	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "queue_job_duration_seconds", Help: "Time spent handling one job, retries included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"queue"})
)

// Worker turns a job Handler into a transport-level message handler:
// it applies the retry policy, distinguishes terminal rejections from
// transient failures, and parks exhausted jobs in the failed store
// after reporting them. The returned func never surfaces a job error
// to the transport; every message reaches a terminal disposition so
// the consumer can commit.
type Worker struct {
	Queue  string
	Policy RetryPolicy
	Failed FailedStore
	Log    *zap.Logger
}

func (w *Worker) Wrap(h Handler) func(ctx context.Context, key, value []byte) error {
	return func(ctx context.Context, key, value []byte) error {
		jobID := string(key)
		log := w.Log.With(zap.String("queue", w.Queue), zap.String("job_id", jobID))

		attempts := w.Policy.Attempts
		if attempts <= 0 {
			attempts = 1
		}
		backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(w.Policy.Backoff))

		start := time.Now()
		var res Result
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			r, herr := h(ctx, jobID, value)
			if herr != nil {
				log.Warn("job attempt failed", zap.Error(herr))
				return retry.RetryableError(herr)
			}
			res = r
			return nil
		})
		jobDuration.WithLabelValues(w.Queue).Observe(time.Since(start).Seconds())

		switch {
		case err == nil && res.Success:
			jobsDone.WithLabelValues(w.Queue).Inc()
			log.Debug("job done")
		case err == nil:
			jobsRejected.WithLabelValues(w.Queue).Inc()
			log.Info("job rejected", zap.String("reason", res.Reason))
		default:
			if ctx.Err() != nil {
				// Shutdown, not a genuine failure: leave the message
				// uncommitted for redelivery.
				return ctx.Err()
			}
			jobsFailed.WithLabelValues(w.Queue).Inc()
			log.Error("job failed, retries exhausted",
				zap.Int("attempts", attempts), zap.Error(err))
			obs.CaptureJobError(w.Queue, jobID, value, err)
			if w.Failed != nil {
				if rerr := w.Failed.RecordFailed(ctx, w.Queue, jobID, value, err.Error()); rerr != nil {
					log.Warn("record failed job", zap.Error(rerr))
				}
			}
		}
		return nil
	}
}
