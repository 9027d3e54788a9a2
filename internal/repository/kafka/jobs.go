package kafka

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dedup answers whether a job id is fresh for a queue. Claiming an id
// that is already taken means the same job was enqueued before and the
// new enqueue should be dropped. A claim whose publish failed must be
// released, or the redelivered job would be skipped as a duplicate.
type Dedup interface {
	Claim(ctx context.Context, queue, jobID string) (bool, error)
	Release(ctx context.Context, queue, jobID string) error
}

// Publisher is the producer side the queue writes through.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// JobQueue is the enqueue side of one named queue: dedup by job id,
// then publish to the queue's topic keyed by that id. Implements
// queue.Jobs.
type JobQueue struct {
	name     string
	producer Publisher
	dedup    Dedup
	log      *zap.Logger
}

func NewJobQueue(name string, p Publisher, dedup Dedup, log *zap.Logger) *JobQueue {
	if log == nil {
		log = zap.L()
	}
	return &JobQueue{
		name:     name,
		producer: p,
		dedup:    dedup,
		log:      log.With(zap.String("queue", name)),
	}
}

func (q *JobQueue) Enqueue(ctx context.Context, jobID string, payload []byte) error {
	claimed := false
	if jobID == "" {
		jobID = uuid.NewString()
	} else if q.dedup != nil {
		fresh, err := q.dedup.Claim(ctx, q.name, jobID)
		if err != nil {
			return fmt.Errorf("claim %s: %w", jobID, err)
		}
		if !fresh {
			q.log.Debug("duplicate job skipped", zap.String("job_id", jobID))
			return nil
		}
		claimed = true
	}

	if err := q.producer.Publish(ctx, []byte(jobID), payload); err != nil {
		if claimed {
			// Give the claim back so a redelivery of the same job is
			// not dropped as a duplicate. Best effort: on failure the
			// id stays burned until the dedup TTL expires.
			if rerr := q.dedup.Release(ctx, q.name, jobID); rerr != nil {
				q.log.Warn("release claim after failed publish",
					zap.String("job_id", jobID), zap.Error(rerr))
			}
		}
		return fmt.Errorf("enqueue %s: %w", jobID, err)
	}
	return nil
}
