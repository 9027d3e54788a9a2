package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DedupTTL bounds how long a claimed job id blocks duplicate enqueues.
// Long enough to cover any realistic chain reorg or redelivery window.
const DedupTTL = 24 * time.Hour

const (
	jobIDKeyFmt   = "jobs:%s:id:%s"
	jobsFailedFmt = "jobs:%s:failed"
	failedHashTTL = 7 * 24 * time.Hour
)

// JobStore backs queue deduplication and failed-job retention.
type JobStore struct {
	rdb *redis.Client
}

func NewJobStore(c *Client) *JobStore {
	return &JobStore{rdb: c.rdb}
}

// Claim atomically claims a job id for the given queue. It returns
// false when the id was already claimed, which callers treat as a
// duplicate enqueue and skip.
func (s *JobStore) Claim(ctx context.Context, queue, jobID string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, fmt.Sprintf(jobIDKeyFmt, queue, jobID), 1, DedupTTL).Result()
	if err != nil {
		return false, fmt.Errorf("claim job id: %w", err)
	}
	return ok, nil
}

// Release frees a claimed job id so the same job may be enqueued again.
func (s *JobStore) Release(ctx context.Context, queue, jobID string) error {
	if err := s.rdb.Del(ctx, fmt.Sprintf(jobIDKeyFmt, queue, jobID)).Err(); err != nil {
		return fmt.Errorf("release job id: %w", err)
	}
	return nil
}

type failedJob struct {
	Payload  json.RawMessage `json:"payload"`
	Cause    string          `json:"cause"`
	FailedAt time.Time       `json:"failedAt"`
}

// RecordFailed parks a job that exhausted its retry budget in a
// per-queue hash keyed by job id, so operators can inspect and replay
// it. Implements queue.FailedStore.
func (s *JobStore) RecordFailed(ctx context.Context, queue, jobID string, payload []byte, cause string) error {
	entry := failedJob{Cause: cause, FailedAt: time.Now().UTC()}
	if json.Valid(payload) {
		entry.Payload = payload
	} else {
		raw, _ := json.Marshal(string(payload))
		entry.Payload = raw
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal failed job: %w", err)
	}

	key := fmt.Sprintf(jobsFailedFmt, queue)
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, key, jobID, b)
	pipe.Expire(ctx, key, failedHashTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record failed job: %w", err)
	}
	return nil
}

// FailedJobs returns the retained failed jobs of a queue keyed by
// job id.
func (s *JobStore) FailedJobs(ctx context.Context, queue string) (map[string]string, error) {
	m, err := s.rdb.HGetAll(ctx, fmt.Sprintf(jobsFailedFmt, queue)).Result()
	if err != nil {
		return nil, fmt.Errorf("list failed jobs: %w", err)
	}
	return m, nil
}
