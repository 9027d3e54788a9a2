package queue

import (
	"context"
	"encoding/json"

	"github.com/yoframe/yo-pipeline/internal/domain/jobs"
)

// Jobs is the enqueue side of a durable job queue. A non-empty jobID
// is the dedup identity: enqueueing an id that was already claimed is
// a no-op. An empty jobID gets a random identity and is never deduped.
type Jobs interface {
	Enqueue(ctx context.Context, jobID string, payload []byte) error
}

// Result is the terminal outcome of a job. Business rejections
// (attribution failure, cooldown) are results, not errors: redelivery
// cannot change them, so they must not feed the retry policy.
type Result struct {
	Success bool
	Reason  string
}

func OK() Result { return Result{Success: true} }

func Rejected(reason string) Result { return Result{Reason: reason} }

// Handler processes one job. A returned error is transient and
// retried; a Result is final.
type Handler func(ctx context.Context, jobID string, payload []byte) (Result, error)

// JSONHandler decodes and validates a typed job payload before
// handing it to handle. Undecodable or invalid payloads are terminal:
// the bytes will never become valid on redelivery.
func JSONHandler[J jobs.Job](handle func(ctx context.Context, jobID string, job J) (Result, error)) Handler {
	return func(ctx context.Context, jobID string, payload []byte) (Result, error) {
		var j J
		if err := json.Unmarshal(payload, &j); err != nil {
			return Rejected("malformed payload: " + err.Error()), nil
		}
		if err := j.Validate(); err != nil {
			return Rejected("invalid payload: " + err.Error()), nil
		}
		return handle(ctx, jobID, j)
	}
}
