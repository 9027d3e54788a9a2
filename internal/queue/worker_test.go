package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yoframe/yo-pipeline/internal/domain/jobs"
)

type failedRecord struct {
	queue, jobID, cause string
	payload             []byte
}

type memFailedStore struct {
	records []failedRecord
}

func (s *memFailedStore) RecordFailed(ctx context.Context, queue, jobID string, payload []byte, cause string) error {
	s.records = append(s.records, failedRecord{queue: queue, jobID: jobID, payload: payload, cause: cause})
	return nil
}

func testWorker(failed FailedStore) *Worker {
	return &Worker{
		Queue:  "test",
		Policy: RetryPolicy{Attempts: 3, Backoff: time.Millisecond},
		Failed: failed,
		Log:    zap.NewNop(),
	}
}

func TestWorkerWrap(t *testing.T) {
	ctx := context.Background()

	t.Run("success commits without retrying", func(t *testing.T) {
		calls := 0
		h := func(ctx context.Context, jobID string, payload []byte) (Result, error) {
			calls++
			return OK(), nil
		}
		err := testWorker(nil).Wrap(h)(ctx, []byte("j1"), []byte("{}"))
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("rejection is terminal, not retried", func(t *testing.T) {
		store := &memFailedStore{}
		calls := 0
		h := func(ctx context.Context, jobID string, payload []byte) (Result, error) {
			calls++
			return Rejected("cooldown active"), nil
		}
		err := testWorker(store).Wrap(h)(ctx, []byte("j1"), []byte("{}"))
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Empty(t, store.records)
	})

	t.Run("transient errors retry up to the budget then park the job", func(t *testing.T) {
		store := &memFailedStore{}
		calls := 0
		h := func(ctx context.Context, jobID string, payload []byte) (Result, error) {
			calls++
			return Result{}, errors.New("push endpoint down")
		}
		err := testWorker(store).Wrap(h)(ctx, []byte("j1"), []byte(`{"x":1}`))
		require.NoError(t, err, "exhausted jobs must still commit")
		assert.Equal(t, 3, calls)

		require.Len(t, store.records, 1)
		rec := store.records[0]
		assert.Equal(t, "test", rec.queue)
		assert.Equal(t, "j1", rec.jobID)
		assert.Equal(t, []byte(`{"x":1}`), rec.payload)
		assert.Contains(t, rec.cause, "push endpoint down")
	})

	t.Run("recovery mid-retry succeeds", func(t *testing.T) {
		store := &memFailedStore{}
		calls := 0
		h := func(ctx context.Context, jobID string, payload []byte) (Result, error) {
			calls++
			if calls < 2 {
				return Result{}, errors.New("flaky")
			}
			return OK(), nil
		}
		err := testWorker(store).Wrap(h)(ctx, []byte("j1"), []byte("{}"))
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
		assert.Empty(t, store.records)
	})

	t.Run("shutdown surfaces the context error", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		h := func(ctx context.Context, jobID string, payload []byte) (Result, error) {
			cancel()
			return Result{}, errors.New("interrupted")
		}
		err := testWorker(nil).Wrap(h)(cctx, []byte("j1"), []byte("{}"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestJSONHandler(t *testing.T) {
	ctx := context.Background()

	handled := 0
	h := JSONHandler(func(ctx context.Context, jobID string, job jobs.OnchainMessage) (Result, error) {
		handled++
		return OK(), nil
	})

	t.Run("valid payload reaches the handler", func(t *testing.T) {
		res, err := h(ctx, "j1", []byte(`{"transactionHash":"0xabc","logIndex":1,"fromAddress":"0x1","toAddress":"0x2","amount":"10"}`))
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, 1, handled)
	})

	t.Run("malformed payload is a terminal rejection", func(t *testing.T) {
		res, err := h(ctx, "j1", []byte("not json"))
		require.NoError(t, err)
		assert.False(t, res.Success)
	})

	t.Run("invalid payload is a terminal rejection", func(t *testing.T) {
		res, err := h(ctx, "j1", []byte(`{"transactionHash":""}`))
		require.NoError(t, err)
		assert.False(t, res.Success)
	})
}
