package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	rd "github.com/yoframe/yo-pipeline/internal/repository/redis"
)

type memPublisher struct {
	keys   []string
	values [][]byte
	err    error
}

func (p *memPublisher) Publish(ctx context.Context, key, value []byte) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, string(key))
	p.values = append(p.values, value)
	return nil
}

func testJobQueue(t *testing.T) (*JobQueue, *memPublisher) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c := rd.NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })

	pub := &memPublisher{}
	return NewJobQueue("onchain", pub, rd.NewJobStore(c), zap.NewNop()), pub
}

func TestJobQueueEnqueue(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes keyed by job id", func(t *testing.T) {
		q, pub := testJobQueue(t)
		require.NoError(t, q.Enqueue(ctx, "0xabc-1", []byte("payload")))
		require.Len(t, pub.keys, 1)
		assert.Equal(t, "0xabc-1", pub.keys[0])
		assert.Equal(t, []byte("payload"), pub.values[0])
	})

	t.Run("duplicate job id is a silent no-op", func(t *testing.T) {
		q, pub := testJobQueue(t)
		require.NoError(t, q.Enqueue(ctx, "0xabc-1", []byte("payload")))
		require.NoError(t, q.Enqueue(ctx, "0xabc-1", []byte("payload")))
		assert.Len(t, pub.keys, 1)
	})

	t.Run("failed publish releases the claim for redelivery", func(t *testing.T) {
		q, pub := testJobQueue(t)
		pub.err = errors.New("broker unavailable")
		require.Error(t, q.Enqueue(ctx, "0xabc-1", []byte("payload")))

		pub.err = nil
		require.NoError(t, q.Enqueue(ctx, "0xabc-1", []byte("payload")))
		require.Len(t, pub.keys, 1)
		assert.Equal(t, "0xabc-1", pub.keys[0])
	})

	t.Run("empty job id gets a random identity and no dedup", func(t *testing.T) {
		q, pub := testJobQueue(t)
		require.NoError(t, q.Enqueue(ctx, "", []byte("a")))
		require.NoError(t, q.Enqueue(ctx, "", []byte("b")))
		require.Len(t, pub.keys, 2)
		assert.NotEmpty(t, pub.keys[0])
		assert.NotEqual(t, pub.keys[0], pub.keys[1])
	})
}
