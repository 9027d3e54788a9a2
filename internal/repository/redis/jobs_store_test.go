package redis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) (*JobStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c := NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return NewJobStore(c), mr
}

func TestJobStoreClaim(t *testing.T) {
	s, mr := testStore(t)
	ctx := context.Background()

	fresh, err := s.Claim(ctx, "onchain", "0xabc-1")
	require.NoError(t, err)
	assert.True(t, fresh)

	again, err := s.Claim(ctx, "onchain", "0xabc-1")
	require.NoError(t, err)
	assert.False(t, again, "same job id must not be claimable twice")

	other, err := s.Claim(ctx, "onchain", "0xabc-2")
	require.NoError(t, err)
	assert.True(t, other, "a different job id is independent")

	crossQueue, err := s.Claim(ctx, "bulk", "0xabc-1")
	require.NoError(t, err)
	assert.True(t, crossQueue, "claims are scoped per queue")

	ttl := mr.TTL("jobs:onchain:id:0xabc-1")
	assert.Equal(t, DedupTTL, ttl)
}

func TestJobStoreRelease(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	_, err := s.Claim(ctx, "onchain", "0xabc-1")
	require.NoError(t, err)
	require.NoError(t, s.Release(ctx, "onchain", "0xabc-1"))

	fresh, err := s.Claim(ctx, "onchain", "0xabc-1")
	require.NoError(t, err)
	assert.True(t, fresh, "released id is claimable again")
}

func TestJobStoreRecordFailed(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	payload := []byte(`{"transactionHash":"0xabc"}`)
	require.NoError(t, s.RecordFailed(ctx, "onchain", "0xabc-1", payload, "boom"))

	failed, err := s.FailedJobs(ctx, "onchain")
	require.NoError(t, err)
	require.Len(t, failed, 1)

	var entry failedJob
	require.NoError(t, json.Unmarshal([]byte(failed["0xabc-1"]), &entry))
	assert.Equal(t, "boom", entry.Cause)
	assert.JSONEq(t, string(payload), string(entry.Payload))
	assert.False(t, entry.FailedAt.IsZero())
}

func TestJobStoreRecordFailedNonJSONPayload(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordFailed(ctx, "bulk", "j1", []byte{0xff, 0xfe}, "bad bytes"))

	failed, err := s.FailedJobs(ctx, "bulk")
	require.NoError(t, err)

	var entry failedJob
	require.NoError(t, json.Unmarshal([]byte(failed["j1"]), &entry))
	assert.Equal(t, "bad bytes", entry.Cause)
}
