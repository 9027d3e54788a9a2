package identity

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yoframe/yo-pipeline/internal/domain/identity"
	rd "github.com/yoframe/yo-pipeline/internal/repository/redis"
)

type fakeDirectory struct {
	byAddr map[string][]identity.Identity
	byFID  map[int64]identity.Identity

	addrCalls [][]string
	fidCalls  [][]int64
}

func (d *fakeDirectory) FetchByAddresses(ctx context.Context, addresses []string) (map[string][]identity.Identity, error) {
	d.addrCalls = append(d.addrCalls, addresses)
	out := map[string][]identity.Identity{}
	for _, a := range addresses {
		if ids, ok := d.byAddr[a]; ok {
			out[a] = ids
		}
	}
	return out, nil
}

func (d *fakeDirectory) FetchByFIDs(ctx context.Context, fids []int64) ([]identity.Identity, error) {
	d.fidCalls = append(d.fidCalls, fids)
	var out []identity.Identity
	for _, fid := range fids {
		if id, ok := d.byFID[fid]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func testResolver(t *testing.T, dir *fakeDirectory) *CachedResolver {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c := rd.NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return NewCachedResolver(dir, rd.NewIdentityCache(c), zap.NewNop())
}

func TestResolveAddresses(t *testing.T) {
	addrLower := "0x1111111111111111111111111111111111111111"
	addr := Checksum(addrLower)
	alice := identity.Identity{FID: 100, Username: "alice", VerifiedAddresses: []string{addr}}

	t.Run("empty input is an empty map", func(t *testing.T) {
		r := testResolver(t, &fakeDirectory{})
		out, err := r.ResolveAddresses(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("miss fetches and caches, hit skips the directory", func(t *testing.T) {
		dir := &fakeDirectory{byAddr: map[string][]identity.Identity{addr: {alice}}}
		r := testResolver(t, dir)

		out, err := r.ResolveAddresses(context.Background(), []string{addrLower})
		require.NoError(t, err)
		require.Len(t, out[addr], 1)
		assert.Equal(t, "alice", out[addr][0].Username)
		assert.Len(t, dir.addrCalls, 1)

		out2, err := r.ResolveAddresses(context.Background(), []string{addrLower})
		require.NoError(t, err)
		assert.Equal(t, out, out2)
		assert.Len(t, dir.addrCalls, 1, "second lookup must be served from cache")
	})

	t.Run("unknown address is omitted and not cached", func(t *testing.T) {
		dir := &fakeDirectory{}
		r := testResolver(t, dir)

		unknown := Checksum("0x2222222222222222222222222222222222222222")
		out, err := r.ResolveAddresses(context.Background(), []string{unknown})
		require.NoError(t, err)
		assert.NotContains(t, out, unknown)

		_, err = r.ResolveAddresses(context.Background(), []string{unknown})
		require.NoError(t, err)
		assert.Len(t, dir.addrCalls, 2, "a miss with no result must not be cached")
	})

	t.Run("duplicate spellings collapse to one canonical lookup", func(t *testing.T) {
		dir := &fakeDirectory{byAddr: map[string][]identity.Identity{addr: {alice}}}
		r := testResolver(t, dir)

		out, err := r.ResolveAddresses(context.Background(), []string{addrLower, addr})
		require.NoError(t, err)
		assert.Len(t, out, 1)
		require.Len(t, dir.addrCalls, 1)
		assert.Len(t, dir.addrCalls[0], 1)
	})
}

func TestResolveFIDs(t *testing.T) {
	alice := identity.Identity{FID: 100, Username: "alice"}
	bob := identity.Identity{FID: 200, Username: "bob"}

	t.Run("fetches misses and serves hits from cache", func(t *testing.T) {
		dir := &fakeDirectory{byFID: map[int64]identity.Identity{100: alice, 200: bob}}
		r := testResolver(t, dir)

		out, err := r.ResolveFIDs(context.Background(), []int64{100})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "alice", out[0].Username)

		out, err = r.ResolveFIDs(context.Background(), []int64{100, 200})
		require.NoError(t, err)
		require.Len(t, out, 2)
		require.Len(t, dir.fidCalls, 2)
		assert.Equal(t, []int64{200}, dir.fidCalls[1], "only the miss goes to the directory")
	})

	t.Run("unknown fids are omitted", func(t *testing.T) {
		r := testResolver(t, &fakeDirectory{})
		out, err := r.ResolveFIDs(context.Background(), []int64{42})
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}
