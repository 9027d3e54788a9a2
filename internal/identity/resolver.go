package identity

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/yoframe/yo-pipeline/internal/domain/identity"
)

// AddressCache holds resolved identity candidates keyed by
// checksummed address, and single identities keyed by fid.
type AddressCache interface {
	GetByAddresses(ctx context.Context, addrs []string) (map[string][]identity.Identity, error)
	SetByAddresses(ctx context.Context, byAddr map[string][]identity.Identity) error
	GetByFIDs(ctx context.Context, fids []int64) (map[int64]identity.Identity, error)
	SetByFIDs(ctx context.Context, byFID map[int64]identity.Identity) error
}

// CachedResolver resolves wallet addresses and fids to Farcaster
// identities, consulting the cache first and bulk-fetching only the
// misses from the directory. Cache write failures degrade to uncached
// lookups, never to resolution failures.
type CachedResolver struct {
	dir   identity.Directory
	cache AddressCache
	log   *zap.Logger
}

func NewCachedResolver(dir identity.Directory, cache AddressCache, log *zap.Logger) *CachedResolver {
	if log == nil {
		log = zap.L()
	}
	return &CachedResolver{dir: dir, cache: cache, log: log.With(zap.String("component", "identity.resolver"))}
}

// Checksum canonicalizes an address to its EIP-55 form. All cache keys
// and resolver inputs use this form.
func Checksum(addr string) string {
	return common.HexToAddress(addr).Hex()
}

func (r *CachedResolver) ResolveAddresses(ctx context.Context, addresses []string) (map[string][]identity.Identity, error) {
	if len(addresses) == 0 {
		return map[string][]identity.Identity{}, nil
	}

	canonical := make([]string, 0, len(addresses))
	seen := make(map[string]struct{}, len(addresses))
	for _, a := range addresses {
		c := Checksum(a)
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		canonical = append(canonical, c)
	}

	out, err := r.cache.GetByAddresses(ctx, canonical)
	if err != nil {
		r.log.Warn("identity cache read failed", zap.Error(err))
		out = map[string][]identity.Identity{}
	}

	var misses []string
	for _, a := range canonical {
		if _, ok := out[a]; !ok {
			misses = append(misses, a)
		}
	}
	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := r.dir.FetchByAddresses(ctx, misses)
	if err != nil {
		return nil, fmt.Errorf("directory lookup: %w", err)
	}
	for addr, ids := range fetched {
		c := Checksum(addr)
		if len(ids) == 0 {
			continue
		}
		identity.SortByFID(ids)
		out[c] = ids
	}

	writeBack := make(map[string][]identity.Identity, len(misses))
	for _, a := range misses {
		if ids, ok := out[a]; ok {
			writeBack[a] = ids
		}
	}
	if err := r.cache.SetByAddresses(ctx, writeBack); err != nil {
		r.log.Warn("identity cache write failed", zap.Error(err))
	}

	return out, nil
}

func (r *CachedResolver) ResolveFIDs(ctx context.Context, fids []int64) ([]identity.Identity, error) {
	if len(fids) == 0 {
		return nil, nil
	}

	unique := make([]int64, 0, len(fids))
	seen := make(map[int64]struct{}, len(fids))
	for _, fid := range fids {
		if _, dup := seen[fid]; dup {
			continue
		}
		seen[fid] = struct{}{}
		unique = append(unique, fid)
	}

	cached, err := r.cache.GetByFIDs(ctx, unique)
	if err != nil {
		r.log.Warn("identity cache read failed", zap.Error(err))
		cached = map[int64]identity.Identity{}
	}

	var misses []int64
	for _, fid := range unique {
		if _, ok := cached[fid]; !ok {
			misses = append(misses, fid)
		}
	}

	if len(misses) > 0 {
		fetched, err := r.dir.FetchByFIDs(ctx, misses)
		if err != nil {
			return nil, fmt.Errorf("directory lookup: %w", err)
		}
		writeBack := make(map[int64]identity.Identity, len(fetched))
		for _, id := range fetched {
			cached[id.FID] = id
			writeBack[id.FID] = id
		}
		if err := r.cache.SetByFIDs(ctx, writeBack); err != nil {
			r.log.Warn("identity cache write failed", zap.Error(err))
		}
	}

	out := make([]identity.Identity, 0, len(unique))
	for _, fid := range unique {
		if id, ok := cached[fid]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}
