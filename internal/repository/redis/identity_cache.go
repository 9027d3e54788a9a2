package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yoframe/yo-pipeline/internal/domain/identity"
)

// IdentityTTL bounds how long a resolved Farcaster identity is served
// from cache before the directory is consulted again.
const IdentityTTL = 72 * time.Hour

const (
	identityAddrKeyFmt = "farcaster:user:addr:%s"
	identityFIDKeyFmt  = "farcaster:user:%d"
)

// IdentityCache stores resolved Farcaster identities keyed by
// checksummed address and by fid.
type IdentityCache struct {
	rdb *redis.Client
}

func NewIdentityCache(c *Client) *IdentityCache {
	return &IdentityCache{rdb: c.rdb}
}

// GetByAddresses returns the cached identity candidates for the given
// checksummed addresses. Addresses without a cache entry are simply
// absent from the result.
func (c *IdentityCache) GetByAddresses(ctx context.Context, addrs []string) (map[string][]identity.Identity, error) {
	if len(addrs) == 0 {
		return map[string][]identity.Identity{}, nil
	}

	keys := make([]string, len(addrs))
	for i, a := range addrs {
		keys[i] = fmt.Sprintf(identityAddrKeyFmt, a)
	}

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("identity cache mget: %w", err)
	}

	out := make(map[string][]identity.Identity, len(addrs))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var ids []identity.Identity
		if err := json.Unmarshal([]byte(s), &ids); err != nil || len(ids) == 0 {
			// stale or corrupt entry, treat as a miss
			continue
		}
		out[addrs[i]] = ids
	}
	return out, nil
}

// SetByAddresses caches identity candidate lists under their address
// keys. An address whose lookup came back empty is not cached, so a
// wallet that verifies later is picked up without waiting out the TTL.
func (c *IdentityCache) SetByAddresses(ctx context.Context, byAddr map[string][]identity.Identity) error {
	if len(byAddr) == 0 {
		return nil
	}
	pipe := c.rdb.Pipeline()
	for addr, ids := range byAddr {
		if len(ids) == 0 {
			continue
		}
		b, err := json.Marshal(ids)
		if err != nil {
			return fmt.Errorf("identity cache marshal: %w", err)
		}
		pipe.Set(ctx, fmt.Sprintf(identityAddrKeyFmt, addr), b, IdentityTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("identity cache set: %w", err)
	}
	return nil
}

// GetByFIDs returns the cached identities for the given fids.
func (c *IdentityCache) GetByFIDs(ctx context.Context, fids []int64) (map[int64]identity.Identity, error) {
	if len(fids) == 0 {
		return map[int64]identity.Identity{}, nil
	}

	keys := make([]string, len(fids))
	for i, fid := range fids {
		keys[i] = fmt.Sprintf(identityFIDKeyFmt, fid)
	}

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("identity cache mget: %w", err)
	}

	out := make(map[int64]identity.Identity, len(fids))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var id identity.Identity
		if err := json.Unmarshal([]byte(s), &id); err != nil {
			continue
		}
		out[fids[i]] = id
	}
	return out, nil
}

// SetByFIDs caches the given identities under their fid keys.
func (c *IdentityCache) SetByFIDs(ctx context.Context, byFID map[int64]identity.Identity) error {
	if len(byFID) == 0 {
		return nil
	}
	pipe := c.rdb.Pipeline()
	for fid, id := range byFID {
		b, err := json.Marshal(id)
		if err != nil {
			return fmt.Errorf("identity cache marshal: %w", err)
		}
		pipe.Set(ctx, fmt.Sprintf(identityFIDKeyFmt, fid), b, IdentityTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("identity cache set: %w", err)
	}
	return nil
}
