package identity

import "context"

// Directory is the external bulk-lookup API. Implementations are thin
// wrappers over the social-graph provider; callers treat them as
// black boxes.
type Directory interface {
	// FetchByAddresses returns identities grouped by verified wallet
	// address. Addresses absent from the result have no identity.
	FetchByAddresses(ctx context.Context, addresses []string) (map[string][]Identity, error)

	FetchByFIDs(ctx context.Context, fids []int64) ([]Identity, error)
}

// Resolver is the cached view over a Directory.
type Resolver interface {
	// ResolveAddresses maps each canonical address to the identities
	// that verified it. Addresses with no identity are omitted.
	ResolveAddresses(ctx context.Context, addresses []string) (map[string][]Identity, error)

	ResolveFIDs(ctx context.Context, fids []int64) ([]Identity, error)
}
