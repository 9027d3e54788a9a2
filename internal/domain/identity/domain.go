package identity

import (
	"encoding/json"
	"sort"
)

// Identity is a Farcaster account as returned by the directory API.
type Identity struct {
	FID               int64    `json:"fid"`
	Username          string   `json:"username"`
	DisplayName       string   `json:"display_name,omitempty"`
	VerifiedAddresses []string `json:"verified_addresses,omitempty"`
}

// Hint is the optional metadata a transfer carries to disambiguate
// which account sent or received it when a wallet is verified by more
// than one.
type Hint struct {
	FromFID int64 `json:"fromFid"`
	ToFID   int64 `json:"toFid"`
}

// DecodeHint parses the raw transfer metadata bytes. A missing or
// undecodable payload means "no hint", never an error.
func DecodeHint(data []byte) (Hint, bool) {
	if len(data) == 0 {
		return Hint{}, false
	}
	var h Hint
	if err := json.Unmarshal(data, &h); err != nil {
		return Hint{}, false
	}
	if h.FromFID == 0 && h.ToFID == 0 {
		return Hint{}, false
	}
	return h, true
}

// Pick selects one identity from the candidates an address resolved
// to. A matching hint fid wins; otherwise the lowest fid, so the
// choice does not depend on directory API ordering.
func Pick(candidates []Identity, hintFID int64) (Identity, bool) {
	if len(candidates) == 0 {
		return Identity{}, false
	}
	if hintFID != 0 {
		for _, c := range candidates {
			if c.FID == hintFID {
				return c, true
			}
		}
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.FID < best.FID {
			best = c
		}
	}
	return best, true
}

// SortByFID orders identities ascending by fid, in place.
func SortByFID(ids []Identity) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].FID < ids[j].FID })
}
