package farcaster

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yoframe/yo-pipeline/internal/domain/identity"
)

type Config struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Client is the social-graph directory over its bulk lookup HTTP API.
// Implements identity.Directory.
type Client struct {
	c       *http.Client
	baseURL string
	apiKey  string
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		c:       &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

type apiUser struct {
	FID               int64  `json:"fid"`
	Username          string `json:"username"`
	DisplayName       string `json:"display_name"`
	VerifiedAddresses struct {
		EthAddresses []string `json:"eth_addresses"`
	} `json:"verified_addresses"`
}

func (u apiUser) toDomain() identity.Identity {
	return identity.Identity{
		FID:               u.FID,
		Username:          u.Username,
		DisplayName:       u.DisplayName,
		VerifiedAddresses: u.VerifiedAddresses.EthAddresses,
	}
}

// FetchByAddresses looks up identities by verified wallet address.
// The API keys its response by lowercased address; results are
// re-keyed by the caller's spelling so lookups stay case-insensitive.
func (c *Client) FetchByAddresses(ctx context.Context, addresses []string) (map[string][]identity.Identity, error) {
	if len(addresses) == 0 {
		return map[string][]identity.Identity{}, nil
	}

	q := url.Values{}
	q.Set("addresses", strings.Join(addresses, ","))
	var payload map[string][]apiUser
	if err := c.get(ctx, "/v2/farcaster/user/bulk-by-address?"+q.Encode(), &payload); err != nil {
		return nil, err
	}

	byLower := make(map[string][]identity.Identity, len(payload))
	for addr, users := range payload {
		ids := make([]identity.Identity, 0, len(users))
		for _, u := range users {
			ids = append(ids, u.toDomain())
		}
		byLower[strings.ToLower(addr)] = ids
	}

	out := make(map[string][]identity.Identity, len(addresses))
	for _, addr := range addresses {
		if ids, ok := byLower[strings.ToLower(addr)]; ok && len(ids) > 0 {
			out[addr] = ids
		}
	}
	return out, nil
}

func (c *Client) FetchByFIDs(ctx context.Context, fids []int64) ([]identity.Identity, error) {
	if len(fids) == 0 {
		return nil, nil
	}

	parts := make([]string, len(fids))
	for i, fid := range fids {
		parts[i] = strconv.FormatInt(fid, 10)
	}
	q := url.Values{}
	q.Set("fids", strings.Join(parts, ","))

	var payload struct {
		Users []apiUser `json:"users"`
	}
	if err := c.get(ctx, "/v2/farcaster/user/bulk?"+q.Encode(), &payload); err != nil {
		return nil, err
	}

	out := make([]identity.Identity, 0, len(payload.Users))
	for _, u := range payload.Users {
		out = append(out, u.toDomain())
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.c.Do(req)
	if err != nil {
		return fmt.Errorf("directory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// the bulk endpoints 404 when nothing matches
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("directory status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("directory decode: %w", err)
	}
	return nil
}
