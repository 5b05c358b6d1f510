package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/deptdocs/revisor/internal/models"
)

const (
	userCacheTTL     = 5 * time.Minute
	negativeCacheTTL = 30 * time.Second
	maxCacheEntries  = 10000
)

// errCachedNotFound is returned for negative cache hits.
var errCachedNotFound = errors.New("api key not found (cached)")

// hashKey returns a hex-encoded SHA-256 hash of the API key so raw keys
// are never stored in memory.
func hashKey(apiKey string) string {
	h := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(h[:])
}

// CachedUserLookup wraps a UserLookup with bounded expiring caches for
// successful and failed lookups.
type CachedUserLookup struct {
	inner    UserLookup
	hits     *expirable.LRU[string, models.User]
	negative *expirable.LRU[string, struct{}]
}

// NewCachedUserLookup creates a caching wrapper around the given UserLookup.
func NewCachedUserLookup(inner UserLookup) *CachedUserLookup {
	return &CachedUserLookup{
		inner:    inner,
		hits:     expirable.NewLRU[string, models.User](maxCacheEntries, nil, userCacheTTL),
		negative: expirable.NewLRU[string, struct{}](maxCacheEntries, nil, negativeCacheTTL),
	}
}

// GetUserByAPIKey returns a cached user or delegates to the inner lookup.
// Failed lookups are negatively cached for 30s to prevent brute-force DB hammering.
func (c *CachedUserLookup) GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	hk := hashKey(apiKey)

	if u, ok := c.hits.Get(hk); ok {
		return &u, nil
	}

	if c.negative.Contains(hk) {
		return nil, errCachedNotFound
	}

	u, err := c.inner.GetUserByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.negative.Add(hk, struct{}{})
		}

		return nil, err
	}

	c.hits.Add(hk, *u)

	return u, nil
}

// Purge drops every cached entry.
func (c *CachedUserLookup) Purge() {
	c.hits.Purge()
	c.negative.Purge()
}
