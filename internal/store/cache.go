// Package store provides the request-scoped sheet cache. One RequestCache
// is built per inbound request and discarded with it; there is no
// cross-request sharing and no invalidation signal from writers, so a fresh
// entry can still trail a concurrent manual edit. The TTL only bounds how
// stale one request is willing to read.
package store

import (
	"context"
	"time"

	"lockerd/internal/tabular"

	"github.com/rs/zerolog/log"
)

// Fetcher is the credentialed sheet source behind the cache.
type Fetcher interface {
	FetchSheet(ctx context.Context, name string) (*tabular.Sheet, error)
	CredentialID() string
}

type entryKey struct {
	credential string
	sheet      string
}

type entry struct {
	sheet     *tabular.Sheet
	fetchedAt time.Time
}

// RequestCache caches fetched sheets for the lifetime of one request.
// Entries are keyed by (credential, sheet name): the same sheet fetched as
// the service account and as a signed-in editor must never share an entry.
// Not safe for concurrent use; a request is a single logical flow.
type RequestCache struct {
	entries map[entryKey]entry
	now     func() time.Time
}

func NewRequestCache() *RequestCache {
	return &RequestCache{
		entries: make(map[entryKey]entry),
		now:     time.Now,
	}
}

// Get returns the cached sheet when one exists and is no older than ttl,
// refetching through f otherwise.
func (c *RequestCache) Get(ctx context.Context, f Fetcher, name string, ttl time.Duration) (*tabular.Sheet, error) {
	key := entryKey{credential: f.CredentialID(), sheet: name}
	if e, ok := c.entries[key]; ok && c.now().Sub(e.fetchedAt) <= ttl {
		log.Debug().
			Str("sheet", name).
			Str("credential", key.credential).
			Msg("Sheet cache hit")
		return e.sheet, nil
	}

	sheet, err := f.FetchSheet(ctx, name)
	if err != nil {
		return nil, err
	}
	c.entries[key] = entry{sheet: sheet, fetchedAt: c.now()}
	return sheet, nil
}
