// Package identity caches user records resolved from the brain inside a
// freshness window, so repeated interactions from the same actor do not
// hammer the backend.
package identity

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pconlabs/control-bot/internal/api/metrics"
	"github.com/pconlabs/control-bot/internal/core/domain"
	"github.com/pconlabs/control-bot/internal/core/ports"
)

// DefaultTTL is the identity freshness window.
const DefaultTTL = 300 * time.Second

type entry struct {
	user    domain.User
	fetched time.Time
}

// Cache is the in-memory identity cache. Entries are evicted lazily on
// read; there is no background sweeper. The mutex guards the map only;
// two concurrent resolves for the same cold id may both fetch, and the
// last write wins.
type Cache struct {
	client ports.BrainClient
	ttl    time.Duration
	log    zerolog.Logger

	mu      sync.Mutex
	entries map[int64]entry

	now func() time.Time // test seam
}

// NewCache builds a Cache resolving misses through client. A non-positive
// ttl falls back to DefaultTTL.
func NewCache(client ports.BrainClient, ttl time.Duration, log zerolog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		client:  client,
		ttl:     ttl,
		log:     log,
		entries: make(map[int64]entry),
		now:     time.Now,
	}
}

// Resolve returns the cached user when fresh, otherwise evicts the stale
// entry and fetches live. A failed fetch stores nothing and its error
// propagates to the caller.
func (c *Cache) Resolve(ctx context.Context, id int64) (*domain.User, error) {
	c.mu.Lock()
	if e, ok := c.entries[id]; ok {
		if c.now().Sub(e.fetched) <= c.ttl {
			c.mu.Unlock()
			metrics.IdentityCacheTotal.WithLabelValues("hit").Inc()
			u := e.user
			return &u, nil
		}
		delete(c.entries, id)
		c.log.Debug().Int64("id", id).Msg("identity cache entry expired")
	}
	c.mu.Unlock()

	metrics.IdentityCacheTotal.WithLabelValues("miss").Inc()
	u, err := c.client.User(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[id] = entry{user: *u, fetched: c.now()}
	c.mu.Unlock()
	c.log.Debug().Int64("id", id).Msg("identity cached")
	return u, nil
}

// Forget drops the cached entry for id, if any.
func (c *Cache) Forget(_ context.Context, id int64) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}
