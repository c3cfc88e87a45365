package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pconlabs/control-bot/internal/api/metrics"
	"github.com/pconlabs/control-bot/internal/core/domain"
	"github.com/pconlabs/control-bot/internal/core/ports"
)

// RedisCache is the identity cache for multi-instance deployments: user
// snapshots live in Redis under identity:<id> with the TTL applied on
// write, so expiry needs no bookkeeping on our side.
//
// Redis trouble never takes identity resolution down: a failed read
// degrades to a live brain fetch, a failed write is logged and dropped.
type RedisCache struct {
	client ports.BrainClient
	rdb    *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedisCache builds a RedisCache. A non-positive ttl falls back to
// DefaultTTL.
func NewRedisCache(client ports.BrainClient, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, rdb: rdb, ttl: ttl, log: log}
}

// Resolve returns the snapshot from Redis when present, otherwise fetches
// live and stores the result. A failed fetch stores nothing.
func (c *RedisCache) Resolve(ctx context.Context, id int64) (*domain.User, error) {
	raw, err := c.rdb.Get(ctx, c.key(id)).Bytes()
	switch {
	case err == nil:
		var u domain.User
		if jsonErr := json.Unmarshal(raw, &u); jsonErr == nil {
			metrics.IdentityCacheTotal.WithLabelValues("hit").Inc()
			return &u, nil
		}
		// Unreadable snapshot: treat as a miss and overwrite below.
		c.log.Warn().Int64("id", id).Msg("discarding unreadable identity snapshot")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Int64("id", id).Msg("identity cache read failed, fetching live")
	}

	metrics.IdentityCacheTotal.WithLabelValues("miss").Inc()
	u, err := c.client.User(ctx, id)
	if err != nil {
		return nil, err
	}

	snapshot, err := json.Marshal(u)
	if err == nil {
		if setErr := c.rdb.Set(ctx, c.key(id), snapshot, c.ttl).Err(); setErr != nil {
			c.log.Warn().Err(setErr).Int64("id", id).Msg("identity cache write failed")
		}
	}
	return u, nil
}

// Forget drops the snapshot for id, if any.
func (c *RedisCache) Forget(ctx context.Context, id int64) {
	if err := c.rdb.Del(ctx, c.key(id)).Err(); err != nil {
		c.log.Warn().Err(err).Int64("id", id).Msg("identity cache delete failed")
	}
}

func (c *RedisCache) key(id int64) string {
	return fmt.Sprintf("identity:%d", id)
}
