package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
)

// IdentityCache is a read-through TTL cache in front of an upstream
// IdentityResolver. The signer identity lookup only gates authorization, so
// staleness up to the TTL is acceptable; fund-moving decisions never read
// from here.
type IdentityCache struct {
	rdb      *redis.Client
	upstream domain.IdentityResolver
	ttl      time.Duration
	logger   *slog.Logger
}

var _ domain.IdentityResolver = (*IdentityCache)(nil)

// NewIdentityCache creates the cache. ttl bounds how long a resolved
// identity may be served without consulting the upstream.
func NewIdentityCache(c *Client, upstream domain.IdentityResolver, ttl time.Duration, logger *slog.Logger) *IdentityCache {
	return &IdentityCache{
		rdb:      c.Underlying(),
		upstream: upstream,
		ttl:      ttl,
		logger:   logger.With(slog.String("component", "identity_cache")),
	}
}

func identityKey(wallet string) string {
	return "signer:identity:" + wallet
}

// Identity returns the cached signer identity for the wallet, resolving and
// caching on miss. A cache-layer failure falls through to the upstream
// rather than failing the lookup.
func (ic *IdentityCache) Identity(ctx context.Context, wallet string) (string, error) {
	key := identityKey(wallet)

	cached, err := ic.rdb.Get(ctx, key).Result()
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, redis.Nil) {
		ic.logger.WarnContext(ctx, "identity cache read failed; falling through",
			slog.String("wallet", wallet),
			slog.String("error", err.Error()),
		)
	}

	identity, err := ic.upstream.Identity(ctx, wallet)
	if err != nil {
		return "", fmt.Errorf("redis: resolve identity %s: %w", wallet, err)
	}

	if err := ic.rdb.Set(ctx, key, identity, ic.ttl).Err(); err != nil {
		ic.logger.WarnContext(ctx, "identity cache write failed",
			slog.String("wallet", wallet),
			slog.String("error", err.Error()),
		)
	}
	return identity, nil
}

// Invalidate drops the cached identity for a wallet.
func (ic *IdentityCache) Invalidate(ctx context.Context, wallet string) error {
	if err := ic.rdb.Del(ctx, identityKey(wallet)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate identity %s: %w", wallet, err)
	}
	return nil
}
