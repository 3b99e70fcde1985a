// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/finddetectives/internal/config"
)

// KeyNamespace prefixes every key the service writes.
const KeyNamespace = "finddetectives"

const (
	redisPingTimeout = 3 * time.Second
	redisPoolTimeout = 30 * time.Second
	redisIdleTimeout = 5 * time.Minute
)

// RedisKey joins parts under KeyNamespace, e.g. finddetectives:denylist:<jti>.
func RedisKey(parts ...string) string {
	return KeyNamespace + ":" + strings.Join(parts, ":")
}

type Redis struct {
	Client *redis.Client
}

func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	opts.PoolTimeout = redisPoolTimeout
	opts.ConnMaxIdleTime = redisIdleTimeout
	opts.ClientName = KeyNamespace

	r := &Redis{Client: redis.NewClient(opts)}
	if err := r.Ping(ctx); err != nil {
		_ = r.Client.Close() //nolint:errcheck // already failing
		return nil, err
	}

	return r, nil
}

// Ping satisfies health.Checker.
func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (r *Redis) PoolStats() *redis.PoolStats {
	return r.Client.PoolStats()
}

func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
