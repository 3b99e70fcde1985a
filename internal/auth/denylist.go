// AngelaMos | 2026
// denylist.go

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/finddetectives/internal/core"
)

// Denylist records revoked access token ids until they would have expired
// anyway.
type Denylist interface {
	Add(ctx context.Context, jti string, ttl time.Duration) error
	Contains(ctx context.Context, jti string) (bool, error)
}

type redisDenylist struct {
	client *redis.Client
}

func NewRedisDenylist(client *redis.Client) Denylist {
	return &redisDenylist{client: client}
}

func denylistKey(jti string) string {
	return core.RedisKey("denylist", jti)
}

func (d *redisDenylist) Add(
	ctx context.Context,
	jti string,
	ttl time.Duration,
) error {
	if err := d.client.Set(ctx, denylistKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("denylist token: %w", err)
	}
	return nil
}

func (d *redisDenylist) Contains(ctx context.Context, jti string) (bool, error) {
	exists, err := d.client.Exists(ctx, denylistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check denylist: %w", err)
	}
	return exists > 0, nil
}
