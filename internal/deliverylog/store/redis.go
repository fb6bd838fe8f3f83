package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps membership keys in a single Redis set.
type Redis struct {
	rc  *redis.Client
	key string
}

func NewRedis(rc *redis.Client, key string) *Redis {
	return &Redis{rc: rc, key: key}
}

// DialRedis connects and pings so a bad URL fails at startup, not mid-run.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rc := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rc.Ping(pingCtx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return rc, nil
}

func (s *Redis) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.rc.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.key, err)
	}

	slices.Sort(keys)

	return keys, nil
}

func (s *Redis) Append(ctx context.Context, key string) error {
	if err := s.rc.SAdd(ctx, s.key, key).Err(); err != nil {
		return fmt.Errorf("adding to %s: %w", s.key, err)
	}

	return nil
}

func (s *Redis) Rewrite(ctx context.Context, keys []string) error {
	pipe := s.rc.TxPipeline()
	pipe.Del(ctx, s.key)

	if len(keys) > 0 {
		members := make([]any, len(keys))
		for i, k := range keys {
			members[i] = k
		}

		pipe.SAdd(ctx, s.key, members...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rewriting %s: %w", s.key, err)
	}

	return nil
}
