package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps short-lived keyword cooldown keys so the same query is
// not replayed against the search engine within the configured window.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisStore{client: rdb}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// MarkSearched sets a TTL key recording that the keyword was just searched.
func (s *RedisStore) MarkSearched(ctx context.Context, keyword string, ttl time.Duration) error {
	return s.client.Set(ctx, cooldownKey(keyword), "1", ttl).Err()
}

// IsRecentlySearched checks whether the keyword is still inside its cooldown.
func (s *RedisStore) IsRecentlySearched(ctx context.Context, keyword string) (bool, error) {
	val, err := s.client.Exists(ctx, cooldownKey(keyword)).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}

func cooldownKey(keyword string) string {
	return fmt.Sprintf("searched:%s", keyword)
}
