package lock

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Compare token lalu delete, supaya lease yang sudah expired dan diambil
// pihak lain tidak ikut terhapus.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisManager struct {
	Client *redis.Client
}

func NewRedisManager(c *redis.Client) *RedisManager { return &RedisManager{Client: c} }

type redisLease struct {
	client *redis.Client
	keys   []string
	token  string
}

// Acquire takes every key with a single token via SET NX PX. Keys are sorted
// first so two callers grabbing overlapping sets cannot deadlock each other.
// On partial failure the already-taken keys are released and ErrHeld returned.
func (m *RedisManager) Acquire(ctx context.Context, keys []string, ttl time.Duration) (Lease, error) {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	token := uuid.NewString()
	taken := make([]string, 0, len(sorted))
	for _, k := range sorted {
		ok, err := m.Client.SetNX(ctx, k, token, ttl).Result()
		if err == nil && ok {
			taken = append(taken, k)
			continue
		}
		// rollback key yang sudah sempat diambil
		for _, t := range taken {
			_, _ = releaseScript.Run(ctx, m.Client, []string{t}, token).Result()
		}
		if err != nil {
			return nil, fmt.Errorf("lock: acquire %s: %w", k, err)
		}
		return nil, fmt.Errorf("%w: %s", ErrHeld, k)
	}
	return &redisLease{client: m.Client, keys: sorted, token: token}, nil
}

func (l *redisLease) Release(ctx context.Context) error {
	var firstErr error
	for _, k := range l.keys {
		if _, err := releaseScript.Run(ctx, l.client, []string{k}, l.token).Result(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
