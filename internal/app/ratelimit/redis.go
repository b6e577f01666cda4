package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces limiter keys in a shared Redis.
const DefaultKeyPrefix = "sitio:ratelimit:"

// takeScript applies the fixed-window rule inside Redis. Scripts run
// atomically, so concurrent submissions from one identity are serialized
// even across several server instances.
//
// KEYS[1] = window hash; ARGV = now_ms, window_ms, max.
// Returns {start_ms, count, allowed}.
var takeScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local win = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
local start = tonumber(redis.call('HGET', KEYS[1], 'start'))
local count = tonumber(redis.call('HGET', KEYS[1], 'count'))
if start == nil or count == nil or now >= start + win then
  redis.call('HSET', KEYS[1], 'start', now, 'count', 1)
  redis.call('PEXPIRE', KEYS[1], win)
  return {now, 1, 1}
end
if count >= max then
  return {start, count, 0}
end
count = redis.call('HINCRBY', KEYS[1], 'count', 1)
return {start, count, 1}
`)

// RedisStore keeps windows in Redis so several instances share one budget
// per identity.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisStore wraps an existing client. An empty prefix uses DefaultKeyPrefix.
func NewRedisStore(client redis.UniversalClient, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

// Take implements Store.
func (s *RedisStore) Take(ctx context.Context, key string, now time.Time, window time.Duration, max int) (Window, bool, error) {
	res, err := takeScript.Run(ctx, s.client, []string{s.keyPrefix + key},
		now.UnixMilli(), window.Milliseconds(), max).Int64Slice()
	if err != nil {
		return Window{}, false, fmt.Errorf("redis take %q: %w", key, err)
	}
	if len(res) != 3 {
		return Window{}, false, fmt.Errorf("redis take %q: unexpected reply %v", key, res)
	}
	return Window{Start: time.UnixMilli(res[0]), Count: int(res[1])}, res[2] == 1, nil
}
