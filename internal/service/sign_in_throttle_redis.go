package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lmring/lmring/internal/security"
)

var redisThrottleBumpScript = redis.NewScript(`
local now_ms = tonumber(ARGV[1])
local base_ms = tonumber(ARGV[2])
local multiplier = tonumber(ARGV[3])
local max_ms = tonumber(ARGV[4])
local reset_ms = tonumber(ARGV[5])
local free_attempts = tonumber(ARGV[6])

local key = KEYS[1]
local failures = tonumber(redis.call("HGET", key, "failures") or "0")
local last_ms = tonumber(redis.call("HGET", key, "last_ms") or "0")
if last_ms == 0 or (now_ms - last_ms) > reset_ms then
  failures = 0
end
failures = failures + 1

local delay = 0
if failures > free_attempts then
  delay = math.floor(base_ms * (multiplier ^ (failures - free_attempts - 1)))
end
if delay > max_ms then
  delay = max_ms
end

redis.call("HSET", key, "failures", tostring(failures), "last_ms", tostring(now_ms), "until_ms", tostring(now_ms + delay))
redis.call("PEXPIRE", key, reset_ms + delay + 60000)
return delay
`)

// RedisSignInThrottle shares failure counters across API replicas.
type RedisSignInThrottle struct {
	client redis.UniversalClient
	prefix string
	policy SignInThrottlePolicy
	now    func() time.Time
}

func NewRedisSignInThrottle(client redis.UniversalClient, prefix string, policy SignInThrottlePolicy) *RedisSignInThrottle {
	if prefix == "" {
		prefix = "lmring:signin"
	}
	return &RedisSignInThrottle{client: client, prefix: prefix, policy: policy.normalized(), now: time.Now}
}

func (t *RedisSignInThrottle) Check(ctx context.Context, email, ip string) (time.Duration, error) {
	nowMS := t.now().UnixMilli()
	var wait time.Duration
	for _, key := range throttleKeys(email, ip) {
		vals, err := t.client.HMGet(ctx, t.key(key), "last_ms", "until_ms").Result()
		if err != nil {
			return 0, err
		}
		if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
			continue
		}
		lastMS, err := parseRedisInt64(vals[0])
		if err != nil {
			return 0, err
		}
		untilMS, err := parseRedisInt64(vals[1])
		if err != nil {
			return 0, err
		}
		if nowMS-lastMS > t.policy.ResetWindow.Milliseconds() || untilMS <= nowMS {
			continue
		}
		wait = max(wait, time.Duration(untilMS-nowMS)*time.Millisecond)
	}
	return wait, nil
}

func (t *RedisSignInThrottle) RegisterFailure(ctx context.Context, email, ip string) (time.Duration, error) {
	nowMS := t.now().UnixMilli()
	var wait time.Duration
	for _, key := range throttleKeys(email, ip) {
		res, err := redisThrottleBumpScript.Run(ctx, t.client, []string{t.key(key)},
			nowMS,
			t.policy.BaseDelay.Milliseconds(),
			t.policy.Multiplier,
			t.policy.MaxDelay.Milliseconds(),
			t.policy.ResetWindow.Milliseconds(),
			t.policy.FreeAttempts,
		).Result()
		if err != nil {
			return 0, err
		}
		ms, err := parseRedisInt64(res)
		if err != nil {
			return 0, err
		}
		wait = max(wait, time.Duration(max(ms, 0))*time.Millisecond)
	}
	return wait, nil
}

func (t *RedisSignInThrottle) Reset(ctx context.Context, email, ip string) error {
	keys := throttleKeys(email, ip)
	return t.client.Del(ctx, t.key(keys[0]), t.key(keys[1])).Err()
}

// Identities are hashed so raw emails never land in Redis.
func (t *RedisSignInThrottle) key(identity string) string {
	return fmt.Sprintf("%s:%s", t.prefix, security.HashToken(identity))
}

func parseRedisInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("redis response overflows int64")
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case string:
		var out int64
		if _, err := fmt.Sscan(n, &out); err != nil {
			return 0, err
		}
		return out, nil
	default:
		return 0, fmt.Errorf("unexpected redis response type %T", v)
	}
}
