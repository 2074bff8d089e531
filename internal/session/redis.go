package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// expiryGrace keeps a value readable in Redis after its logical expiry so
// the sweep can still hand it to the expiry callback.
const expiryGrace = 30 * time.Minute

// redisClient is the part of *redis.Client the store uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	ZRem(ctx context.Context, key string, members ...any) *redis.IntCmd
	ZRangeByScore(ctx context.Context, key string, opt *redis.ZRangeBy) *redis.StringSliceCmd
}

type envelope[T any] struct {
	ExpiresAt int64 `json:"expires_at"`
	Value     T     `json:"value"`
}

// RedisStore keeps JSON-encoded entries under prefix:<id> and indexes their
// expiry in the sorted set prefix:expiry.
type RedisStore[T any] struct {
	rdb      redisClient
	prefix   string
	ttl      time.Duration
	now      func() time.Time
	onExpire ExpireFunc[T]
}

// NewRedisStore wraps an existing client. prefix namespaces the keys.
func NewRedisStore[T any](rdb redisClient, prefix string, ttl time.Duration) *RedisStore[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore[T]{rdb: rdb, prefix: strings.TrimSuffix(prefix, ":"), ttl: ttl, now: time.Now}
}

// NewRedisClient dials addr, which may be a redis:// URL or host:port.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, errors.New("redis address is empty")
	}
	var rdb *redis.Client
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opt, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb = redis.NewClient(opt)
	} else {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func (s *RedisStore[T]) WithClock(now func() time.Time) *RedisStore[T] {
	s.now = now
	return s
}

func (s *RedisStore[T]) OnExpire(fn ExpireFunc[T]) *RedisStore[T] {
	s.onExpire = fn
	return s
}

func (s *RedisStore[T]) key(id string) string { return s.prefix + ":" + id }
func (s *RedisStore[T]) indexKey() string { return s.prefix + ":expiry" }

func (s *RedisStore[T]) Put(ctx context.Context, id string, value T) error {
	expiresAt := s.now().Add(s.ttl)
	b, err := json.Marshal(envelope[T]{ExpiresAt: expiresAt.UnixMilli(), Value: value})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(id), b, s.ttl+expiryGrace).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if err := s.rdb.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(expiresAt.UnixMilli()), Member: id}).Err(); err != nil {
		return fmt.Errorf("index session: %w", err)
	}
	return nil
}

func (s *RedisStore[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	env, err := s.load(ctx, id)
	if err != nil {
		return zero, err
	}
	if s.now().UnixMilli() >= env.ExpiresAt {
		return zero, ErrNotFound
	}
	return env.Value, nil
}

func (s *RedisStore[T]) load(ctx context.Context, id string) (envelope[T], error) {
	var env envelope[T]
	raw, err := s.rdb.Get(ctx, s.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return env, ErrNotFound
	}
	if err != nil {
		return env, fmt.Errorf("load session: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		// corrupt entry: treat as a miss
		_ = s.rdb.Del(ctx, s.key(id)).Err()
		return env, ErrNotFound
	}
	return env, nil
}

func (s *RedisStore[T]) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return s.rdb.ZRem(ctx, s.indexKey(), id).Err()
}

// Sweep removes every indexed entry whose expiry has passed.
func (s *RedisStore[T]) Sweep(ctx context.Context) (int, error) {
	ids, err := s.rdb.ZRangeByScore(ctx, s.indexKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(s.now().UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("scan expiry index: %w", err)
	}
	removed := 0
	for _, id := range ids {
		env, loadErr := s.load(ctx, id)
		if err := s.Delete(ctx, id); err != nil {
			return removed, err
		}
		removed++
		if loadErr == nil && s.onExpire != nil {
			s.onExpire(ctx, id, env.Value)
		}
	}
	return removed, nil
}
