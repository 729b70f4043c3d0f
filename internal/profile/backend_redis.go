package profile

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores the same record text as the file backend under one key.
type RedisBackend struct {
	rdb *redis.Client
	key string
}

func NewRedisBackend(rdb *redis.Client, key string) *RedisBackend {
	if strings.TrimSpace(key) == "" {
		key = "chessmatch:profiles"
	}
	return &RedisBackend{rdb: rdb, key: key}
}

// DialRedis connects using a redis:// or rediss:// URL and pings the server.
func DialRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}

func (r *RedisBackend) Name() string { return "redis:" + r.key }

func (r *RedisBackend) keySavedAt() string { return r.key + ":saved_at" }

func (r *RedisBackend) Load(ctx context.Context) ([]byte, error) {
	raw, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return raw, err
}

func (r *RedisBackend) Save(ctx context.Context, data []byte) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key, data, 0)
		pipe.Set(ctx, r.keySavedAt(), time.Now().UnixMilli(), 0)
		return nil
	})
	return err
}

// SavedAt reports when the table was last written, zero if never.
func (r *RedisBackend) SavedAt(ctx context.Context) (time.Time, error) {
	ms, err := r.rdb.Get(ctx, r.keySavedAt()).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}
