package fetchcache

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/robinjoseph08/golib/logger"
)

const defaultPrefix = "lectio:metadata"

// Cache stores raw metadata responses keyed by request. Implementations are
// best effort: a failed read is a miss and a failed write is dropped.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (Noop) Set(context.Context, string, []byte)         {}

// Redis keeps responses in Redis with a TTL.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis builds a Redis-backed cache. The connection is not checked until
// the first request.
func NewRedis(addr, password, prefix string, ttl time.Duration) (*Redis, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("fetch cache redis addr is required")
	}
	if ttl <= 0 {
		return nil, errors.New("fetch cache requires a positive ttl")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix: prefix,
		ttl:    ttl,
	}, nil
}

func (r *Redis) key(k string) string {
	return r.prefix + ":" + k
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logger.FromContext(ctx).Warn("fetch cache read failed", logger.Data{"key": key, "error": err.Error()})
		return nil, false
	}
	return val, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		logger.FromContext(ctx).Warn("fetch cache write failed", logger.Data{"key": key, "error": err.Error()})
	}
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return errors.WithStack(r.client.Close())
}
