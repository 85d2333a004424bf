package counter

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "leadgate:rl"

// RedisLog stores events in one sorted set per key, scored by unix
// milliseconds.
type RedisLog struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// NewRedisLog returns a log over client.
func NewRedisLog(client redis.UniversalClient, opts ...RedisOption) *RedisLog {
	r := &RedisLog{client: client, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Kind returns "redis".
func (r *RedisLog) Kind() string { return "redis" }

func (r *RedisLog) setKey(key Key) string {
	return r.prefix + ":" + key.Namespace + ":" + key.ID
}

func (r *RedisLog) CountInWindow(ctx context.Context, key Key, since time.Time) (int, error) {
	n, err := r.client.ZCount(ctx, r.setKey(key), strconv.FormatInt(since.UnixMilli(), 10), "+inf").Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *RedisLog) RecordEvent(ctx context.Context, key Key, at time.Time) error {
	k := r.setKey(key)
	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, k, redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: strconv.FormatInt(at.UnixMilli(), 10) + "-" + uuid.NewString(),
	})
	if r.retention > 0 {
		pipe.Expire(ctx, k, r.retention)
	}
	_, err := pipe.Exec(ctx)
	return err
}
