package queue

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// changesKey is the Redis list all versions share; records carry their
// version inline.
const changesKey = "changes"

// popWait bounds how long a Pop blocks server-side before reporting empty.
// A bounded blocking pop keeps the worker responsive to shutdown without
// busy-polling Redis.
const popWait = time.Second

// RedisQueue implements Queue on a Redis list (RPUSH producer, BLPOP
// consumer).
type RedisQueue struct {
	client *redis.Client
}

// NewRedis connects to Redis at url (default redis://localhost:6379) and
// verifies the connection.
func NewRedis(url string) (*RedisQueue, error) {
	if url == "" {
		url = "redis://localhost:6379"
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisQueue{client: client}, nil
}

// Push appends a record to the tail of the shared list.
func (q *RedisQueue) Push(ctx context.Context, payload []byte) error {
	return q.client.RPush(ctx, changesKey, payload).Err()
}

// Pop blocks up to popWait for a head record, returning ErrEmpty when none
// arrives in time.
func (q *RedisQueue) Pop(ctx context.Context) ([]byte, error) {
	res, err := q.client.BLPop(ctx, popWait, changesKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, err
	}
	// BLPOP returns [key, value].
	if len(res) != 2 {
		return nil, ErrEmpty
	}
	return []byte(res[1]), nil
}

// Close releases the client connection pool.
func (q *RedisQueue) Close() error { return q.client.Close() }
