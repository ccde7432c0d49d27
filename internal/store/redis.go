package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chalkdoc/chalkdoc"
)

const (
	topicKeyPrefix = "chalkdoc:topic:"
	topicSeqKey    = "chalkdoc:topic:seq"
	cacheKeyPrefix = "chalkdoc:cache:"
)

// NewRedisClient connects to addr and pings it.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}
	return rdb, nil
}

// RedisStore keeps each topic as a JSON string. Ids come from INCR on a
// shared counter.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Save(ctx context.Context, t *chalkdoc.Topic) (string, error) {
	n, err := r.client.Incr(ctx, topicSeqKey).Result()
	if err != nil {
		return "", fmt.Errorf("allocate topic id: %w", err)
	}
	t.ID = strconv.FormatInt(n, 10)
	b, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	if err := r.client.Set(ctx, topicKeyPrefix+t.ID, b, 0).Err(); err != nil {
		return "", fmt.Errorf("save topic %s: %w", t.ID, err)
	}
	return t.ID, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*chalkdoc.Topic, error) {
	b, err := r.client.Get(ctx, topicKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get topic %s: %w", id, err)
	}
	var t chalkdoc.Topic
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("decode topic %s: %w", id, err)
	}
	return &t, nil
}

func (r *RedisStore) Close(context.Context) error {
	return r.client.Close()
}

// RedisCache is a Cache backed by plain string keys with an expiry.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, cacheKeyPrefix+key, value, ttl).Err()
}
