package archive

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/labelbench/pkg/observability"
)

// Redis key layout.
const (
	redisRunPrefix = "labelbench:run:"
	redisIndexKey  = "labelbench:runs"
)

// RedisStore keeps each run under labelbench:run:<id> and indexes ids in the
// sorted set labelbench:runs scored by creation time.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore connects to the Redis server at url
// (for example "redis://localhost:6379/0") and pings it.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, wrap(err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, wrap(err, "connect to redis")
	}
	return NewRedisStoreWithClient(client), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func redisRunKey(id string) string { return redisRunPrefix + id }

// Put stores rec and indexes it in one transaction.
func (s *RedisStore) Put(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return wrap(err, "encode run %s", rec.ID)
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, redisRunKey(rec.ID), data, 0)
		p.ZAdd(ctx, redisIndexKey, redis.Z{Score: float64(rec.CreatedAt.UnixNano()), Member: rec.ID})
		return nil
	})
	if err != nil {
		return wrap(err, "store run %s", rec.ID)
	}
	observability.Archive().OnArchivePut(ctx, BackendRedis, len(data))
	return nil
}

// Get reads the run with the given id.
func (s *RedisStore) Get(ctx context.Context, id string) (Record, error) {
	data, err := s.client.Get(ctx, redisRunKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.Archive().OnArchiveMiss(ctx, BackendRedis)
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, wrap(err, "read run %s", id)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, wrap(err, "decode run %s", id)
	}
	observability.Archive().OnArchiveHit(ctx, BackendRedis)
	return rec, nil
}

// List walks the index from newest to oldest. Ids whose record has expired or
// been removed are skipped.
func (s *RedisStore) List(ctx context.Context, limit int) ([]Record, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := s.client.ZRevRange(ctx, redisIndexKey, 0, stop).Result()
	if err != nil {
		return nil, wrap(err, "list runs")
	}

	recs := make([]Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
