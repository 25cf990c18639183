package resultstore

import (
	"context"
	"errors"
	"fmt"

	o "github.com/pslkit/psl-test-adapter/framework/opt"

	"github.com/redis/go-redis/v9"
)

// redisResultsKey is the hash holding one field per test ID.
const redisResultsKey = "psl-test-adapter:results"

type redisStore struct {
	redis *redis.Client
}

func newRedisStore(dsn string) (*redisStore, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid redis DSN: %w", err)
	}
	return &redisStore{redis: redis.NewClient(opts)}, nil
}

func (r *redisStore) Put(ctx context.Context, record Record) error {
	data, err := marshalRecord(record)
	if err != nil {
		return err
	}
	return r.redis.HSet(ctx, redisResultsKey, record.ID, string(data)).Err()
}

func (r *redisStore) Get(ctx context.Context, id string) (o.Maybe[Record], error) {
	data, err := r.redis.HGet(ctx, redisResultsKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return o.None[Record](), nil
	}
	if err != nil {
		return o.None[Record](), err
	}
	record, err := unmarshalRecord([]byte(data))
	if err != nil {
		return o.None[Record](), err
	}
	return o.Some(record), nil
}

func (r *redisStore) Close() error {
	return r.redis.Close()
}
