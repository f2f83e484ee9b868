// Package redis provides Redis-backed persistence. Records are stored as
// JSON values keyed by id, with one set per collection as the id index.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/fieldflow/fieldflow/pkg/log"
)

const keyPrefix = "fieldflow"

// Persistence implements persistence.Persistence backed by Redis.
type Persistence struct {
	client *redis.Client
	logger *slog.Logger
}

// NewPersistence connects to Redis at the given URL. Both redis:// URLs and
// bare host:port addresses are accepted.
func NewPersistence(ctx context.Context, redisURL string) (*Persistence, error) {
	var opts *redis.Options

	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}

		opts = parsed
	} else {
		opts = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opts)

	err := client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Persistence{
		client: client,
		logger: log.WithModule("persistence.redis"),
	}, nil
}

// HealthCheck verifies the Redis connection is alive.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	return nil
}

// Close closes the Redis connection.
func (p *Persistence) Close(_ context.Context) error {
	err := p.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

// kvStore reads and writes one collection of JSON records.
type kvStore struct {
	client     *redis.Client
	collection string
}

func (s *kvStore) key(id string) string {
	return keyPrefix + ":" + s.collection + ":" + id
}

func (s *kvStore) indexKey() string {
	return keyPrefix + ":" + s.collection
}

func (s *kvStore) save(ctx context.Context, id string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal %s record: %w", s.collection, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(id), data, 0)
	pipe.SAdd(ctx, s.indexKey(), id)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save %s record: %w", s.collection, err)
	}

	return nil
}

// load unmarshals the record with the given id into out. It returns
// redis.Nil when the record does not exist.
func (s *kvStore) load(ctx context.Context, id string, out any) error {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		return err
	}

	err = json.Unmarshal(data, out)
	if err != nil {
		return fmt.Errorf("failed to unmarshal %s record: %w", s.collection, err)
	}

	return nil
}

func (s *kvStore) delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(id))
	pipe.SRem(ctx, s.indexKey(), id)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete %s record: %w", s.collection, err)
	}

	return nil
}

func (s *kvStore) ids(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s ids: %w", s.collection, err)
	}

	return ids, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
