package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/console/internal/console/domain"
	"github.com/aussiebroadwan/console/internal/console/store"
	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 5 * time.Second

// Config captures the settings for establishing a Redis connection.
type Config struct {
	Addr    string
	DB      int
	Timeout time.Duration
}

// Store keeps session records in Redis hashes.
// Key format: console:session:<name>
type Store struct {
	client *redis.Client
}

// NewStore connects to Redis and validates connectivity with a ping.
// A default timeout is applied when none is provided.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) SessionRecords() store.SessionRecords { return &sessionRecordsRepo{client: s.client} }

// ApplyMigrations is a no-op; Redis has no schema.
func (s *Store) ApplyMigrations() error { return nil }

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

type sessionRecordsRepo struct {
	client *redis.Client
}

func key(name string) string {
	return "console:session:" + name
}

func (r *sessionRecordsRepo) GetSessionRecord(ctx context.Context, name string) (domain.SessionRecord, error) {
	fields, err := r.client.HGetAll(ctx, key(name)).Result()
	if err != nil {
		return domain.SessionRecord{}, fmt.Errorf("redis hgetall: %w", err)
	}

	payload, ok := fields["payload"]
	if !ok {
		return domain.SessionRecord{}, store.ErrNotFound
	}

	rec := domain.SessionRecord{
		Name:    name,
		Payload: []byte(payload),
	}

	if raw := fields["updated_at"]; raw != "" {
		updatedAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return domain.SessionRecord{}, fmt.Errorf("redis: parse updated_at: %w", err)
		}
		rec.UpdatedAt = updatedAt
	}

	return rec, nil
}

func (r *sessionRecordsRepo) PutSessionRecord(ctx context.Context, rec domain.SessionRecord) error {
	err := r.client.HSet(ctx, key(rec.Name),
		"payload", rec.Payload,
		"updated_at", rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

func (r *sessionRecordsRepo) DeleteSessionRecord(ctx context.Context, name string) error {
	if err := r.client.Del(ctx, key(name)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
