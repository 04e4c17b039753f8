package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/cloud8421/recipe/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.RunStore using Redis. Records are stored as
// JSON values with an index ZSET tracking membership and expiry.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for run records.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for run records.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "recipe:run:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(correlationID string) string {
	return s.prefix + correlationID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the record to Redis: SET with TTL plus a ZADD into the
// index, scored by expiry time so List can prune lazily. A zero TTL
// scores far enough in the future to never expire.
func (s *Store) Save(ctx context.Context, rec *domain.RunRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(rec.CorrelationID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: rec.CorrelationID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}

	return nil
}

// Load retrieves a record from Redis.
func (s *Store) Load(ctx context.Context, correlationID string) (*domain.RunRecord, error) {
	val, err := s.client.Get(ctx, s.key(correlationID)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var rec domain.RunRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run record: %w", err)
	}

	return &rec, nil
}

// List returns all recorded runs, most recent first. Expired entries
// are pruned from the index lazily before reading.
func (s *Store) List(ctx context.Context) ([]*domain.RunRecord, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired runs: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	recs := make([]*domain.RunRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Load(ctx, id)
		if err != nil {
			// The value can expire between the index read and the get.
			continue
		}
		recs = append(recs, rec)
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].StartedAt.Equal(recs[j].StartedAt) {
			return recs[i].CorrelationID < recs[j].CorrelationID
		}
		return recs[i].StartedAt.After(recs[j].StartedAt)
	})
	return recs, nil
}

// Delete removes the record and its index entry.
func (s *Store) Delete(ctx context.Context, correlationID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(correlationID))
	pipe.ZRem(ctx, s.indexKey(), correlationID)

	_, err := pipe.Exec(ctx)
	return err
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
