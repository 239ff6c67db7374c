package runstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long run records are kept.
const DefaultTTL = 7 * 24 * time.Hour

var (
	// ErrNotFound indicates no record exists for the key (or it expired).
	ErrNotFound = errors.New("run not found")

	// ErrInvalidRecord indicates a stored record could not be decoded.
	ErrInvalidRecord = errors.New("invalid run record")
)

// Store persists run records in Redis.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewStore creates a run ledger on redisClient. A non-positive ttl selects
// DefaultTTL.
func NewStore(redisClient *redis.Client, ttl time.Duration) *Store {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Dial connects to the Redis instance at rawURL (redis:// or rediss://) and
// checks it answers.
func Dial(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

// TTL returns the expiry applied to saved records.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Save writes record under its own key and as the latest run of its kind.
func (s *Store) Save(ctx context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("run record cannot be nil")
	}
	if record.ID == "" || record.Kind == "" {
		return fmt.Errorf("run record needs an id and a kind")
	}

	data, err := json.Marshal(record)
	if err != nil {
		StoreErrors.WithLabelValues("save").Inc()
		return fmt.Errorf("marshal run record: %w", err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, Key{Kind: record.Kind, ID: record.ID}.String(), data, s.ttl)
		pipe.Set(ctx, LatestKey(record.Kind).String(), data, s.ttl)
		return nil
	})
	if err != nil {
		StoreErrors.WithLabelValues("save").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Get returns the run of kind with id.
// Returns ErrNotFound if it was never saved or has expired.
func (s *Store) Get(ctx context.Context, kind Kind, id string) (*Record, error) {
	return s.load(ctx, Key{Kind: kind, ID: id}, "get")
}

// Latest returns the most recently saved run of kind.
// Returns ErrNotFound if none is on record.
func (s *Store) Latest(ctx context.Context, kind Kind) (*Record, error) {
	return s.load(ctx, LatestKey(kind), "latest")
}

func (s *Store) load(ctx context.Context, key Key, operation string) (*Record, error) {
	data, err := s.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		StoreErrors.WithLabelValues(operation).Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		StoreErrors.WithLabelValues(operation).Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	return &record, nil
}
