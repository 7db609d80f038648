package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelsud/zipwhip-bridge/webhook"
)

/* Redis implementation of webhook.Store
 * Keeps the dedupe set across restarts and across replicas
 * Uses SET NX so the check-and-record is a single atomic operation
 */

const keyPrefix = "dedupe" // Key naming: dedupe:{fingerprint}:{id}

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a new Redis-backed dedupe store
func NewStore(addr, password string, db int, ttl time.Duration) (*Store, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Store{
		client: client,
		ttl:    ttl,
	}, nil
}

// MarkIfNew records the key and reports whether it was previously unseen.
// SET NX makes the check-and-record atomic on the Redis side.
func (s *Store) MarkIfNew(ctx context.Context, key string) (bool, error) {
	fresh, err := s.client.SetNX(ctx, s.key(key), time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("recording key: %w", err)
	}
	return fresh, nil
}

// Forget releases a recorded key
func (s *Store) Forget(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("deleting key: %w", err)
	}
	return nil
}

// Stats counts the currently recorded keys
func (s *Store) Stats(ctx context.Context) (webhook.Stats, error) {
	pattern := fmt.Sprintf("%s:*", keyPrefix)

	var tracked int64
	var cursor uint64
	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return webhook.Stats{}, fmt.Errorf("scanning keys: %w", err)
		}

		tracked += int64(len(keys))

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return webhook.Stats{
		TrackedKeys: tracked,
		TTL:         s.ttl,
	}, nil
}

// Close closes the Redis connection
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("closing Redis connection: %w", err)
	}
	return nil
}

func (s *Store) key(key string) string {
	return fmt.Sprintf("%s:%s", keyPrefix, key)
}
