package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/wixxidevelop/blue/internal/models"
)

const (
	keyPrefix  = "blue:session:"
	lockPrefix = "blue:session-lock:"

	lockTTL   = 10 * time.Second
	lockWait  = 5 * time.Second
	lockRetry = 20 * time.Millisecond
)

// releaseScript deletes the lock only while it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisStore keeps sessions in redis with a sliding TTL so several portal
// instances can share them
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore parses url and pings the server
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, id string) (*models.SessionState, error) {
	data, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var state models.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		// an undecodable session is discarded; the user starts over
		return nil, ErrNotFound
	}
	return &state, nil
}

func (r *RedisStore) Save(ctx context.Context, id string, state *models.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, keyPrefix+id, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, keyPrefix+id).Err()
}

// Lock takes a SET NX lock with an expiry so a crashed holder cannot wedge
// the session. It waits up to lockWait for a concurrent holder.
func (r *RedisStore) Lock(ctx context.Context, id string) (func(), error) {
	key := lockPrefix + id
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, lockWait)
	defer cancel()

	ticker := time.NewTicker(lockRetry)
	defer ticker.Stop()
	for {
		ok, err := r.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrBusy, ctx.Err())
			}
			return nil, fmt.Errorf("failed to lock session: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrBusy, ctx.Err())
		}
	}

	return func() {
		// the request context may already be cancelled
		_ = releaseScript.Run(context.Background(), r.client, []string{key}, token).Err()
	}, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
