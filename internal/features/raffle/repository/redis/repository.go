package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/bewie03/epok/internal/common/logger"
	"github.com/bewie03/epok/internal/features/raffle/repository"
)

const (
	lockKeyPrefix   = "lock:"
	cursorKeyPrefix = "raffle:poller:cursor:"

	lockRetryInterval = 50 * time.Millisecond
)

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type Store struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewStore returns a distributed lifecycle locker and poller
// cursor store. ttl bounds how long a crashed holder blocks others.
func NewStore(client redis.Cmdable, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

var (
	_ repository.Locker      = (*Store)(nil)
	_ repository.CursorStore = (*Store)(nil)
)

// Acquire retries SET NX until it succeeds or ctx is done
func (r *Store) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := lockKeyPrefix + key
	token := uuid.NewString()

	for {
		err := r.tryLock(ctx, lockKey, token)
		if err == nil {
			return func() { r.release(lockKey, token) }, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s", repository.ErrLockTimeout, key)
		}
		if !errors.Is(err, repository.ErrAlreadyLocked) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", repository.ErrLockTimeout, key)
		case <-time.After(lockRetryInterval):
		}
	}
}

func (r *Store) tryLock(ctx context.Context, key, token string) error {
	ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return repository.ErrAlreadyLocked
	}
	return nil
}

func (r *Store) release(key, token string) {
	// the caller's ctx may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Failed to release lock")
	}
}

func (r *Store) GetCursor(ctx context.Context, address string) (string, error) {
	v, err := r.client.Get(ctx, cursorKeyPrefix+address).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get poller cursor: %w", err)
	}
	return v, nil
}

func (r *Store) SetCursor(ctx context.Context, address, txHash string) error {
	if err := r.client.Set(ctx, cursorKeyPrefix+address, txHash, 0).Err(); err != nil {
		return fmt.Errorf("failed to set poller cursor: %w", err)
	}
	return nil
}
