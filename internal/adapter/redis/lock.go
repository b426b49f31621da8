// Package redis provides a per-location backfill lock backed by Redis.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/climate-monitor-backfill/internal/backfill"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "climate-backfill:lock:"

// releaseScript deletes the key only while it still holds our token.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// Commander is the subset of the go-redis client the lock uses.
type Commander interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// Locker implements backfill.Locker. The lock expires after ttl so a crashed
// run cannot block a location forever.
type Locker struct {
	client Commander
	ttl    time.Duration
	logger *slog.Logger
}

// NewLocker wraps an existing client.
func NewLocker(client Commander, ttl time.Duration, logger *slog.Logger) *Locker {
	return &Locker{client: client, ttl: ttl, logger: logger}
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close() //nolint:errcheck // connection never came up
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// Acquire takes the lock for locationID. It returns
// backfill.ErrBackfillInProgress when another holder has it.
func (l *Locker) Acquire(ctx context.Context, locationID int64) (func(), error) {
	key := lockKey(locationID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("set lock: %w", err)
	}
	if !ok {
		return nil, backfill.ErrBackfillInProgress
	}

	release := func() {
		// The run's context may already be cancelled; release on a fresh one.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
			l.logger.Warn("release backfill lock", "location_id", locationID, "error", err)
		}
	}
	return release, nil
}

// CheckReadiness pings Redis.
func (l *Locker) CheckReadiness(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func lockKey(locationID int64) string {
	return keyPrefix + strconv.FormatInt(locationID, 10)
}
