package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// DefaultKey is the Redis key guarding import runs.
const DefaultKey = "debtimport:import-lock"

// DefaultTTL bounds how long a crashed holder can block other runs.
const DefaultTTL = 30 * time.Minute

// release only deletes the key if it still holds our token, so a run whose
// lock expired cannot free the lock of the next run.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every process pointing at the same Redis.
type Redis struct {
	client goredis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewRedisClient connects to addr and verifies the connection
func NewRedisClient(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewRedis creates a Locker on key. The lock expires after ttl even if the
// holder dies without releasing it.
func NewRedis(client goredis.UniversalClient, key string, ttl time.Duration) *Redis {
	if key == "" {
		key = DefaultKey
	}
	return &Redis{client: client, key: key, ttl: ttl}
}

// TryLock sets the key if absent
func (r *Redis) TryLock(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire import lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, r.client, []string{r.key}, token).Err(); err != nil {
			log.WithField("key", r.key).Errorf("failed to release import lock: %v", err)
		}
	}, nil
}

// Open returns a Redis-backed Locker when redisAddr is set and a
// process-local one otherwise. The returned close func is never nil.
func Open(ctx context.Context, redisAddr string) (Locker, func(), error) {
	if redisAddr == "" {
		return NewLocal(), func() {}, nil
	}
	rdb, err := NewRedisClient(ctx, redisAddr)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("addr", redisAddr).Info("Using Redis import lock")
	return NewRedis(rdb, DefaultKey, DefaultTTL), func() { _ = rdb.Close() }, nil
}
