package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/empirecuts-booking/internal/wizard"
)

const (
	defaultLockTTL   = 30 * time.Second
	defaultLockRetry = 25 * time.Millisecond
)

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore shares sessions between API replicas.
type RedisStore struct {
	redis     *redis.Client
	ttl       time.Duration
	lockTTL   time.Duration
	lockRetry time.Duration
	tracer    trace.Tracer
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisStore{
		redis:     client,
		ttl:       ttl,
		lockTTL:   defaultLockTTL,
		lockRetry: defaultLockRetry,
		tracer:    otel.Tracer("empirecuts.internal.session.redis"),
	}
}

// WithLockTTL bounds how long a crashed holder can block a session.
func (s *RedisStore) WithLockTTL(ttl time.Duration) *RedisStore {
	if ttl > 0 {
		s.lockTTL = ttl
	}
	return s
}

func (s *RedisStore) Save(ctx context.Context, id string, snap wizard.Snapshot) error {
	ctx, span := s.tracer.Start(ctx, "session.save")
	defer span.End()

	data, err := json.Marshal(snap)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to marshal snapshot: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(id), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to persist snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (wizard.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "session.load")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return wizard.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		span.RecordError(err)
		return wizard.Snapshot{}, fmt.Errorf("session: failed to load snapshot: %w", err)
	}

	var snap wizard.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		span.RecordError(err)
		return wizard.Snapshot{}, fmt.Errorf("session: failed to decode snapshot: %w", err)
	}
	return snap, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("session: failed to delete snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) Lock(ctx context.Context, id string) (func(), error) {
	key := lockKey(id)
	token := uuid.NewString()
	for {
		ok, err := s.redis.SetNX(ctx, key, token, s.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("session: failed to acquire lock: %w", err)
		}
		if ok {
			return func() {
				// Released with a fresh context so a cancelled request still frees the lock.
				_ = releaseScript.Run(context.Background(), s.redis, []string{key}, token).Err()
			}, nil
		}

		timer := time.NewTimer(s.lockRetry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("session: lock %s: %w", id, ctx.Err())
		case <-timer.C:
		}
	}
}

func sessionKey(id string) string {
	return fmt.Sprintf("booking:session:%s", id)
}

func lockKey(id string) string {
	return fmt.Sprintf("booking:session:%s:lock", id)
}
