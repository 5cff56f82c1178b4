package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrConfirmationInFlight = errors.New("confirmation already in progress")

// Guard admits at most one confirmation per key at a time.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

func guardKey(studentID, activityID string) string {
	return studentID + ":" + activityID
}

type MemoryGuard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{inflight: make(map[string]struct{})}
}

func (g *MemoryGuard) Acquire(_ context.Context, key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[key]; busy {
		return nil, ErrConfirmationInFlight
	}
	g.inflight[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, key)
			g.mu.Unlock()
		})
	}, nil
}

// RedisGuard shares the in-flight set across instances. The TTL bounds how
// long a crashed holder can block a key.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisGuard{client: client, ttl: ttl, prefix: "confirm:inflight:"}
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (g *RedisGuard) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := g.prefix + key
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, redisKey, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire confirm guard: %w", err)
	}
	if !ok {
		return nil, ErrConfirmationInFlight
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The request context may already be done; release regardless.
			_ = releaseScript.Run(context.Background(), g.client, []string{redisKey}, token).Err()
		})
	}, nil
}
