package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// RateRule is a fixed-window limit: at most MaxAttempts per Window.
type RateRule struct {
	MaxAttempts int64
	Window      time.Duration
}

// RateLimiter decides whether another attempt is allowed for a key.
type RateLimiter interface {
	Allow(ctx context.Context, key string, rule RateRule) (bool, error)
}

// Limiter is a RateLimiter backed by ulule/limiter. Counters for different
// rules share one store but never one key.
type Limiter struct {
	store limiter.Store

	mu       sync.Mutex
	limiters map[RateRule]*limiter.Limiter
}

// NewMemoryLimiter keeps counters in process memory.
func NewMemoryLimiter() *Limiter {
	return NewLimiter(memory.NewStore())
}

// NewRedisLimiter keeps counters in Redis so every instance shares them.
func NewRedisLimiter(client *redis.Client, prefix string) (*Limiter, error) {
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, fmt.Errorf("create redis limiter store: %w", err)
	}
	return NewLimiter(store), nil
}

// NewLimiter wraps any ulule limiter store.
func NewLimiter(store limiter.Store) *Limiter {
	return &Limiter{store: store, limiters: make(map[RateRule]*limiter.Limiter)}
}

// Allow counts one attempt for key under rule.
func (l *Limiter) Allow(ctx context.Context, key string, rule RateRule) (bool, error) {
	lctx, err := l.forRule(rule).Get(ctx, ruleKey(key, rule))
	if err != nil {
		return false, fmt.Errorf("rate limiter: %w", err)
	}
	return !lctx.Reached, nil
}

func (l *Limiter) forRule(rule RateRule) *limiter.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[rule]
	if !ok {
		lim = limiter.New(l.store, limiter.Rate{Period: rule.Window, Limit: rule.MaxAttempts})
		l.limiters[rule] = lim
	}
	return lim
}

func ruleKey(key string, rule RateRule) string {
	return fmt.Sprintf("%d:%d:%s", rule.MaxAttempts, rule.Window.Milliseconds(), key)
}

// Fingerprint identifies a client by source IP and user agent.
func Fingerprint(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	sum := sha256.Sum256([]byte(host + "|" + r.UserAgent()))
	return hex.EncodeToString(sum[:16])
}
