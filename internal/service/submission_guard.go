package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SubmissionGuard serializes submissions that share a content hash across
// service instances. Acquire returns a release func that must always be called.
type SubmissionGuard interface {
	Acquire(ctx context.Context, hash string) (release func(), err error)
}

type noopGuard struct{}

// NewNoopGuard returns a guard that never blocks. The store's unique content
// hash still turns a lost insert race into a merge.
func NewNoopGuard() SubmissionGuard {
	return noopGuard{}
}

func (noopGuard) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

const (
	claimKeyPrefix   = "civic-intake:submit:"
	claimPollEvery   = 50 * time.Millisecond
	releaseScriptSrc = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) end return 0`
)

var releaseScript = redis.NewScript(releaseScriptSrc)

type redisGuard struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisGuard claims "civic-intake:submit:<hash>" with SETNX for ttl. Redis
// failures are logged and the submission proceeds unguarded.
func NewRedisGuard(client *redis.Client, ttl time.Duration, logger *zap.Logger) SubmissionGuard {
	if client == nil {
		return NewNoopGuard()
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisGuard{client: client, ttl: ttl, logger: logger}
}

func (g *redisGuard) Acquire(ctx context.Context, hash string) (func(), error) {
	key := claimKeyPrefix + hash
	token := uuid.NewString()
	deadline := time.Now().Add(g.ttl)

	for {
		ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.logger.Warn("submission claim unavailable, continuing unguarded",
				zap.String("hash", hash), zap.Error(err))
			return func() {}, nil
		}
		if ok {
			return func() { g.release(key, token) }, nil
		}
		if time.Now().After(deadline) {
			g.logger.Warn("submission claim timed out, continuing unguarded", zap.String("hash", hash))
			return func() {}, nil
		}

		timer := time.NewTimer(claimPollEvery)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (g *redisGuard) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, g.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
		g.logger.Warn("failed to release submission claim", zap.String("key", key), zap.Error(err))
	}
}
