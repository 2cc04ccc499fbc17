package service

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNoopGuard(t *testing.T) {
	t.Parallel()

	release, err := NewNoopGuard().Acquire(context.Background(), "hash")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	release()
}

func TestRedisGuardFailsOpen(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	guard := NewRedisGuard(client, time.Second, nil)
	release, err := guard.Acquire(context.Background(), "hash")
	if err != nil {
		t.Fatalf("unreachable redis must not block submissions: %v", err)
	}
	release()

	if _, ok := NewRedisGuard(nil, time.Second, nil).(noopGuard); !ok {
		t.Fatalf("nil client should yield the noop guard")
	}
}
