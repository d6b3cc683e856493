package runlock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLock(t *testing.T, ttl time.Duration) (*Lock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, ttl), mr
}

func TestAcquireBlocksSecondHolder(t *testing.T) {
	lock, _ := newTestLock(t, time.Minute)
	ctx := context.Background()

	if err := lock.Acquire(ctx, "run-1"); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := lock.Acquire(ctx, "run-2"); !errors.Is(err, ErrHeld) {
		t.Fatalf("expected ErrHeld for second acquire, got %v", err)
	}

	holder, held, err := lock.Holder(ctx)
	if err != nil || !held || holder != "run-1" {
		t.Fatalf("expected run-1 to hold the lock, got %q held=%v err=%v", holder, held, err)
	}
}

func TestReleaseFreesOwnLockOnly(t *testing.T) {
	lock, _ := newTestLock(t, time.Minute)
	ctx := context.Background()

	if err := lock.Acquire(ctx, "run-1"); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	// A stale holder must not free someone else's lock.
	if err := lock.Release(ctx, "run-0"); err != nil {
		t.Fatalf("foreign release: %v", err)
	}
	if _, held, _ := lock.Holder(ctx); !held {
		t.Fatalf("lock should survive a foreign release")
	}

	if err := lock.Release(ctx, "run-1"); err != nil {
		t.Fatalf("own release: %v", err)
	}
	if err := lock.Acquire(ctx, "run-2"); err != nil {
		t.Fatalf("expected lock to be free after release, got %v", err)
	}
}

func TestLockExpiresAfterTTL(t *testing.T) {
	lock, mr := newTestLock(t, time.Minute)
	ctx := context.Background()

	if err := lock.Acquire(ctx, "run-1"); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if err := lock.Acquire(ctx, "run-2"); err != nil {
		t.Fatalf("expected crashed holder's lock to expire, got %v", err)
	}
}
