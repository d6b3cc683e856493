// Package runlock guards automation runs with a distributed lock so two
// triggers (API, scheduler, CLI) cannot race to assign the same contractor
// pool past its intended workload.
package runlock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"propertyops_backend/platform/apperr"
)

const lockKey = "propertyops:automation:run_lock"

// ErrHeld is returned by Acquire when another run already holds the lock.
var ErrHeld = apperr.Conflict("an automation run is already in progress")

// Lock is a redis-backed run lock with a TTL safety net: a crashed holder
// releases the lock automatically when the TTL expires.
type Lock struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Lock {
	return &Lock{client: client, ttl: ttl}
}

// Acquire takes the lock for the given run. The run id is stored as the lock
// value so Release only frees a lock this run actually holds.
func (l *Lock) Acquire(ctx context.Context, runID string) error {
	ok, err := l.client.SetNX(ctx, lockKey, runID, l.ttl).Result()
	if err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "acquire run lock", err)
	}
	if !ok {
		return ErrHeld
	}
	return nil
}

// Release frees the lock if this run holds it. A lock taken over by another
// run (after TTL expiry) is left alone.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func (l *Lock) Release(ctx context.Context, runID string) error {
	if err := releaseScript.Run(ctx, l.client, []string{lockKey}, runID).Err(); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "release run lock", err)
	}
	return nil
}

// Holder returns the id of the run currently holding the lock, if any.
func (l *Lock) Holder(ctx context.Context) (string, bool, error) {
	val, err := l.client.Get(ctx, lockKey).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperr.Wrap(apperr.KindUnavailable, "read run lock", err)
	}
	return val, true, nil
}
