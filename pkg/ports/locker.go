package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a runner lock.
type UnlockFunc func(ctx context.Context) error

// RunnerLocker serializes workers of the same workspace across
// replicas. It is a scheduling guard only; the workspace's own Locked
// flag remains the human-facing gate checked inside every transition.
type RunnerLocker interface {
	// Lock blocks until the lock for key is acquired, the context is
	// canceled, or the TTL expires. The returned UnlockFunc MUST be
	// called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
