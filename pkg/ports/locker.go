package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes access to one attempt across server replicas.
type DistributedLocker interface {
	// Lock blocks until key is held, ctx is done, or the backend gives up.
	// ttl bounds how long a crashed holder can keep the key.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
