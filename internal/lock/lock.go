package lock

import (
	"context"
	"errors"
	"time"
)

// ErrHeld: salah satu key sedang dipegang pihak lain. Caller boleh retry.
var ErrHeld = errors.New("lock: resource already held")

// Lease is a time-bounded exclusive hold on a set of resource keys.
// Release is best-effort; the TTL guarantees the hold ends either way.
type Lease interface {
	Release(ctx context.Context) error
}

// Manager grants a lease over all keys or none of them.
type Manager interface {
	Acquire(ctx context.Context, keys []string, ttl time.Duration) (Lease, error)
}
