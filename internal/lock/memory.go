package lock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryManager mirrors the Redis manager semantics in-process: same
// all-or-nothing acquire, same TTL expiry, same token check on release.
// Dipakai untuk test dan mode dev tanpa Redis.
type MemoryManager struct {
	mu      sync.Mutex
	held    map[string]memHold
	nowFunc func() time.Time
}

type memHold struct {
	token     string
	expiresAt time.Time
}

func NewMemoryManager() *MemoryManager {
	return &MemoryManager{held: make(map[string]memHold), nowFunc: time.Now}
}

type memoryLease struct {
	m     *MemoryManager
	keys  []string
	token string
}

func (m *MemoryManager) Acquire(ctx context.Context, keys []string, ttl time.Duration) (Lease, error) {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()
	for _, k := range sorted {
		if h, ok := m.held[k]; ok && now.Before(h.expiresAt) {
			return nil, fmt.Errorf("%w: %s", ErrHeld, k)
		}
	}
	token := uuid.NewString()
	for _, k := range sorted {
		m.held[k] = memHold{token: token, expiresAt: now.Add(ttl)}
	}
	return &memoryLease{m: m, keys: sorted, token: token}, nil
}

func (l *memoryLease) Release(ctx context.Context) error {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	for _, k := range l.keys {
		if h, ok := l.m.held[k]; ok && h.token == l.token {
			delete(l.m.held, k)
		}
	}
	return nil
}
