package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemoryManagerAcquireRelease(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager()

	lease, err := m.Acquire(ctx, []string{"lock:sku:1", "lock:sku:2"}, time.Minute)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	if _, err := m.Acquire(ctx, []string{"lock:sku:2", "lock:sku:3"}, time.Minute); !errors.Is(err, ErrHeld) {
		t.Fatalf("overlapping acquire should fail with ErrHeld, got %v", err)
	}

	// all-or-nothing: the failed acquire must not have claimed sku:3
	l3, err := m.Acquire(ctx, []string{"lock:sku:3"}, time.Minute)
	if err != nil {
		t.Fatalf("sku:3 should be free after failed overlapping acquire: %v", err)
	}
	_ = l3.Release(ctx)

	if err := lease.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	lease2, err := m.Acquire(ctx, []string{"lock:sku:1", "lock:sku:2"}, time.Minute)
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	_ = lease2.Release(ctx)
}

func TestMemoryManagerTTLExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager()

	now := time.Now()
	m.nowFunc = func() time.Time { return now }

	if _, err := m.Acquire(ctx, []string{"lock:sku:1"}, 3*time.Second); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := m.Acquire(ctx, []string{"lock:sku:1"}, 3*time.Second); !errors.Is(err, ErrHeld) {
		t.Fatalf("expected ErrHeld before expiry, got %v", err)
	}

	now = now.Add(4 * time.Second)
	if _, err := m.Acquire(ctx, []string{"lock:sku:1"}, 3*time.Second); err != nil {
		t.Fatalf("expired lease should be reacquirable: %v", err)
	}
}

func TestMemoryManagerStaleReleaseKeepsNewHolder(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager()

	now := time.Now()
	m.nowFunc = func() time.Time { return now }

	old, err := m.Acquire(ctx, []string{"lock:sku:1"}, time.Second)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	now = now.Add(2 * time.Second)
	if _, err := m.Acquire(ctx, []string{"lock:sku:1"}, time.Minute); err != nil {
		t.Fatalf("reacquire after expiry: %v", err)
	}

	// the expired holder releasing late must not free the new holder's lease
	_ = old.Release(ctx)
	if _, err := m.Acquire(ctx, []string{"lock:sku:1"}, time.Minute); !errors.Is(err, ErrHeld) {
		t.Fatalf("stale release must not drop the new lease, got %v", err)
	}
}

func TestMemoryManagerSingleWinner(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager()

	const n = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Acquire(ctx, []string{"lock:sku:1"}, time.Minute); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if winners != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", winners)
	}
}
