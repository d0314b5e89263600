package jobs

import (
	"context"
	"errors"
	"testing"
)

type fakeCanceller struct {
	calls []int64
	err   error
}

func (f *fakeCanceller) CancelUnpaid(ctx context.Context, paymentID int64) (bool, error) {
	f.calls = append(f.calls, paymentID)
	return f.err == nil, f.err
}

func TestWorkerHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatches cancel-payment jobs", func(t *testing.T) {
		fc := &fakeCanceller{}
		w := &Worker{Orders: fc}
		w.handle(ctx, Job{ID: "cancel-payment-42"})
		if len(fc.calls) != 1 || fc.calls[0] != 42 {
			t.Fatalf("expected CancelUnpaid(42), got %v", fc.calls)
		}
	})

	t.Run("drops unknown job ids", func(t *testing.T) {
		fc := &fakeCanceller{}
		w := &Worker{Orders: fc}
		w.handle(ctx, Job{ID: "reindex-products-1"})
		if len(fc.calls) != 0 {
			t.Fatalf("unknown job must not dispatch, got %v", fc.calls)
		}
	})

	t.Run("errors do not panic", func(t *testing.T) {
		fc := &fakeCanceller{err: errors.New("db down")}
		w := &Worker{Orders: fc}
		w.handle(ctx, Job{ID: "cancel-payment-42"})
		if len(fc.calls) != 1 {
			t.Fatalf("expected one attempt, got %v", fc.calls)
		}
	})
}
