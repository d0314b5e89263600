package jobs

import (
	"context"
	"log"
	"time"
)

// PaymentCanceller cancels a pending payment and its unpaid orders.
// Implemented by order.Repo.
type PaymentCanceller interface {
	CancelUnpaid(ctx context.Context, paymentID int64) (bool, error)
}

// Worker polls the delayed queue and runs cancel-payment jobs.
type Worker struct {
	Scheduler *Scheduler
	Orders    PaymentCanceller
	Interval  time.Duration
	BatchSize int64
}

func (w *Worker) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = time.Second
	}
	batch := w.BatchSize
	if batch <= 0 {
		batch = 100
	}

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			jobs, err := w.Scheduler.Due(ctx, time.Now(), batch)
			if err != nil {
				log.Printf("jobs: poll due: %v", err)
				continue
			}
			for _, j := range jobs {
				w.handle(ctx, j)
			}
		}
	}
}

func (w *Worker) handle(ctx context.Context, j Job) {
	paymentID, ok := ParseCancelPaymentJobID(j.ID)
	if !ok {
		log.Printf("jobs: unknown job id %q, dropped", j.ID)
		return
	}
	cancelled, err := w.Orders.CancelUnpaid(ctx, paymentID)
	if err != nil {
		log.Printf("jobs: cancel payment %d: %v", paymentID, err)
		return
	}
	if cancelled {
		log.Printf("jobs: payment %d expired, orders cancelled", paymentID)
	}
}
