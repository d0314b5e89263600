package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/go-shop-backend.git/internal/redisx"
	"github.com/redis/go-redis/v9"
)

const cancelPaymentPrefix = "cancel-payment-"

// Job id deterministik per payment supaya schedule idempotent saat retry.
func CancelPaymentJobID(paymentID int64) string {
	return fmt.Sprintf("%s%d", cancelPaymentPrefix, paymentID)
}

func ParseCancelPaymentJobID(jobID string) (int64, bool) {
	if !strings.HasPrefix(jobID, cancelPaymentPrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(jobID, cancelPaymentPrefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

type Job struct {
	ID      string
	Payload json.RawMessage
}

// Scheduler is a delayed job queue on a Redis sorted set: member = job id,
// score = due time in unix ms, payload in a side hash.
type Scheduler struct {
	Redis *redis.Client
}

func NewScheduler(c *redis.Client) *Scheduler { return &Scheduler{Redis: c} }

// Schedule enqueues the job to run after delay. ZAddNX: job id yang sudah
// terjadwal tidak digeser, jadi retry dari caller aman.
func (s *Scheduler) Schedule(ctx context.Context, jobID string, payload any, delay time.Duration) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("jobs: marshal payload: %w", err)
	}
	due := float64(time.Now().Add(delay).UnixMilli())
	if err := s.Redis.HSet(ctx, redisx.KeyJobPayload, jobID, b).Err(); err != nil {
		return err
	}
	return s.Redis.ZAddNX(ctx, redisx.KeyJobQueue, redis.Z{Score: due, Member: jobID}).Err()
}

func (s *Scheduler) Cancel(ctx context.Context, jobID string) error {
	if err := s.Redis.ZRem(ctx, redisx.KeyJobQueue, jobID).Err(); err != nil {
		return err
	}
	return s.Redis.HDel(ctx, redisx.KeyJobPayload, jobID).Err()
}

// Due claims jobs whose due time has passed. Claiming is the ZRem: only the
// worker that removes the member owns the job, so multiple workers can poll
// the same queue.
func (s *Scheduler) Due(ctx context.Context, now time.Time, limit int64) ([]Job, error) {
	ids, err := s.Redis.ZRangeByScore(ctx, redisx.KeyJobQueue, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, err
	}

	out := make([]Job, 0, len(ids))
	for _, id := range ids {
		n, err := s.Redis.ZRem(ctx, redisx.KeyJobQueue, id).Result()
		if err != nil {
			return out, err
		}
		if n == 0 {
			continue // worker lain sudah ambil
		}
		payload, err := s.Redis.HGet(ctx, redisx.KeyJobPayload, id).Result()
		if err != nil && err != redis.Nil {
			return out, err
		}
		_ = s.Redis.HDel(ctx, redisx.KeyJobPayload, id).Err()
		out = append(out, Job{ID: id, Payload: json.RawMessage(payload)})
	}
	return out, nil
}
