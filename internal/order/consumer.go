package order

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	kafkax "github.com/ariefcatur/go-shop-backend.git/internal/kafka"
	"github.com/ariefcatur/go-shop-backend.git/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// PaymentConsumer applies external payment confirmations from the
// payment.paid topic.
type PaymentConsumer struct {
	Repo        *Repo
	Redis       *redis.Client
	ServiceName string
}

// HandlePaymentPaid dipasang sebagai handler consumer.
func (c *PaymentConsumer) HandlePaymentPaid(ctx context.Context, m kafkago.Message) error {
	var env Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != EventPaymentPaid {
		return nil // ignore
	}

	// dedup via Redis (event_id); MarkPaid sendiri juga idempotent
	if c.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, "payments", env.EventID)
		exists, _ := redisx.Exists(ctx, c.Redis, dkey)
		if exists {
			return nil
		}
		_ = c.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}

	p, err := kafkax.UnwrapPayload[PaymentPaidPayload](env.Payload)
	if err != nil {
		return err
	}

	paid, err := c.Repo.MarkPaid(ctx, p.PaymentID)
	if err != nil {
		return err
	}
	if !paid {
		log.Printf("%s: payment %d not pending, confirmation ignored", c.ServiceName, p.PaymentID)
	}
	return nil
}
