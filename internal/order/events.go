package order

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated   = "OrderCreated"
	EventOrderCancelled = "OrderCancelled"
	EventPaymentPaid    = "PaymentPaid"
)

const (
	CancelReasonUser           = "USER_CANCELLED"
	CancelReasonPaymentTimeout = "PAYMENT_TIMEOUT"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderRef struct {
	OrderID int64 `json:"order_id"`
	ShopID  int64 `json:"shop_id"`
}

type OrderCreatedPayload struct {
	PaymentID int64      `json:"payment_id"`
	UserID    int64      `json:"user_id"`
	Orders    []OrderRef `json:"orders"`
}

type OrderCancelledPayload struct {
	OrderID   int64  `json:"order_id"`
	PaymentID int64  `json:"payment_id"`
	Reason    string `json:"reason"`
}

type PaymentPaidPayload struct {
	PaymentID int64 `json:"payment_id"`
}

// CancelPaymentPayload is the delayed job body for cancel-payment-{id}.
type CancelPaymentPayload struct {
	PaymentID int64 `json:"payment_id"`
	UserID    int64 `json:"user_id"`
}
