package order

import "strconv"

const (
	TopicOrderCreated   = "order.created"
	TopicOrderCancelled = "order.cancelled"
	TopicPaymentPaid    = "payment.paid" // diisi oleh payment service eksternal
)

// Partition key = payment_id, supaya semua event satu checkout terurut.
func PartitionKey(id int64) []byte { return []byte(strconv.FormatInt(id, 10)) }
