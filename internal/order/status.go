package order

type Status string

const (
	StatusPendingPayment  Status = "PENDING_PAYMENT"
	StatusPendingPickup   Status = "PENDING_PICKUP"
	StatusPendingDelivery Status = "PENDING_DELIVERY"
	StatusDelivered       Status = "DELIVERED"
	StatusReturned        Status = "RETURNED"
	StatusCancelled       Status = "CANCELLED"
)

var validNext = map[Status]map[Status]bool{
	StatusPendingPayment:  {StatusPendingPickup: true, StatusCancelled: true},
	StatusPendingPickup:   {StatusPendingDelivery: true},
	StatusPendingDelivery: {StatusDelivered: true, StatusReturned: true},
	StatusDelivered:       {StatusReturned: true},
	StatusReturned:        {},
	StatusCancelled:       {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)
