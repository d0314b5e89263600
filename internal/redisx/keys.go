package redisx

import "time"

const (
	// Lease per SKU saat checkout: lock:sku:{sku_id} -> token
	KeySKULock = "lock:sku:%d"

	// Session access token: session:{token} -> user_id
	KeySession = "session:%s"

	// Cache status order: order_status:{order_id} -> status string
	KeyOrderStatus = "order_status:%d"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Delayed job queue (sorted set: member = job id, score = due unix ms)
	KeyJobQueue = "jobs:delayed"

	// Payload per job: hash jobs:payload {job_id -> json}
	KeyJobPayload = "jobs:payload"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
