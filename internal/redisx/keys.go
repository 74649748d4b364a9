package redisx

import "time"

const (
	// Session token -> user id + admin flag: session:{token}
	KeySession = "session:%s"

	// Idempotency for order creation: idem:order:create:{external_id} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%s"

	// Cache for single-order status reads: order_status:{order_id}
	KeyOrderStatus = "order_status:%s"

	// Event dedup per consumer: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
