package orders

const (
	TopicOrderCreated    = "order.created"
	TopicPaymentAccepted = "order.payment.accepted"
	TopicStatusChanged   = "order.status.changed"
)

// Partition key = order id so all events for one order stay ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
