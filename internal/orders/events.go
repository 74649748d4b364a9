package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated         = "OrderCreated"
	EventPaymentProofAccepted = "PaymentProofAccepted"
	EventOrderStatusChanged   = "OrderStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type ItemQty struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type OrderCreatedPayload struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	Items       []ItemQty `json:"items"`
	TotalCents  int       `json:"total_cents"`
}

// PaymentProofAccepted fires once per order, after the proof transaction
// commits with stock deducted. The worker reconciles the cart off this event.
type PaymentProofAcceptedPayload struct {
	OrderID string    `json:"order_id"`
	UserID  string    `json:"user_id"`
	Items   []ItemQty `json:"items"`
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
}
