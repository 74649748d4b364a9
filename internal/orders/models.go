package orders

import "time"

type PaymentMethod string

const (
	PaymentGCash   PaymentMethod = "gcash"
	PaymentPayMaya PaymentMethod = "paymaya"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	return m == PaymentGCash || m == PaymentPayMaya
}

// ShippingAddress is denormalized onto the order at checkout; later edits to
// the user's profile do not touch it.
type ShippingAddress struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Line1    string `json:"line1"`
	City     string `json:"city"`
	Province string `json:"province"`
	ZIP      string `json:"zip,omitempty"`
}

// Item is a snapshot of the product at order time, not a live link.
type Item struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	PriceCents int    `json:"price_cents"`
	Qty        int    `json:"qty"`
	Image      string `json:"image,omitempty"`
	Condition  string `json:"condition,omitempty"`
	Size       string `json:"size,omitempty"`
	Material   string `json:"material,omitempty"`
}

type Order struct {
	ID            string          `json:"id"`
	OrderNumber   string          `json:"order_number"`
	UserID        string          `json:"user_id"`
	Status        Status          `json:"status"`
	Items         []Item          `json:"items"`
	SubtotalCents int             `json:"subtotal_cents"`
	ShippingCents int             `json:"shipping_cents"`
	DiscountCents int             `json:"discount_cents,omitempty"`
	TotalCents    int             `json:"total_cents"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	PaymentProof  string          `json:"payment_proof,omitempty"`
	ReceiptProof  string          `json:"receipt_proof,omitempty"`
	StockDeducted bool            `json:"stock_deducted"`
	Address       ShippingAddress `json:"shipping_address"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AdminSummary is the back-office list row, joined with the customer name.
type AdminSummary struct {
	ID           string    `json:"id"`
	OrderNumber  string    `json:"order_number"`
	CustomerName string    `json:"customer_name"`
	Username     string    `json:"username"`
	Status       Status    `json:"status"`
	TotalCents   int       `json:"total_cents"`
	CreatedAt    time.Time `json:"created_at"`
}
