package cart

import "errors"

var (
	ErrNotInCart       = errors.New("item not in cart")
	ErrProductNotFound = errors.New("product not found")
	ErrStockExceeded   = errors.New("quantity exceeds available stock")
	ErrInvalidQty      = errors.New("quantity must be at least 1")
)

// Line is a stored cart row joined with the live product, so the client
// always sees current price and stock rather than a stale snapshot.
type Line struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	PriceCents   int    `json:"price_cents"`
	Condition    string `json:"condition,omitempty"`
	Image        string `json:"image,omitempty"`
	Qty          int    `json:"qty"`
	CurrentStock int    `json:"current_stock"`
	Selected     bool   `json:"selected"`
	Available    bool   `json:"available"`
}

// ReconciledQty is the post-order quantity for a cart line:
// max(old - ordered, 0). A result of 0 means the line is removed.
func ReconciledQty(old, ordered int) int {
	if ordered >= old {
		return 0
	}
	return old - ordered
}
