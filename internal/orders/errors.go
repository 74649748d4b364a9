package orders

import "errors"

var (
	ErrNotFound           = errors.New("order not found")
	ErrForbidden          = errors.New("order does not belong to user")
	ErrUnknownStatus      = errors.New("unknown status")
	ErrIllegalTransition  = errors.New("illegal status transition")
	ErrNotEligible        = errors.New("order not eligible for this step")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrEmptyOrder         = errors.New("order has no items")
)
