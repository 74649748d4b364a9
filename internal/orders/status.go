package orders

import "fmt"

type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusConfirmed      Status = "confirmed"
	StatusProcessing     Status = "processing"
	StatusShipped        Status = "shipped"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

var validNext = map[Status]map[Status]bool{
	StatusPendingPayment: {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed:      {StatusProcessing: true, StatusCancelled: true},
	StatusProcessing:     {StatusShipped: true, StatusCancelled: true},
	StatusShipped:        {StatusCompleted: true},
	StatusCompleted:      {},
	StatusCancelled:      {},
}

// adminAssignable is the set of target statuses the back office may set
// directly. completed is excluded: only the customer's confirm-receipt step
// takes an order there.
var adminAssignable = map[Status]bool{
	StatusPendingPayment: true,
	StatusConfirmed:      true,
	StatusProcessing:     true,
	StatusShipped:        true,
	StatusCancelled:      true,
}

// ParseStatus validates a wire value. The legacy "pending" value still sent
// by old admin clients maps to pending_payment.
func ParseStatus(s string) (Status, error) {
	if s == "pending" {
		return StatusPendingPayment, nil
	}
	st := Status(s)
	if _, ok := validNext[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func AdminAssignable(to Status) bool {
	return adminAssignable[to]
}

func (s Status) Terminal() bool {
	return len(validNext[s]) == 0
}
