package discounts

import (
	"errors"
	"time"
)

type Type string

const (
	TypePercentage Type = "percentage"
	TypeFixed      Type = "fixed"
)

var (
	ErrNotFound     = errors.New("discount not found")
	ErrInactive     = errors.New("discount is not active")
	ErrExpired      = errors.New("discount is outside its validity window")
	ErrUsedUp       = errors.New("discount usage limit reached")
	ErrMinOrder     = errors.New("order total below discount minimum")
	ErrInvalidInput = errors.New("invalid discount definition")
)

type Discount struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	Type          Type       `json:"type"`
	Value         int        `json:"value"` // percent for percentage, centavos for fixed
	MinOrderCents int        `json:"min_order_cents"`
	MaxCents      int        `json:"max_cents,omitempty"` // cap for percentage type, 0 = uncapped
	UsageLimit    int        `json:"usage_limit,omitempty"`
	UsedCount     int        `json:"used_count"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
}

// AmountFor computes the discount for a subtotal after checking every
// constraint. The result never exceeds the subtotal.
func (d *Discount) AmountFor(subtotalCents int, now time.Time) (int, error) {
	if !d.IsActive {
		return 0, ErrInactive
	}
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return 0, ErrExpired
	}
	if d.EndDate != nil && now.After(*d.EndDate) {
		return 0, ErrExpired
	}
	if d.UsageLimit > 0 && d.UsedCount >= d.UsageLimit {
		return 0, ErrUsedUp
	}
	if subtotalCents < d.MinOrderCents {
		return 0, ErrMinOrder
	}

	var amount int
	switch d.Type {
	case TypePercentage:
		amount = subtotalCents * d.Value / 100
		if d.MaxCents > 0 && amount > d.MaxCents {
			amount = d.MaxCents
		}
	case TypeFixed:
		amount = d.Value
	default:
		return 0, ErrInvalidInput
	}
	if amount > subtotalCents {
		amount = subtotalCents
	}
	return amount, nil
}

func (d *Discount) validate() error {
	if d.Code == "" {
		return ErrInvalidInput
	}
	switch d.Type {
	case TypePercentage:
		if d.Value < 1 || d.Value > 100 {
			return ErrInvalidInput
		}
	case TypeFixed:
		if d.Value < 1 {
			return ErrInvalidInput
		}
	default:
		return ErrInvalidInput
	}
	if d.MinOrderCents < 0 || d.MaxCents < 0 || d.UsageLimit < 0 {
		return ErrInvalidInput
	}
	return nil
}
