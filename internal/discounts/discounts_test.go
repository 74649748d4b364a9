package discounts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func active(typ Type, value int) Discount {
	return Discount{Code: "SAVE", Type: typ, Value: value, IsActive: true}
}

func TestAmountForPercentage(t *testing.T) {
	d := active(TypePercentage, 10)

	got, err := d.AmountFor(10000, now)
	require.NoError(t, err)
	assert.Equal(t, 1000, got)

	// cap applies
	d.MaxCents = 500
	got, err = d.AmountFor(10000, now)
	require.NoError(t, err)
	assert.Equal(t, 500, got)
}

func TestAmountForFixed(t *testing.T) {
	d := active(TypeFixed, 2500)

	got, err := d.AmountFor(10000, now)
	require.NoError(t, err)
	assert.Equal(t, 2500, got)

	// never exceeds the subtotal
	got, err = d.AmountFor(1500, now)
	require.NoError(t, err)
	assert.Equal(t, 1500, got)
}

func TestAmountForConstraints(t *testing.T) {
	t.Run("inactive", func(t *testing.T) {
		d := active(TypeFixed, 100)
		d.IsActive = false
		_, err := d.AmountFor(10000, now)
		assert.ErrorIs(t, err, ErrInactive)
	})

	t.Run("before window", func(t *testing.T) {
		d := active(TypeFixed, 100)
		start := now.Add(24 * time.Hour)
		d.StartDate = &start
		_, err := d.AmountFor(10000, now)
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("after window", func(t *testing.T) {
		d := active(TypeFixed, 100)
		end := now.Add(-24 * time.Hour)
		d.EndDate = &end
		_, err := d.AmountFor(10000, now)
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("usage limit reached", func(t *testing.T) {
		d := active(TypeFixed, 100)
		d.UsageLimit = 3
		d.UsedCount = 3
		_, err := d.AmountFor(10000, now)
		assert.ErrorIs(t, err, ErrUsedUp)
	})

	t.Run("below minimum order", func(t *testing.T) {
		d := active(TypePercentage, 10)
		d.MinOrderCents = 5000
		_, err := d.AmountFor(4999, now)
		assert.ErrorIs(t, err, ErrMinOrder)

		got, err := d.AmountFor(5000, now)
		require.NoError(t, err)
		assert.Equal(t, 500, got)
	})

	t.Run("unknown type", func(t *testing.T) {
		d := active("bogo", 1)
		_, err := d.AmountFor(10000, now)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestValidate(t *testing.T) {
	ok := active(TypePercentage, 50)
	assert.NoError(t, ok.validate())

	bad := []Discount{
		{Code: "", Type: TypeFixed, Value: 100},
		{Code: "X", Type: TypePercentage, Value: 0},
		{Code: "X", Type: TypePercentage, Value: 101},
		{Code: "X", Type: TypeFixed, Value: 0},
		{Code: "X", Type: "weird", Value: 10},
		{Code: "X", Type: TypeFixed, Value: 10, MinOrderCents: -1},
	}
	for _, d := range bad {
		assert.ErrorIs(t, d.validate(), ErrInvalidInput)
	}
}
