package orders

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oldgoods/thriftstore/internal/discounts"
)

type fakeRow struct{ scan func(dest ...any) error }

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

// fakeTx implements only what redeemDiscount touches; the embedded interface
// panics on anything else.
type fakeTx struct {
	pgx.Tx
	row     fakeRow
	execTag pgconn.CommandTag
	execed  bool
}

func (t *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row { return t.row }

func (t *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	t.execed = true
	return t.execTag, nil
}

func discountRow(d discounts.Discount) fakeRow {
	return fakeRow{scan: func(dest ...any) error {
		*dest[0].(*string) = d.ID
		*dest[1].(*discounts.Type) = d.Type
		*dest[2].(*int) = d.Value
		*dest[3].(*int) = d.MinOrderCents
		*dest[4].(*int) = d.MaxCents
		*dest[5].(*int) = d.UsageLimit
		*dest[6].(*int) = d.UsedCount
		*dest[7].(**time.Time) = d.StartDate
		*dest[8].(**time.Time) = d.EndDate
		*dest[9].(*bool) = d.IsActive
		return nil
	}}
}

func TestRedeemDiscountPercentage(t *testing.T) {
	tx := &fakeTx{
		row: discountRow(discounts.Discount{
			ID: "d-1", Type: discounts.TypePercentage, Value: 10, IsActive: true,
		}),
		execTag: pgconn.NewCommandTag("UPDATE 1"),
	}

	amount, err := redeemDiscount(context.Background(), tx, "save10", 45000)
	require.NoError(t, err)
	assert.Equal(t, 4500, amount)
	assert.True(t, tx.execed, "a successful redemption consumes a use")
}

func TestRedeemDiscountNotFound(t *testing.T) {
	tx := &fakeTx{row: fakeRow{scan: func(...any) error { return pgx.ErrNoRows }}}

	_, err := redeemDiscount(context.Background(), tx, "nope", 45000)
	assert.ErrorIs(t, err, discounts.ErrNotFound)
	assert.False(t, tx.execed)
}

func TestRedeemDiscountInactive(t *testing.T) {
	tx := &fakeTx{row: discountRow(discounts.Discount{
		ID: "d-2", Type: discounts.TypeFixed, Value: 1000, IsActive: false,
	})}

	_, err := redeemDiscount(context.Background(), tx, "old", 45000)
	assert.ErrorIs(t, err, discounts.ErrInactive)
	assert.False(t, tx.execed, "ineligible codes consume nothing")
}

func TestRedeemDiscountGuardedUpdateLosesLastSlot(t *testing.T) {
	// The row read sees a slot left, but the guarded UPDATE matches nothing;
	// the loser of the race gets the usage-limit error, not a free redemption.
	tx := &fakeTx{
		row: discountRow(discounts.Discount{
			ID: "d-3", Type: discounts.TypeFixed, Value: 1000,
			UsageLimit: 5, UsedCount: 4, IsActive: true,
		}),
		execTag: pgconn.NewCommandTag("UPDATE 0"),
	}

	_, err := redeemDiscount(context.Background(), tx, "last", 45000)
	assert.ErrorIs(t, err, discounts.ErrUsedUp)
}
