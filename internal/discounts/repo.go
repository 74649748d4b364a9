package discounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const discountColumns = `id, code, type, value, min_order_cents, max_cents,
	usage_limit, used_count, start_date, end_date, is_active, created_at`

func scanDiscount(row pgx.Row) (*Discount, error) {
	var d Discount
	err := row.Scan(&d.ID, &d.Code, &d.Type, &d.Value, &d.MinOrderCents, &d.MaxCents,
		&d.UsageLimit, &d.UsedCount, &d.StartDate, &d.EndDate, &d.IsActive, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repo) List(ctx context.Context) ([]Discount, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+discountColumns+` FROM discounts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Discount
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *Repo) GetByCode(ctx context.Context, code string) (*Discount, error) {
	return scanDiscount(r.DB.QueryRow(ctx,
		`SELECT `+discountColumns+` FROM discounts WHERE code=$1`, Normalize(code)))
}

func (r *Repo) Create(ctx context.Context, d Discount) (*Discount, error) {
	d.Code = Normalize(d.Code)
	if err := d.validate(); err != nil {
		return nil, err
	}
	d.ID = uuid.NewString()
	_, err := r.DB.Exec(ctx, `
		INSERT INTO discounts(id, code, type, value, min_order_cents, max_cents,
			usage_limit, used_count, start_date, end_date, is_active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,0,$8,$9,$10,$11)`,
		d.ID, d.Code, d.Type, d.Value, d.MinOrderCents, d.MaxCents,
		d.UsageLimit, d.StartDate, d.EndDate, d.IsActive, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return scanDiscount(r.DB.QueryRow(ctx, `SELECT `+discountColumns+` FROM discounts WHERE id=$1`, d.ID))
}

func (r *Repo) Update(ctx context.Context, id string, d Discount) (*Discount, error) {
	d.Code = Normalize(d.Code)
	if err := d.validate(); err != nil {
		return nil, err
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE discounts SET code=$2, type=$3, value=$4, min_order_cents=$5,
			max_cents=$6, usage_limit=$7, start_date=$8, end_date=$9, is_active=$10
		WHERE id=$1`,
		id, d.Code, d.Type, d.Value, d.MinOrderCents, d.MaxCents,
		d.UsageLimit, d.StartDate, d.EndDate, d.IsActive)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return scanDiscount(r.DB.QueryRow(ctx, `SELECT `+discountColumns+` FROM discounts WHERE id=$1`, id))
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM discounts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Preview computes the amount without consuming a use. Redemption itself
// happens inside the order-create transaction.
func (r *Repo) Preview(ctx context.Context, code string, subtotalCents int) (int, error) {
	d, err := r.GetByCode(ctx, code)
	if err != nil {
		return 0, err
	}
	return d.AmountFor(subtotalCents, time.Now().UTC())
}

// Normalize is the canonical stored form of a code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
