package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const productColumns = `id, product_id, name, category, price_cents, stock,
	condition, size, material, description, image, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.ProductID, &p.Name, &p.Category, &p.PriceCents, &p.Stock,
		&p.Condition, &p.Size, &p.Material, &p.Description, &p.Image, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns products, active only unless includeInactive (admin view).
func (r *Repo) List(ctx context.Context, includeInactive bool) ([]Product, error) {
	q := `SELECT ` + productColumns + ` FROM products`
	if !includeInactive {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY created_at DESC`
	return r.queryProducts(ctx, q)
}

// Search matches name, category or description, active products only.
func (r *Repo) Search(ctx context.Context, query string) ([]Product, error) {
	pattern := "%" + query + "%"
	return r.queryProducts(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE is_active AND (name ILIKE $1 OR category ILIKE $1 OR description ILIKE $1)
		ORDER BY name`, pattern)
}

func (r *Repo) queryProducts(ctx context.Context, q string, args ...any) ([]Product, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (*Product, error) {
	return scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
}

func (r *Repo) Create(ctx context.Context, in ProductInput) (*Product, error) {
	if in.Name == "" || in.Category == "" {
		return nil, fmt.Errorf("name and category are required")
	}
	if in.PriceCents < 0 || in.Stock < 0 {
		return nil, fmt.Errorf("price and stock must not be negative")
	}
	if in.Condition == "" {
		in.Condition = "Good"
	}

	var seq int
	if err := r.DB.QueryRow(ctx, `SELECT nextval('product_display_seq')`).Scan(&seq); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	displayID := fmt.Sprintf("PRD-%06d", seq)
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products(id, product_id, name, category, price_cents, stock,
			condition, size, material, description, image, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,true,$12,$12)`,
		id, displayID, in.Name, in.Category, in.PriceCents, in.Stock,
		in.Condition, in.Size, in.Material, in.Description, in.Image, now)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *Repo) Update(ctx context.Context, id string, in ProductInput) (*Product, error) {
	if in.PriceCents < 0 || in.Stock < 0 {
		return nil, fmt.Errorf("price and stock must not be negative")
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE products SET name=$2, category=$3, price_cents=$4, stock=$5,
			condition=$6, size=$7, material=$8, description=$9,
			image = CASE WHEN $10 = '' THEN image ELSE $10 END,
			updated_at=now()
		WHERE id=$1`,
		id, in.Name, in.Category, in.PriceCents, in.Stock,
		in.Condition, in.Size, in.Material, in.Description, in.Image)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

// Delete is a soft delete; order item snapshots keep referencing the row.
func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `UPDATE products SET is_active=false, updated_at=now() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CheckStock reports whether the requested quantity is available.
func (r *Repo) CheckStock(ctx context.Context, id string, qty int) (ok bool, available int, err error) {
	err = r.DB.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 AND is_active`, id).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, 0, ErrNotFound
	} else if err != nil {
		return false, 0, err
	}
	return available >= qty, available, nil
}

// SetStock is the admin stock override.
func (r *Repo) SetStock(ctx context.Context, id string, stock int) error {
	if stock < 0 {
		return fmt.Errorf("stock must not be negative")
	}
	ct, err := r.DB.Exec(ctx, `UPDATE products SET stock=$2, updated_at=now() WHERE id=$1`, id, stock)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
