package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oldgoods/thriftstore/internal/orders"
)

type Repo struct{ DB *pgxpool.Pool }

// Get returns the user's lines joined with live product rows. Quantities are
// clamped to current stock in the view (the stored row is untouched);
// inactive products surface as unavailable, never selected.
func (r *Repo) Get(ctx context.Context, userID string) ([]Line, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT ci.product_id, ci.qty, ci.selected,
			COALESCE(p.name,''), COALESCE(p.price_cents,0), COALESCE(p.condition,''),
			COALESCE(p.image,''), COALESCE(p.stock,0), COALESCE(p.is_active,false)
		FROM cart_items ci
		LEFT JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id=$1
		ORDER BY ci.added_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var l Line
		var active bool
		if err := rows.Scan(&l.ProductID, &l.Qty, &l.Selected,
			&l.Name, &l.PriceCents, &l.Condition, &l.Image, &l.CurrentStock, &active); err != nil {
			return nil, err
		}
		l.Available = active && l.CurrentStock > 0
		if !l.Available {
			l.Selected = false
			l.CurrentStock = 0
		}
		if l.Qty > l.CurrentStock {
			l.Qty = l.CurrentStock
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Add upserts a line, capping the resulting quantity at available stock.
func (r *Repo) Add(ctx context.Context, userID, productID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQty
	}
	stock, err := r.activeStock(ctx, productID)
	if err != nil {
		return err
	}

	var current int
	err = r.DB.QueryRow(ctx, `SELECT qty FROM cart_items WHERE user_id=$1 AND product_id=$2`, userID, productID).Scan(&current)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if current+qty > stock {
		return fmt.Errorf("%w: only %d available", ErrStockExceeded, stock)
	}

	_, err = r.DB.Exec(ctx, `
		INSERT INTO cart_items(user_id, product_id, qty, selected, added_at, updated_at)
		VALUES ($1,$2,$3,false,now(),now())
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET qty = cart_items.qty + EXCLUDED.qty, updated_at = now()`,
		userID, productID, qty)
	return err
}

// Update changes quantity and/or the selected flag. Selecting an out-of-stock
// line is silently forced off, matching the storefront behavior.
func (r *Repo) Update(ctx context.Context, userID, productID string, qty *int, selected *bool) error {
	stock, err := r.activeStock(ctx, productID)
	if err != nil {
		return err
	}
	if qty != nil {
		if *qty < 1 {
			return ErrInvalidQty
		}
		if *qty > stock {
			return fmt.Errorf("%w: only %d available", ErrStockExceeded, stock)
		}
	}

	set := `updated_at = now()`
	args := []any{userID, productID}
	if qty != nil {
		args = append(args, *qty)
		set += fmt.Sprintf(`, qty = $%d`, len(args))
	}
	if selected != nil {
		sel := *selected && stock > 0
		args = append(args, sel)
		set += fmt.Sprintf(`, selected = $%d`, len(args))
	}

	ct, err := r.DB.Exec(ctx, `UPDATE cart_items SET `+set+` WHERE user_id=$1 AND product_id=$2`, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotInCart
	}
	return nil
}

func (r *Repo) Remove(ctx context.Context, userID, productID string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1 AND product_id=$2`, userID, productID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotInCart
	}
	return nil
}

func (r *Repo) Clear(ctx context.Context, userID string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID)
	return err
}

// Replace swaps the whole cart for the given lines, all selected. Used by the
// checkout sync call.
func (r *Repo) Replace(ctx context.Context, userID string, items []orders.ItemQty) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID); err != nil {
		return err
	}
	for _, it := range items {
		qty := it.Qty
		if qty < 1 {
			qty = 1
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO cart_items(user_id, product_id, qty, selected, added_at, updated_at)
			VALUES ($1,$2,$3,true,now(),now())`, userID, it.ProductID, qty); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Reconcile applies the ordered quantities to the cart in one transaction:
// each matching line drops to max(old - ordered, 0) and is deleted when it
// reaches zero. Lines not present in the order are untouched. Safe to rerun:
// once a line is gone or reduced, a second pass reduces nothing further only
// if the caller dedups the triggering event (the worker does).
func (r *Repo) Reconcile(ctx context.Context, userID string, ordered []orders.ItemQty) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, it := range ordered {
		var old int
		err := tx.QueryRow(ctx, `SELECT qty FROM cart_items WHERE user_id=$1 AND product_id=$2 FOR UPDATE`,
			userID, it.ProductID).Scan(&old)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		} else if err != nil {
			return err
		}

		if newQty := ReconciledQty(old, it.Qty); newQty == 0 {
			if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1 AND product_id=$2`, userID, it.ProductID); err != nil {
				return err
			}
		} else {
			if _, err := tx.Exec(ctx, `UPDATE cart_items SET qty=$3, updated_at=now() WHERE user_id=$1 AND product_id=$2`,
				userID, it.ProductID, newQty); err != nil {
				return err
			}
		}
	}
	return tx.Commit(ctx)
}

func (r *Repo) activeStock(ctx context.Context, productID string) (int, error) {
	var stock int
	var active bool
	err := r.DB.QueryRow(ctx, `SELECT stock, is_active FROM products WHERE id=$1`, productID).Scan(&stock, &active)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrProductNotFound
	} else if err != nil {
		return 0, err
	}
	if !active {
		return 0, ErrProductNotFound
	}
	return stock, nil
}
