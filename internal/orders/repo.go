package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oldgoods/thriftstore/internal/discounts"
)

type Repo struct{ DB *pgxpool.Pool }

type CreateInput struct {
	Items         []ItemQty
	PaymentMethod PaymentMethod
	Address       ShippingAddress
	ShippingCents int
	DiscountCode  string
}

// Create builds an order from live product rows inside one transaction:
// prices are snapshotted server-side, stock is prechecked but NOT deducted
// (deduction happens at proof upload). Idempotent via external_id. The
// discount code, if any, is redeemed inside the same transaction, after the
// external_id check: a replayed create or a create that fails on stock never
// consumes a use.
func (r *Repo) Create(ctx context.Context, externalID, userID string, in CreateInput) (ord *Order, existed bool, err error) {
	if len(in.Items) == 0 {
		return nil, false, ErrEmptyOrder
	}
	if !ValidPaymentMethod(in.PaymentMethod) {
		return nil, false, fmt.Errorf("invalid payment method: %q", in.PaymentMethod)
	}

	var existingID string
	err = r.DB.QueryRow(ctx, `SELECT id FROM orders WHERE external_id=$1`, externalID).Scan(&existingID)
	if err == nil {
		o, gerr := r.GetByID(ctx, existingID)
		return o, true, gerr
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	subtotal := 0
	items := make([]Item, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Qty <= 0 {
			return nil, false, fmt.Errorf("invalid qty for product %s", it.ProductID)
		}
		var (
			name, image, condition, size, material string
			price, stock                           int
			active                                 bool
		)
		err := tx.QueryRow(ctx, `
			SELECT name, price_cents, stock, condition, size, material, image, is_active
			FROM products WHERE id=$1`, it.ProductID).
			Scan(&name, &price, &stock, &condition, &size, &material, &image, &active)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, fmt.Errorf("%w: %s", ErrProductUnavailable, it.ProductID)
		} else if err != nil {
			return nil, false, err
		}
		if !active {
			return nil, false, fmt.Errorf("%w: %s", ErrProductUnavailable, name)
		}
		if stock < it.Qty {
			return nil, false, fmt.Errorf("%w: %s (available %d, requested %d)", ErrInsufficientStock, name, stock, it.Qty)
		}
		subtotal += price * it.Qty
		items = append(items, Item{
			ProductID:  it.ProductID,
			Name:       name,
			PriceCents: price,
			Qty:        it.Qty,
			Image:      image,
			Condition:  condition,
			Size:       size,
			Material:   material,
		})
	}

	discount := 0
	if in.DiscountCode != "" {
		discount, err = redeemDiscount(ctx, tx, in.DiscountCode, subtotal)
		if err != nil {
			return nil, false, err
		}
	}
	total := subtotal + in.ShippingCents - discount

	now := time.Now().UTC()
	o := &Order{
		ID:            uuid.NewString(),
		OrderNumber:   NewOrderNumber(now),
		UserID:        userID,
		Status:        StatusPendingPayment,
		Items:         items,
		SubtotalCents: subtotal,
		ShippingCents: in.ShippingCents,
		DiscountCents: discount,
		TotalCents:    total,
		PaymentMethod: in.PaymentMethod,
		Address:       in.Address,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	addr, err := json.Marshal(o.Address)
	if err != nil {
		return nil, false, err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, external_id, order_number, user_id, status,
			subtotal_cents, shipping_cents, discount_cents, total_cents,
			payment_method, stock_deducted, shipping_address, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,false,$11,$12,$12)`,
		o.ID, externalID, o.OrderNumber, userID, o.Status,
		o.SubtotalCents, o.ShippingCents, o.DiscountCents, o.TotalCents,
		o.PaymentMethod, addr, now)
	if err != nil {
		return nil, false, err
	}
	for _, it := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, name, price_cents, qty, image, condition, size, material)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			o.ID, it.ProductID, it.Name, it.PriceCents, it.Qty, it.Image, it.Condition, it.Size, it.Material)
		if err != nil {
			return nil, false, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return o, false, nil
}

// redeemDiscount locks the discount row, applies every constraint against the
// priced subtotal and consumes one use. It runs inside the order-create
// transaction, so the use is only consumed if the order commits. The usage
// limit is re-guarded in the UPDATE so two concurrent redemptions cannot both
// take the last slot.
func redeemDiscount(ctx context.Context, tx pgx.Tx, code string, subtotalCents int) (int, error) {
	var d discounts.Discount
	err := tx.QueryRow(ctx, `
		SELECT id, type, value, min_order_cents, max_cents, usage_limit, used_count,
			start_date, end_date, is_active
		FROM discounts WHERE code=$1 FOR UPDATE`, discounts.Normalize(code)).
		Scan(&d.ID, &d.Type, &d.Value, &d.MinOrderCents, &d.MaxCents,
			&d.UsageLimit, &d.UsedCount, &d.StartDate, &d.EndDate, &d.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, discounts.ErrNotFound
	} else if err != nil {
		return 0, err
	}

	amount, err := d.AmountFor(subtotalCents, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	ct, err := tx.Exec(ctx, `
		UPDATE discounts SET used_count = used_count + 1
		WHERE id=$1 AND (usage_limit = 0 OR used_count < usage_limit)`, d.ID)
	if err != nil {
		return 0, err
	}
	if ct.RowsAffected() == 0 {
		return 0, discounts.ErrUsedUp
	}
	return amount, nil
}

const orderColumns = `id, order_number, user_id, status, subtotal_cents, shipping_cents,
	discount_cents, total_cents, payment_method,
	COALESCE(payment_proof,''), COALESCE(receipt_proof,''), stock_deducted,
	shipping_address, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var addr []byte
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Status,
		&o.SubtotalCents, &o.ShippingCents, &o.DiscountCents, &o.TotalCents,
		&o.PaymentMethod, &o.PaymentProof, &o.ReceiptProof, &o.StockDeducted,
		&addr, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(addr, &o.Address); err != nil {
		return nil, fmt.Errorf("decode shipping address: %w", err)
	}
	return &o, nil
}

func (r *Repo) loadItems(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT product_id, name, price_cents, qty, image, condition, size, material
		FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.PriceCents, &it.Qty,
			&it.Image, &it.Condition, &it.Size, &it.Material); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repo) GetByID(ctx context.Context, orderID string) (*Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, orderID))
	if err != nil {
		return nil, err
	}
	o.Items, err = r.loadItems(ctx, orderID)
	return o, err
}

// GetForUser is GetByID plus an ownership check.
func (r *Repo) GetForUser(ctx context.Context, orderID, userID string) (*Order, error) {
	o, err := r.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrForbidden
	}
	return o, nil
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Items, err = r.loadItems(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListAll returns back-office rows joined with the customer display name.
func (r *Repo) ListAll(ctx context.Context) ([]AdminSummary, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT o.id, o.order_number, o.status, o.total_cents, o.created_at,
			COALESCE(u.username,''),
			COALESCE(NULLIF(TRIM(COALESCE(u.first_name,'')||' '||COALESCE(u.last_name,'')), ''), COALESCE(u.username,'Customer'))
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AdminSummary
	for rows.Next() {
		var s AdminSummary
		if err := rows.Scan(&s.ID, &s.OrderNumber, &s.Status, &s.TotalCents,
			&s.CreatedAt, &s.Username, &s.CustomerName); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AttachPaymentProof records the proof and deducts stock in one transaction.
// The order row is locked first; the stock_deducted flag makes retries (and
// double submissions) safe: the proof reference is refreshed but stock moves
// at most once per order. `deducted` reports whether THIS call moved stock.
func (r *Repo) AttachPaymentProof(ctx context.Context, orderID, userID, proofPath string, method PaymentMethod) (o *Order, deducted bool, err error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		owner         string
		status        Status
		stockDeducted bool
	)
	err = tx.QueryRow(ctx, `SELECT user_id, status, stock_deducted FROM orders WHERE id=$1 FOR UPDATE`, orderID).
		Scan(&owner, &status, &stockDeducted)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, ErrNotFound
	} else if err != nil {
		return nil, false, err
	}
	if owner != userID {
		return nil, false, ErrForbidden
	}
	if status != StatusPendingPayment {
		return nil, false, fmt.Errorf("%w: proof upload requires %s, order is %s", ErrNotEligible, StatusPendingPayment, status)
	}

	if !stockDeducted {
		rows, err := tx.Query(ctx, `SELECT product_id, qty FROM order_items WHERE order_id=$1 ORDER BY product_id`, orderID)
		if err != nil {
			return nil, false, err
		}
		var items []ItemQty
		for rows.Next() {
			var it ItemQty
			if err := rows.Scan(&it.ProductID, &it.Qty); err != nil {
				rows.Close()
				return nil, false, err
			}
			items = append(items, it)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, false, err
		}

		for _, it := range items {
			var name string
			var stock int
			err := tx.QueryRow(ctx, `SELECT name, stock FROM products WHERE id=$1 FOR UPDATE`, it.ProductID).Scan(&name, &stock)
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, false, fmt.Errorf("%w: %s", ErrProductUnavailable, it.ProductID)
			} else if err != nil {
				return nil, false, err
			}
			if stock < it.Qty {
				return nil, false, fmt.Errorf("%w: %s (available %d, requested %d)", ErrInsufficientStock, name, stock, it.Qty)
			}
			if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $2, updated_at=now() WHERE id=$1`, it.ProductID, it.Qty); err != nil {
				return nil, false, err
			}
		}
		deducted = true
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders SET payment_proof=$2, payment_method=$3, stock_deducted=true, updated_at=now()
		WHERE id=$1`, orderID, proofPath, method)
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}

	o, err = r.GetByID(ctx, orderID)
	return o, deducted, err
}

// ConfirmReceipt is the customer-owned shipped -> completed edge.
func (r *Repo) ConfirmReceipt(ctx context.Context, orderID, userID, proofPath string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var owner string
	var status Status
	err = tx.QueryRow(ctx, `SELECT user_id, status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&owner, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	if status != StatusShipped {
		return fmt.Errorf("%w: confirm receipt requires %s, order is %s", ErrNotEligible, StatusShipped, status)
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders SET status=$2, receipt_proof=$3, updated_at=now() WHERE id=$1`,
		orderID, StatusCompleted, proofPath)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SetStatus applies an admin transition after validating it against the
// transition table. Only status and updated_at change.
func (r *Repo) SetStatus(ctx context.Context, orderID string, to Status) (from Status, err error) {
	if !AdminAssignable(to) {
		return "", fmt.Errorf("%w: %s is not admin-assignable", ErrIllegalTransition, to)
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&from)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	} else if err != nil {
		return "", err
	}
	if from == to {
		return from, tx.Commit(ctx)
	}
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, orderID, to); err != nil {
		return from, err
	}
	return from, tx.Commit(ctx)
}
