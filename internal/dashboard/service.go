// Package dashboard aggregates the admin analytics views straight from SQL.
package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

type Service struct{ DB *pgxpool.Pool }

type Stats struct {
	ProductCount  int `json:"product_count"`
	OrderCount    int `json:"order_count"`
	CustomerCount int `json:"customer_count"`
	RevenueCents  int `json:"revenue_cents"` // completed orders only
}

type MonthlyRevenue struct {
	Month        string `json:"month"` // YYYY-MM
	RevenueCents int    `json:"revenue_cents"`
	Orders       int    `json:"orders"`
}

type StatusBucket struct {
	Status     string `json:"status"`
	Count      int    `json:"count"`
	TotalCents int    `json:"total_cents"`
}

type RecentOrder struct {
	ID           string    `json:"id"`
	OrderNumber  string    `json:"order_number"`
	CustomerName string    `json:"customer_name"`
	TotalCents   int       `json:"total_cents"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type LowStockProduct struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	Stock      int    `json:"stock"`
	PriceCents int    `json:"price_cents"`
}

type TopCustomer struct {
	UserID          string `json:"user_id"`
	Name            string `json:"name"`
	TotalSpentCents int    `json:"total_spent_cents"`
	OrderCount      int    `json:"order_count"`
}

type TopProduct struct {
	Name         string `json:"name"`
	TotalSold    int    `json:"total_sold"`
	RevenueCents int    `json:"revenue_cents"`
}

type RecentCustomer struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Overview struct {
	RecentOrders    []RecentOrder     `json:"recent_orders"`
	LowStock        []LowStockProduct `json:"low_stock_products"`
	TopCustomers    []TopCustomer     `json:"top_customers"`
	StatusBreakdown []StatusBucket    `json:"order_status_distribution"`
	RecentCustomers []RecentCustomer  `json:"recent_customers"`
	TopProducts     []TopProduct      `json:"top_selling_products"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&st.ProductCount)
	})
	g.Go(func() error {
		return s.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&st.OrderCount)
	})
	g.Go(func() error {
		return s.DB.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE NOT is_admin`).Scan(&st.CustomerCount)
	})
	g.Go(func() error {
		return s.DB.QueryRow(ctx,
			`SELECT COALESCE(SUM(total_cents),0) FROM orders WHERE status='completed'`).Scan(&st.RevenueCents)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &st, nil
}

type Revenue struct {
	TotalCents      int              `json:"total_cents"`
	Monthly         []MonthlyRevenue `json:"monthly_breakdown"`
	StatusBreakdown []StatusBucket   `json:"status_breakdown"`
}

func (s *Service) Revenue(ctx context.Context) (*Revenue, error) {
	var rev Revenue
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.DB.QueryRow(ctx,
			`SELECT COALESCE(SUM(total_cents),0) FROM orders WHERE status='completed'`).Scan(&rev.TotalCents)
	})
	g.Go(func() (err error) {
		rev.Monthly, err = s.monthlyRevenue(ctx)
		return
	})
	g.Go(func() (err error) {
		rev.StatusBreakdown, err = s.statusBreakdown(ctx)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &rev, nil
}

// Overview fans the six dashboard queries out concurrently; each writes its
// own slice so there is no shared state beyond the struct fields.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	var ov Overview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { ov.RecentOrders, err = s.recentOrders(ctx); return })
	g.Go(func() (err error) { ov.LowStock, err = s.lowStock(ctx); return })
	g.Go(func() (err error) { ov.TopCustomers, err = s.topCustomers(ctx); return })
	g.Go(func() (err error) { ov.StatusBreakdown, err = s.statusBreakdown(ctx); return })
	g.Go(func() (err error) { ov.RecentCustomers, err = s.recentCustomers(ctx); return })
	g.Go(func() (err error) { ov.TopProducts, err = s.topProducts(ctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ov, nil
}

func (s *Service) recentOrders(ctx context.Context) ([]RecentOrder, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT o.id, o.order_number,
			COALESCE(NULLIF(TRIM(COALESCE(u.first_name,'')||' '||COALESCE(u.last_name,'')), ''), COALESCE(u.username,'Customer')),
			o.total_cents, o.status, o.created_at
		FROM orders o LEFT JOIN users u ON u.id=o.user_id
		ORDER BY o.created_at DESC LIMIT 5`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecentOrder
	for rows.Next() {
		var r RecentOrder
		if err := rows.Scan(&r.ID, &r.OrderNumber, &r.CustomerName, &r.TotalCents, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Service) lowStock(ctx context.Context) ([]LowStockProduct, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, name, category, stock, price_cents
		FROM products WHERE is_active AND stock < 10
		ORDER BY stock LIMIT 5`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LowStockProduct
	for rows.Next() {
		var p LowStockProduct
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Stock, &p.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Service) topCustomers(ctx context.Context) ([]TopCustomer, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT o.user_id,
			COALESCE(NULLIF(TRIM(COALESCE(u.first_name,'')||' '||COALESCE(u.last_name,'')), ''), COALESCE(u.username,'Customer')),
			SUM(o.total_cents), COUNT(*)
		FROM orders o LEFT JOIN users u ON u.id=o.user_id
		WHERE o.status='completed'
		GROUP BY o.user_id, u.first_name, u.last_name, u.username
		ORDER BY SUM(o.total_cents) DESC LIMIT 5`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopCustomer
	for rows.Next() {
		var c TopCustomer
		if err := rows.Scan(&c.UserID, &c.Name, &c.TotalSpentCents, &c.OrderCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Service) statusBreakdown(ctx context.Context) ([]StatusBucket, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total_cents),0)
		FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatusBucket
	for rows.Next() {
		var b StatusBucket
		if err := rows.Scan(&b.Status, &b.Count, &b.TotalCents); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Service) recentCustomers(ctx context.Context) ([]RecentCustomer, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, username, email,
			COALESCE(NULLIF(TRIM(COALESCE(first_name,'')||' '||COALESCE(last_name,'')), ''), username),
			created_at
		FROM users WHERE NOT is_admin
		ORDER BY created_at DESC LIMIT 5`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecentCustomer
	for rows.Next() {
		var c RecentCustomer
		if err := rows.Scan(&c.ID, &c.Username, &c.Email, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Service) topProducts(ctx context.Context) ([]TopProduct, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT oi.name, SUM(oi.qty), SUM(oi.qty * oi.price_cents)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id AND o.status='completed'
		GROUP BY oi.name
		ORDER BY SUM(oi.qty) DESC LIMIT 5`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopProduct
	for rows.Next() {
		var p TopProduct
		if err := rows.Scan(&p.Name, &p.TotalSold, &p.RevenueCents); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Service) monthlyRevenue(ctx context.Context) ([]MonthlyRevenue, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT to_char(created_at, 'YYYY-MM'), COALESCE(SUM(total_cents),0), COUNT(*)
		FROM orders WHERE status='completed'
		GROUP BY 1 ORDER BY 1 DESC LIMIT 6`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonthlyRevenue
	for rows.Next() {
		var m MonthlyRevenue
		if err := rows.Scan(&m.Month, &m.RevenueCents, &m.Orders); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
