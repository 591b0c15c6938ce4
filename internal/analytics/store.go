package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/matthieukhl/freshmart/internal/database"
	"github.com/matthieukhl/freshmart/internal/listing"
	"github.com/matthieukhl/freshmart/internal/models"
	"github.com/shopspring/decimal"
)

// Window bounds created_at. A zero From or To leaves that side open.
// To is exclusive unless Inclusive is set.
type Window struct {
	From      time.Time
	To        time.Time
	Inclusive bool
}

// Contains reports whether t falls inside the window
func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if w.To.IsZero() {
		return true
	}
	if w.Inclusive {
		return !t.After(w.To)
	}
	return t.Before(w.To)
}

func (w Window) apply(where *listing.Where, column string) {
	if !w.From.IsZero() {
		where.Add(column+" >= ?", w.From)
	}
	if !w.To.IsZero() {
		if w.Inclusive {
			where.Add(column+" <= ?", w.To)
		} else {
			where.Add(column+" < ?", w.To)
		}
	}
}

// Querier runs the aggregate queries analytics are built from; *Store satisfies it
type Querier interface {
	CountOrders(ctx context.Context, w Window, status string) (int, error)
	Revenue(ctx context.Context, w Window) (float64, error)
	StatusCounts(ctx context.Context, w Window) (map[string]int, error)
	DailyBuckets(ctx context.Context, w Window, excludeCancelled bool) ([]DayBucket, error)
	TopProducts(ctx context.Context, w Window, limit int) ([]ProductSales, error)
	CountProducts(ctx context.Context) (int, error)
}

type Store struct {
	db  *database.DB
	loc *time.Location
}

// NewStore reads aggregates from db; loc decides which calendar day an order belongs to
func NewStore(db *database.DB, loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{db: db, loc: loc}
}

// CountOrders counts orders in the window, optionally with a single status
func (s *Store) CountOrders(ctx context.Context, w Window, status string) (int, error) {
	var where listing.Where
	w.apply(&where, "created_at")
	if status != "" {
		where.Add("status = ?", status)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+where.SQL(), where.Args()...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// Revenue sums totalAmount over the non-cancelled orders of the window
func (s *Store) Revenue(ctx context.Context, w Window) (float64, error) {
	var where listing.Where
	w.apply(&where, "created_at")
	where.Add("status <> ?", models.OrderStatusCancelled)

	var total float64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(total_amount), 0) FROM orders`+where.SQL(), where.Args()...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return total, nil
}

// StatusCounts groups the orders of the window by status
func (s *Store) StatusCounts(ctx context.Context, w Window) (map[string]int, error) {
	var where listing.Where
	w.apply(&where, "created_at")

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders`+where.SQL()+` GROUP BY status`, where.Args()...)
	if err != nil {
		return nil, fmt.Errorf("failed to query status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// DailyBuckets groups orders by calendar day in the store's location,
// oldest first. Days are cut in Go because the session runs in UTC.
func (s *Store) DailyBuckets(ctx context.Context, w Window, excludeCancelled bool) ([]DayBucket, error) {
	var where listing.Where
	w.apply(&where, "created_at")
	if excludeCancelled {
		where.Add("status <> ?", models.OrderStatusCancelled)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT created_at, total_amount FROM orders`+where.SQL()+` ORDER BY created_at ASC`,
		where.Args()...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily buckets: %w", err)
	}
	defer rows.Close()

	days := []DayBucket{}
	sums := []decimal.Decimal{}
	for rows.Next() {
		var (
			createdAt time.Time
			amount    float64
		)
		if err := rows.Scan(&createdAt, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan daily bucket: %w", err)
		}

		date := createdAt.In(s.loc).Format(time.DateOnly)
		if n := len(days); n == 0 || days[n-1].Date != date {
			days = append(days, DayBucket{Date: date})
			sums = append(sums, decimal.Zero)
		}
		last := len(days) - 1
		days[last].Orders++
		sums[last] = sums[last].Add(decimal.NewFromFloat(amount))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range days {
		days[i].Revenue = sums[i].InexactFloat64()
	}
	return days, nil
}

// TopProducts ranks products by revenue over the non-cancelled orders of the window
func (s *Store) TopProducts(ctx context.Context, w Window, limit int) ([]ProductSales, error) {
	var where listing.Where
	w.apply(&where, "o.created_at")
	where.Add("o.status <> ?", models.OrderStatusCancelled)

	args := append(where.Args(), limit)
	rows, err := s.db.QueryContext(ctx, `
		SELECT oi.product_id, ANY_VALUE(oi.name), SUM(oi.quantity), SUM(oi.price * oi.quantity) AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id`+where.SQL()+`
		GROUP BY oi.product_id
		ORDER BY revenue DESC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer rows.Close()

	products := []ProductSales{}
	for rows.Next() {
		var p ProductSales
		if err := rows.Scan(&p.ProductID, &p.Name, &p.TotalQuantity, &p.TotalRevenue); err != nil {
			return nil, fmt.Errorf("failed to scan top product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}
