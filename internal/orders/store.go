package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/matthieukhl/freshmart/internal/database"
	"github.com/matthieukhl/freshmart/internal/listing"
	"github.com/matthieukhl/freshmart/internal/models"
	"github.com/matthieukhl/freshmart/internal/types"
)

// SortFields maps API sort names to order columns
var SortFields = map[string]string{
	"createdAt":    "created_at",
	"updatedAt":    "updated_at",
	"orderNumber":  "order_number",
	"totalAmount":  "total_amount",
	"status":       "status",
	"customerName": "customer_name",
}

// DefaultSort lists the newest orders first
var DefaultSort = listing.Sort{Column: "created_at", Descending: true}

// Filter narrows an order listing
type Filter struct {
	Status string
}

type Store struct {
	db *database.DB
}

func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

const orderColumns = `id, order_number, customer_name, phone, email, total_amount, status, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerName, &o.Phone, &o.Email,
		&o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Insert writes the order and its items in one transaction. The returned
// error is left unwrapped enough for database.IsDuplicateKey to see it.
func (s *Store) Insert(ctx context.Context, o *models.Order) error {
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO orders (order_number, customer_name, phone, email, total_amount, status)
			VALUES (?, ?, ?, ?, ?, ?)
		`, o.OrderNumber, o.CustomerName, o.Phone, o.Email, o.TotalAmount, o.Status)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get inserted ID: %w", err)
		}
		o.ID = id

		for i, item := range o.Items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, position, product_id, name, price, quantity, unit, image)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, id, i, item.ProductID, item.Name, item.Price, item.Quantity, item.Unit, item.Image)
			if err != nil {
				return fmt.Errorf("failed to insert order item %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.db.QueryRowContext(ctx, `SELECT created_at, updated_at FROM orders WHERE id = ?`, o.ID).
		Scan(&o.CreatedAt, &o.UpdatedAt)
}

// Get retrieves an order and its items by ID
func (s *Store) Get(ctx context.Context, id int64) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NotFound("orders.Get", "Order not found")
		}
		return nil, fmt.Errorf("failed to scan order %d: %w", id, err)
	}

	items, err := s.loadItems(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	o.Items = itemsOrEmpty(items[id])
	return o, nil
}

// List returns one page of orders with their items and the total number of matches
func (s *Store) List(ctx context.Context, f Filter, sort listing.Sort, page listing.Page) ([]models.Order, int, error) {
	var where listing.Where
	if f.Status != "" {
		where.Add("status = ?", f.Status)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + where.SQL() +
		` ORDER BY ` + sort.SQL() + `, id DESC LIMIT ? OFFSET ?`
	args := append(where.Args(), page.Limit, page.Offset())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	var ids []int64
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	items, err := s.loadItems(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range orders {
		orders[i].Items = itemsOrEmpty(items[orders[i].ID])
	}

	return orders, total, nil
}

// loadItems fetches the items of the given orders, keyed by order ID, in cart order
func (s *Store) loadItems(ctx context.Context, orderIDs []int64) (map[int64][]models.OrderItem, error) {
	items := make(map[int64][]models.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return items, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(orderIDs)), ",")
	args := make([]any, len(orderIDs))
	for i, id := range orderIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, product_id, name, price, quantity, unit, image
		FROM order_items
		WHERE order_id IN (`+placeholders+`)
		ORDER BY order_id, position
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID int64
		var item models.OrderItem
		if err := rows.Scan(&orderID, &item.ProductID, &item.Name, &item.Price, &item.Quantity, &item.Unit, &item.Image); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items[orderID] = append(items[orderID], item)
	}
	return items, rows.Err()
}

// UpdateStatus sets the status of an order
func (s *Store) UpdateStatus(ctx context.Context, id int64, status string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.NotFound("orders.UpdateStatus", "Order not found")
		}
		return fmt.Errorf("failed to look up order %d: %w", id, err)
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, status, id); err != nil {
		return fmt.Errorf("failed to update order %d status: %w", id, err)
	}
	return nil
}

// LatestOrderNumber returns the greatest order number starting with prefix,
// or "" when there is none. Longer numbers sort first so a sequence past
// 9999 still compares correctly.
func (s *Store) LatestOrderNumber(ctx context.Context, prefix string) (string, error) {
	var number string
	err := s.db.QueryRowContext(ctx, `
		SELECT order_number FROM orders
		WHERE order_number LIKE ?
		ORDER BY CHAR_LENGTH(order_number) DESC, order_number DESC
		LIMIT 1
	`, prefix+"-%").Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query latest order number: %w", err)
	}
	return number, nil
}

func itemsOrEmpty(items []models.OrderItem) []models.OrderItem {
	if items == nil {
		return []models.OrderItem{}
	}
	return items
}
