package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/matthieukhl/freshmart/internal/database"
	"github.com/matthieukhl/freshmart/internal/listing"
	"github.com/matthieukhl/freshmart/internal/models"
	"github.com/matthieukhl/freshmart/internal/types"
)

// SortFields maps API sort names to product columns
var SortFields = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"name":        "name",
	"price":       "price",
	"category":    "category",
	"maxQuantity": "max_quantity",
}

// DefaultSort lists the newest products first
var DefaultSort = listing.Sort{Column: "created_at", Descending: true}

// Filter narrows a product listing
type Filter struct {
	Category string
	InStock  *bool
	Search   string
}

type Store struct {
	db *database.DB
}

func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

const productColumns = `id, name, description, price, image, image_id, category, unit,
	in_stock, max_quantity, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Image, &p.ImageID, &p.Category, &p.Unit,
		&p.InStock, &p.MaxQuantity, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Get retrieves a product by ID
func (s *Store) Get(ctx context.Context, id int64) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NotFound("catalog.Get", "Product not found")
		}
		return nil, fmt.Errorf("failed to scan product %d: %w", id, err)
	}
	return p, nil
}

// List returns one page of products and the total number of matches
func (s *Store) List(ctx context.Context, f Filter, sort listing.Sort, page listing.Page) ([]models.Product, int, error) {
	var where listing.Where
	if f.Category != "" {
		where.Add("category = ?", f.Category)
	}
	if f.InStock != nil {
		where.Add("in_stock = ?", *f.InStock)
	}
	if f.Search != "" {
		pattern := listing.Contains(f.Search)
		where.Add("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + where.SQL() +
		` ORDER BY ` + sort.SQL() + `, id DESC LIMIT ? OFFSET ?`
	args := append(where.Args(), page.Limit, page.Offset())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// Create inserts p and fills in its ID and timestamps
func (s *Store) Create(ctx context.Context, p *models.Product) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO products (name, description, price, image, image_id, category, unit, in_stock, max_quantity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.Name, p.Description, p.Price, p.Image, p.ImageID, p.Category, p.Unit, p.InStock, p.MaxQuantity)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted ID: %w", err)
	}

	created, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	*p = *created
	return nil
}

// Update overwrites every mutable column of p
func (s *Store) Update(ctx context.Context, p *models.Product) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, description = ?, price = ?, image = ?, image_id = ?, category = ?,
		    unit = ?, in_stock = ?, max_quantity = ?
		WHERE id = ?
	`, p.Name, p.Description, p.Price, p.Image, p.ImageID, p.Category, p.Unit, p.InStock, p.MaxQuantity, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update product %d: %w", p.ID, err)
	}

	// MySQL reports 0 affected rows when nothing changed, so existence is
	// checked by reading the row back
	updated, err := s.Get(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *updated
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return types.NotFound("catalog.Delete", "Product not found")
	}
	return nil
}

// Categories returns the distinct categories in use
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM products ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	return count, err
}

// ExistsByName checks whether a product with exactly this name is present
func (s *Store) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE name = ?`, name).Scan(&count)
	return count > 0, err
}
