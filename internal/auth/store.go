package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/matthieukhl/freshmart/internal/database"
	"github.com/matthieukhl/freshmart/internal/models"
	"github.com/matthieukhl/freshmart/internal/types"
)

type Store struct {
	db *database.DB
}

func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

func (s *Store) scanOne(ctx context.Context, op, query string, arg any) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NotFound(op, "User not found")
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.scanOne(ctx, "auth.Get", "id = ?", id)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanOne(ctx, "auth.GetByEmail", "email = ?", email)
}

// Create inserts u; a taken email is reported as a validation error
func (s *Store) Create(ctx context.Context, u *models.User) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (name, email, password_hash, role)
		VALUES (?, ?, ?, ?)
	`, u.Name, u.Email, u.PasswordHash, u.Role)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return types.Validation("auth.Create", "User already exists",
				types.FieldError{Field: "email", Message: "User already exists"})
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted ID: %w", err)
	}

	created, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	*u = *created
	return nil
}

func (s *Store) CountByRole(ctx context.Context, role string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = ?`, role).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
