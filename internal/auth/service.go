package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/matthieukhl/freshmart/internal/logging"
	"github.com/matthieukhl/freshmart/internal/models"
	"github.com/matthieukhl/freshmart/internal/types"
)

// Repository is the user persistence; *Store satisfies it
type Repository interface {
	Get(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	CountByRole(ctx context.Context, role string) (int, error)
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=admin staff"`
}

const msgNotAuthenticated = "Not authenticated. Please login."

type Service struct {
	users  Repository
	tokens *Tokens
	logger *slog.Logger
}

func NewService(users Repository, tokens *Tokens, logger *slog.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		logger: logging.WithComponent(logger, "auth"),
	}
}

func (s *Service) Tokens() *Tokens {
	return s.tokens
}

// Login checks the credentials and returns a signed token for the user.
// Unknown emails and wrong passwords fail the same way.
func (s *Service) Login(ctx context.Context, input LoginInput) (string, *models.User, error) {
	invalid := types.Unauthenticated("auth.Login", "Invalid credentials")

	user, err := s.users.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return "", nil, invalid
		}
		return "", nil, err
	}
	if !CheckPassword(user.PasswordHash, input.Password) {
		s.logger.Warn("Failed login", "user_id", user.ID)
		return "", nil, invalid
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return token, user, nil
}

// Register creates a staff account. Role defaults to staff.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	var fields []types.FieldError
	if strings.TrimSpace(input.Name) == "" {
		fields = append(fields, types.FieldError{Field: "name", Message: "Name is required"})
	}
	if _, err := mail.ParseAddress(normalizeEmail(input.Email)); err != nil {
		fields = append(fields, types.FieldError{Field: "email", Message: "Please include a valid email"})
	}
	if len(input.Password) < MinPasswordLength {
		fields = append(fields, types.FieldError{Field: "password", Message: "Password must be at least 6 characters"})
	}
	role := input.Role
	if role == "" {
		role = models.RoleStaff
	}
	if !models.IsValidRole(role) {
		fields = append(fields, types.FieldError{Field: "role", Message: "Role must be either admin or staff"})
	}
	if len(fields) > 0 {
		return nil, types.Validation("auth.Register", fields[0].Message, fields...)
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        normalizeEmail(input.Email),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Authenticate resolves a raw token to the user it was issued for
func (s *Service) Authenticate(ctx context.Context, raw string) (*models.User, error) {
	if raw == "" {
		return nil, types.Unauthenticated("auth.Authenticate", msgNotAuthenticated)
	}

	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, types.Unauthenticated("auth.Authenticate", msgNotAuthenticated)
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, types.Unauthenticated("auth.Authenticate", msgNotAuthenticated)
	}

	user, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, types.Unauthenticated("auth.Authenticate", "User not found")
		}
		return nil, err
	}
	return user, nil
}

// EnsureAdmin creates the first admin account. It returns false when an
// admin already exists and nothing was created.
func (s *Service) EnsureAdmin(ctx context.Context, input RegisterInput) (*models.User, bool, error) {
	count, err := s.users.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, false, err
	}
	if count > 0 {
		return nil, false, nil
	}

	input.Role = models.RoleAdmin
	user, err := s.Register(ctx, input)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
