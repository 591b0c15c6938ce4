package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/matthieukhl/freshmart/internal/logging"
	"github.com/matthieukhl/freshmart/internal/models"
	"github.com/matthieukhl/freshmart/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryUsers struct {
	mu    sync.Mutex
	next  int64
	users map[int64]models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[int64]models.User)}
}

func (m *memoryUsers) Get(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, types.NotFound("memoryUsers.Get", "User not found")
	}
	return &u, nil
}

func (m *memoryUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, types.NotFound("memoryUsers.GetByEmail", "User not found")
}

func (m *memoryUsers) Create(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return types.Validation("memoryUsers.Create", "User already exists")
		}
	}
	m.next++
	u.ID = m.next
	u.CreatedAt = time.Now()
	m.users[u.ID] = *u
	return nil
}

func (m *memoryUsers) CountByRole(ctx context.Context, role string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func newTestService() *Service {
	return NewService(newMemoryUsers(), NewTokens("secret", time.Hour), logging.Discard())
}

func TestCapabilities(t *testing.T) {
	assert.True(t, Allows(models.RoleAdmin, CapManageCatalog))
	assert.True(t, Allows(models.RoleAdmin, CapManageStaff))
	assert.True(t, Allows(models.RoleStaff, CapViewOrders))
	assert.True(t, Allows(models.RoleStaff, CapUpdateOrders))
	assert.False(t, Allows(models.RoleStaff, CapManageCatalog))
	assert.False(t, Allows(models.RoleStaff, CapViewAnalytics))
	assert.False(t, Allows("customer", CapViewOrders))
	assert.Equal(t, "view_orders", CapViewOrders.String())
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: "Ravi", Email: " Ravi@Example.com ", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, user.Role)
	assert.Equal(t, "ravi@example.com", user.Email)
	assert.NotEqual(t, "hunter22", user.PasswordHash)

	token, loggedIn, err := svc.Login(ctx, LoginInput{Email: "ravi@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	me, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Ravi", Email: "ravi@example.com", Password: "hunter22"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, LoginInput{Email: "ravi@example.com", Password: "wrong"})
	assert.True(t, errors.Is(err, types.ErrUnauthenticated))

	_, _, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "hunter22"})
	assert.True(t, errors.Is(err, types.ErrUnauthenticated))
}

func TestRegisterValidates(t *testing.T) {
	svc := newTestService()

	_, err := svc.Register(context.Background(), RegisterInput{Name: "", Email: "nope", Password: "123", Role: "owner"})
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Len(t, appErr.Fields, 4)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "")
	assert.True(t, errors.Is(err, types.ErrUnauthenticated))

	_, err = svc.Authenticate(ctx, "garbage")
	assert.True(t, errors.Is(err, types.ErrUnauthenticated))

	foreign, err := NewTokens("other", time.Hour).Issue(1, models.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, foreign)
	assert.True(t, errors.Is(err, types.ErrUnauthenticated))

	orphan, err := svc.Tokens().Issue(99, models.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, orphan)
	assert.True(t, errors.Is(err, types.ErrUnauthenticated))
}

func TestTokensExpire(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	issued := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issued }

	raw, err := tokens.Issue(7, models.RoleStaff)
	require.NoError(t, err)

	claims, err := tokens.Parse(raw)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, models.RoleStaff, claims.Role)

	tokens.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = tokens.Parse(raw)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestEnsureAdminOnlyOnce(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	input := RegisterInput{Name: "Admin", Email: "admin@example.com", Password: "admin123"}

	admin, created, err := svc.EnsureAdmin(ctx, input)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	_, created, err = svc.EnsureAdmin(ctx, input)
	require.NoError(t, err)
	assert.False(t, created)
}
