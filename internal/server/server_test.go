package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/matthieukhl/freshmart/internal/analytics"
	"github.com/matthieukhl/freshmart/internal/auth"
	"github.com/matthieukhl/freshmart/internal/catalog"
	"github.com/matthieukhl/freshmart/internal/config"
	"github.com/matthieukhl/freshmart/internal/images"
	"github.com/matthieukhl/freshmart/internal/listing"
	"github.com/matthieukhl/freshmart/internal/logging"
	"github.com/matthieukhl/freshmart/internal/models"
	"github.com/matthieukhl/freshmart/internal/orders"
	"github.com/matthieukhl/freshmart/internal/session"
	"github.com/matthieukhl/freshmart/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type healthyDB struct{ err error }

func (h healthyDB) HealthCheck(ctx context.Context) error { return h.err }

// products is a minimal catalog repository
type products struct {
	mu    sync.Mutex
	items map[int64]models.Product
	next  int64
}

func (p *products) Get(ctx context.Context, id int64) (*models.Product, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	item, ok := p.items[id]
	if !ok {
		return nil, types.NotFound("products.Get", "Product not found")
	}
	return &item, nil
}

func (p *products) List(ctx context.Context, f catalog.Filter, s listing.Sort, page listing.Page) ([]models.Product, int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.Product
	for _, item := range p.items {
		if f.Category == "" || item.Category == f.Category {
			out = append(out, item)
		}
	}
	return out, len(out), nil
}

func (p *products) Create(ctx context.Context, item *models.Product) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	item.ID = p.next
	p.items[item.ID] = *item
	return nil
}

func (p *products) Update(ctx context.Context, item *models.Product) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[item.ID] = *item
	return nil
}

func (p *products) Delete(ctx context.Context, id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.items, id)
	return nil
}

func (p *products) Categories(ctx context.Context) ([]string, error) {
	return []string{"dairy"}, nil
}

func (p *products) ExistsByName(ctx context.Context, name string) (bool, error) {
	return false, nil
}

// orderRepo keeps orders in memory
type orderRepo struct {
	mu     sync.Mutex
	orders []models.Order
}

func (r *orderRepo) Insert(ctx context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = int64(len(r.orders) + 1)
	o.CreatedAt = time.Now()
	r.orders = append(r.orders, *o)
	return nil
}

func (r *orderRepo) Get(ctx context.Context, id int64) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 1 || int(id) > len(r.orders) {
		return nil, types.NotFound("orderRepo.Get", "Order not found")
	}
	o := r.orders[id-1]
	return &o, nil
}

func (r *orderRepo) List(ctx context.Context, f orders.Filter, s listing.Sort, page listing.Page) ([]models.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Order(nil), r.orders...), len(r.orders), nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 1 || int(id) > len(r.orders) {
		return types.NotFound("orderRepo.UpdateStatus", "Order not found")
	}
	r.orders[id-1].Status = status
	return nil
}

func (r *orderRepo) LatestOrderNumber(ctx context.Context, prefix string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.orders) == 0 {
		return "", nil
	}
	return r.orders[len(r.orders)-1].OrderNumber, nil
}

// users holds a fixed set of staff accounts
type users struct {
	byID map[int64]models.User
}

func (u *users) Get(ctx context.Context, id int64) (*models.User, error) {
	user, ok := u.byID[id]
	if !ok {
		return nil, types.NotFound("users.Get", "User not found")
	}
	return &user, nil
}

func (u *users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range u.byID {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, types.NotFound("users.GetByEmail", "User not found")
}

func (u *users) Create(ctx context.Context, user *models.User) error {
	user.ID = int64(len(u.byID) + 1)
	u.byID[user.ID] = *user
	return nil
}

func (u *users) CountByRole(ctx context.Context, role string) (int, error) {
	return 0, nil
}

type emptyStats struct{}

func (emptyStats) CountOrders(ctx context.Context, w analytics.Window, status string) (int, error) {
	return 0, nil
}
func (emptyStats) Revenue(ctx context.Context, w analytics.Window) (float64, error) { return 0, nil }
func (emptyStats) StatusCounts(ctx context.Context, w analytics.Window) (map[string]int, error) {
	return map[string]int{}, nil
}
func (emptyStats) DailyBuckets(ctx context.Context, w analytics.Window, excludeCancelled bool) ([]analytics.DayBucket, error) {
	return []analytics.DayBucket{}, nil
}
func (emptyStats) TopProducts(ctx context.Context, w analytics.Window, limit int) ([]analytics.ProductSales, error) {
	return []analytics.ProductSales{}, nil
}
func (emptyStats) CountProducts(ctx context.Context) (int, error) { return 3, nil }

type testEnv struct {
	server     *Server
	sessions   *session.Codec
	adminToken string
	staffToken string
	orders     *orderRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{App: config.AppConfig{Env: config.EnvDevelopment, Timezone: "UTC"}}
	logger := logging.Discard()

	catalogRepo := &products{items: map[int64]models.Product{
		1: {ID: 1, Name: "Milk", Price: 10, Category: "dairy", Unit: models.UnitLiter, InStock: true, MaxQuantity: 5},
	}, next: 1}
	orderStore := &orderRepo{}
	staff := &users{byID: map[int64]models.User{
		1: {ID: 1, Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin},
		2: {ID: 2, Name: "Staff", Email: "staff@example.com", Role: models.RoleStaff},
	}}

	hash, err := auth.HashPassword("admin123")
	require.NoError(t, err)
	admin := staff.byID[1]
	admin.PasswordHash = hash
	staff.byID[1] = admin

	tokens := auth.NewTokens("secret", time.Hour)
	sessions := session.NewCodec("secret", 0)

	srv := NewServer(Deps{
		Config:    cfg,
		DB:        healthyDB{},
		Catalog:   catalog.NewService(catalogRepo, images.NewMemoryStore("https://img.test"), logger),
		Orders:    orders.NewService(orderStore, catalogRepo, orders.NewStoreAllocator(orderStore), orders.Options{TrustClientTotal: true, Location: time.UTC}, logger),
		Analytics: analytics.NewService(emptyStats{}, time.UTC, logger),
		Auth:      auth.NewService(staff, tokens, logger),
		Sessions:  sessions,
		Logger:    logger,
	})

	adminToken, err := tokens.Issue(1, models.RoleAdmin)
	require.NoError(t, err)
	staffToken, err := tokens.Issue(2, models.RoleStaff)
	require.NoError(t, err)

	return &testEnv{server: srv, sessions: sessions, adminToken: adminToken, staffToken: staffToken, orders: orderStore}
}

type response struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Data    json.RawMessage    `json:"data"`
	Total   int                `json:"total"`
	Pages   int                `json:"pages"`
	Errors  []types.FieldError `json:"errors"`
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, response) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)

	var body response
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

func jsonRequest(method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestHealthReportsDatabaseFailure(t *testing.T) {
	env := newTestEnv(t)
	env.server.deps.DB = healthyDB{err: errors.New("down")}

	rec, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "Resource not found", body.Message)
}

func TestListProducts(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/products?category=dairy", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.Total)
	assert.Equal(t, 1, body.Pages)

	rec, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/products?sort=secret", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, body.Success)
}

func TestGetProductNotFound(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/api/products/99", "/api/products/abc"} {
		rec, body := env.do(t, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "Product not found", body.Message)
	}
}

func TestCatalogWritesNeedAdmin(t *testing.T) {
	env := newTestEnv(t)
	input := map[string]any{
		"name": "Bread", "description": "Sourdough", "price": 4.5, "category": "bakery",
		"unit": "piece", "maxQuantity": 3, "imageUrl": "https://example.com/bread.jpg",
	}

	rec, _ := env.do(t, jsonRequest(http.MethodPost, "/api/products", input))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := env.do(t, withBearer(jsonRequest(http.MethodPost, "/api/products", input), env.staffToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You do not have permission to perform this action", body.Message)

	rec, body = env.do(t, withBearer(jsonRequest(http.MethodPost, "/api/products", input), env.adminToken))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Product
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.Equal(t, "Bread", created.Name)
	assert.True(t, created.InStock)
}

func TestCreateProductRejectsBadUnit(t *testing.T) {
	env := newTestEnv(t)
	input := map[string]any{
		"name": "Bread", "description": "Sourdough", "price": 4.5, "category": "bakery",
		"unit": "loaf", "maxQuantity": 3, "imageUrl": "https://example.com/bread.jpg",
	}

	rec, body := env.do(t, withBearer(jsonRequest(http.MethodPost, "/api/products", input), env.adminToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotEmpty(t, body.Errors)
	assert.Equal(t, "unit", body.Errors[0].Field)
}

func TestCustomerSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/customer/session", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", string(body.Data))

	rec, _ = env.do(t, jsonRequest(http.MethodPost, "/api/customer/session", map[string]string{"customerName": "Asha"}))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/customer/session", nil)
	req.AddCookie(cookies[0])
	rec, body = env.do(t, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"customerName":"Asha"}`, string(body.Data))

	req = httptest.NewRequest(http.MethodGet, "/api/customer/session", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "tampered"})
	rec, body = env.do(t, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", string(body.Data))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), session.CookieName+"=;")
}

func TestCreateOrderRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	input := map[string]any{"phone": "555", "items": []map[string]any{{"product": 1, "quantity": 2}}}

	rec, body := env.do(t, jsonRequest(http.MethodPost, "/api/orders", input))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Customer session required. Please enter your name.", body.Message)

	req := jsonRequest(http.MethodPost, "/api/orders", input)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "tampered"})
	rec, body = env.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid customer session. Please enter your name again.", body.Message)
}

func TestCreateOrderAndUpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	token, err := env.sessions.Issue("Asha")
	require.NoError(t, err)

	req := jsonRequest(http.MethodPost, "/api/orders", map[string]any{
		"phone": "555-0100",
		"items": []map[string]any{{"product": 1, "quantity": 2}},
	})
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	rec, body := env.do(t, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order models.Order
	require.NoError(t, json.Unmarshal(body.Data, &order))
	assert.Equal(t, "Asha", order.CustomerName)
	assert.Equal(t, 20.0, order.TotalAmount)
	assert.Regexp(t, `^ORD-\d{8}-0001$`, order.OrderNumber)

	rec, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/api/orders/public/1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, withBearer(jsonRequest(http.MethodPut, "/api/orders/1/status", map[string]string{"status": "shipped"}), env.staffToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = env.do(t, withBearer(jsonRequest(http.MethodPut, "/api/orders/1/status", map[string]string{"status": "ready"}), env.staffToken))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(body.Data, &order))
	assert.Equal(t, models.OrderStatusReady, order.Status)
}

func TestCreateOrderRejectsQuantityAboveMaximum(t *testing.T) {
	env := newTestEnv(t)
	token, err := env.sessions.Issue("Asha")
	require.NoError(t, err)

	req := jsonRequest(http.MethodPost, "/api/orders", map[string]any{
		"phone": "555-0100",
		"items": []map[string]any{{"product": 1, "quantity": 9}},
	})
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	rec, body := env.do(t, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid quantity for Milk. Maximum allowed: 5", body.Message)
	assert.Empty(t, env.orders.orders)
}

func TestLoginSetsCookie(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{"email": "admin@example.com", "password": "admin123"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), auth.CookieName+"=")

	rec, body := env.do(t, jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{"email": "admin@example.com", "password": "nope"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", body.Message)

	rec, body = env.do(t, jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{"email": "not-an-email"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, body.Errors)
}

func TestMeUsesCookieToken(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: env.staffToken})

	rec, body := env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var user models.User
	require.NoError(t, json.Unmarshal(body.Data, &user))
	assert.Equal(t, models.RoleStaff, user.Role)
}

func TestHeaderTokenWinsOverStaleCookie(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "expired.or.garbage"})
	req.Header.Set("Authorization", "Bearer "+env.adminToken)

	rec, body := env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var user models.User
	require.NoError(t, json.Unmarshal(body.Data, &user))
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestStatsNeedAnalyticsCapability(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, withBearer(httptest.NewRequest(http.MethodGet, "/api/stats/dashboard", nil), env.staffToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body := env.do(t, withBearer(httptest.NewRequest(http.MethodGet, "/api/stats/dashboard", nil), env.adminToken))
	require.Equal(t, http.StatusOK, rec.Code)
	var d analytics.Dashboard
	require.NoError(t, json.Unmarshal(body.Data, &d))
	assert.Equal(t, 3, d.TotalProducts)

	rec, _ = env.do(t, withBearer(httptest.NewRequest(http.MethodGet, "/api/stats/analytics?from=2025-03-01&to=2025-03-07", nil), env.adminToken))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, withBearer(httptest.NewRequest(http.MethodGet, "/api/stats/analytics?from=someday", nil), env.adminToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecoveryRedactsOutsideDevelopment(t *testing.T) {
	env := newTestEnv(t)
	env.server.deps.Config.App.Env = config.EnvProduction
	env.server.router.GET("/api/boom", func(c *gin.Context) { panic("secret detail") })

	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret detail")
}
