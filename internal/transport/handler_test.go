package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inventory-api/internal/auth"
	"inventory-api/internal/domain"
	"inventory-api/internal/middleware"
	"inventory-api/internal/pricing"
	"inventory-api/internal/service"
	"inventory-api/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testTokenConfig = auth.Config{
	Secret:   strings.Repeat("t", 32),
	Issuer:   "inventory-api",
	Audience: "inventory-clients",
}

// mockProductService keeps products in a map and mimics the service's errors
type mockProductService struct {
	products map[int64]*domain.Product
	nextID   int64
	calc     *pricing.Calculator
	actors   []string
	calls    int
	err      error
}

func newMockProductService(t *testing.T) *mockProductService {
	t.Helper()
	calc, err := pricing.NewCalculator(decimal.RequireFromString("0.20"))
	require.NoError(t, err)
	return &mockProductService{products: make(map[int64]*domain.Product), calc: calc}
}

func (m *mockProductService) seed(title string, quantity int, price string) *domain.Product {
	m.nextID++
	p := &domain.Product{ID: m.nextID, Title: title, Quantity: quantity, Price: decimal.RequireFromString(price), Version: 1}
	m.products[p.ID] = p
	return p
}

func (m *mockProductService) List(ctx context.Context) ([]domain.ProductView, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	products := make([]*domain.Product, 0, len(m.products))
	for id := int64(1); id <= m.nextID; id++ {
		if p, ok := m.products[id]; ok {
			products = append(products, p)
		}
	}
	return m.calc.Views(products), nil
}

func (m *mockProductService) Get(ctx context.Context, id int64) (*domain.ProductView, error) {
	m.calls++
	p, ok := m.products[id]
	if !ok {
		return nil, service.ErrProductNotFound
	}
	view := m.calc.View(p)
	return &view, nil
}

func (m *mockProductService) Create(ctx context.Context, actor string, input domain.ProductInput) (*domain.Product, error) {
	m.calls++
	m.actors = append(m.actors, actor)
	if m.err != nil {
		return nil, m.err
	}
	if err := validation.Struct(input); err != nil {
		return nil, &service.ValidationError{Errors: validation.Messages(err)}
	}
	return m.seed(input.Title, input.Quantity, input.Price.String()), nil
}

func (m *mockProductService) Update(ctx context.Context, actor string, id int64, input domain.ProductInput) error {
	m.calls++
	m.actors = append(m.actors, actor)
	if input.ID != id {
		return service.ErrProductIDMismatch
	}
	if m.err != nil {
		return m.err
	}
	p, ok := m.products[id]
	if !ok {
		return service.ErrProductNotFound
	}
	p.Title, p.Quantity, p.Price = input.Title, input.Quantity, input.Price
	return nil
}

func (m *mockProductService) Delete(ctx context.Context, actor string, id int64) error {
	m.calls++
	m.actors = append(m.actors, actor)
	if _, ok := m.products[id]; !ok {
		return service.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductService) View(product *domain.Product) domain.ProductView {
	return m.calc.View(product)
}

// mockAuthService accepts the passwords stored in users
type mockAuthService struct {
	users    map[string]string
	roles    map[string][]string
	issuer   *auth.Issuer
	calls    int
	register error
}

func newMockAuthService(t *testing.T) *mockAuthService {
	t.Helper()
	issuer, err := auth.NewIssuer(testTokenConfig)
	require.NoError(t, err)
	return &mockAuthService{
		users:  map[string]string{"admin": "Qwerty123!", "user1": "User1!"},
		roles:  map[string][]string{"admin": {domain.RoleAdmin}, "user1": {domain.RoleUser}},
		issuer: issuer,
	}
}

func (m *mockAuthService) Login(ctx context.Context, username, password string) (*domain.TokenResponse, error) {
	m.calls++
	if stored, ok := m.users[username]; !ok || stored != password {
		return nil, service.ErrInvalidCredentials
	}
	token, expiresAt, err := m.issuer.Issue(username, m.roles[username])
	if err != nil {
		return nil, err
	}
	return &domain.TokenResponse{Token: token, ExpiresAt: expiresAt}, nil
}

func (m *mockAuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	m.calls++
	if m.register != nil {
		return nil, m.register
	}
	m.users[username] = password
	m.roles[username] = []string{domain.RoleUser}
	return &domain.User{ID: uuid.New(), Username: username, Roles: []string{domain.RoleUser}}, nil
}

func (m *mockAuthService) Seed(ctx context.Context, accounts []service.SeedAccount) error {
	return nil
}

// mockAuditService returns entries and remembers the last filter
type mockAuditService struct {
	entries []*domain.AuditEntry
	filter  *domain.AuditFilter
	err     error
}

func (m *mockAuditService) Query(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditEntry, error) {
	m.filter = &filter
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

type testAPI struct {
	router   chi.Router
	products *mockProductService
	auth     *mockAuthService
	audits   *mockAuditService
	issuer   *auth.Issuer
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := zap.NewNop()
	guard := auth.NewGuard(testTokenConfig)

	api := &testAPI{
		router:   chi.NewRouter(),
		products: newMockProductService(t),
		auth:     newMockAuthService(t),
		audits:   &mockAuditService{},
	}
	api.issuer = api.auth.issuer

	authenticated := middleware.RequireAuthenticated(guard, logger)
	adminOnly := middleware.RequireAdmin(guard, logger)
	passThrough := func(next http.Handler) http.Handler { return next }

	NewAuthHandler(api.auth, logger).RegisterRoutes(api.router, adminOnly, passThrough)
	NewProductHandler(api.products, logger).RegisterRoutes(api.router, authenticated, adminOnly)
	NewAuditHandler(api.audits, logger).RegisterRoutes(api.router, adminOnly)

	return api
}

func (a *testAPI) token(t *testing.T, username string, roles ...string) string {
	t.Helper()
	token, _, err := a.issuer.Issue(username, roles)
	require.NoError(t, err)
	return token
}

func (a *testAPI) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponse {
	t.Helper()
	var resp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

var errDatabaseDown = errors.New("database is down")

var auditTime = time.Date(2025, 8, 10, 9, 0, 0, 0, time.UTC)
