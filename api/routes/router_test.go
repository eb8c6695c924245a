package routes

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-backend/internal/collections"
	"github.com/angelmondragon/storefront-backend/internal/customers"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	products "github.com/angelmondragon/storefront-backend/internal/products"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error { return nil }

type stubCollections struct {
	collections.Service
	created int
}

func (s *stubCollections) List(ctx context.Context) ([]collections.CollectionDTO, error) {
	return []collections.CollectionDTO{{ID: uuid.New(), Title: "Mugs"}}, nil
}

func (s *stubCollections) Create(ctx context.Context, input collections.CollectionInput) (*collections.CollectionDTO, error) {
	s.created++
	return &collections.CollectionDTO{ID: uuid.New(), Title: input.Title}, nil
}

type stubProducts struct {
	products.Service
	deleted int
}

func (s *stubProducts) ListProducts(ctx context.Context, input products.ListProductsInput) (*products.ProductListResult, error) {
	return &products.ProductListResult{Results: []products.ProductDTO{{ID: uuid.New(), Title: "Mug"}}}, nil
}

func (s *stubProducts) GetProduct(ctx context.Context, id uuid.UUID) (*products.ProductDTO, error) {
	return &products.ProductDTO{ID: id, Title: "Mug"}, nil
}

func (s *stubProducts) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	s.deleted++
	return nil
}

type stubCustomers struct {
	customers.Service
}

func (stubCustomers) List(ctx context.Context) ([]customers.CustomerDTO, error) {
	return []customers.CustomerDTO{}, nil
}

func (stubCustomers) History(ctx context.Context, id uuid.UUID) ([]orders.OrderDTO, error) {
	return []orders.OrderDTO{}, nil
}

func (stubCustomers) Me(ctx context.Context, userID uuid.UUID) (*customers.CustomerDTO, error) {
	return &customers.CustomerDTO{ID: uuid.New(), UserID: userID, Membership: enums.MembershipBronze}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "prod", CORSOrigins: []string{"http://localhost:3000"}},
		JWT: config.JWTConfig{
			Secret:            "router-secret",
			Issuer:            "storefront-test",
			ExpirationMinutes: 15,
		},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:    time.Minute,
			RegisterWindow: time.Minute,
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, svc Services) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewRouter(
		cfg,
		logger.New(logger.Options{ServiceName: "router-test"}),
		stubPinger{},
		(*redis.Client)(nil),
		stubSessionManager{},
		reg,
		metrics.NewHTTPMetrics(reg),
		svc,
	)
}

func bearer(t *testing.T, cfg *config.Config, staff bool, permissions ...string) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:      uuid.New(),
		IsStaff:     staff,
		Permissions: permissions,
		JTI:         session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func serve(router http.Handler, method, path, auth string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t, testConfig(), Services{})

	if rec := serve(router, http.MethodGet, "/health/live", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("live: expected 200 got %d", rec.Code)
	}
	if rec := serve(router, http.MethodGet, "/health/ready", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready without redis: expected 503 got %d", rec.Code)
	}
	rec := serve(router, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200 got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("storefront_http_requests_total")) {
		t.Fatalf("expected http metrics to be exported, got %s", rec.Body.String())
	}
}

func TestCollectionsAreReadableByAnyone(t *testing.T) {
	router := newTestRouter(t, testConfig(), Services{Collections: &stubCollections{}})

	rec := serve(router, http.MethodGet, "/api/v1/store/collections", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCollectionWritesRequireStaff(t *testing.T) {
	cfg := testConfig()
	stub := &stubCollections{}
	router := newTestRouter(t, cfg, Services{Collections: stub})
	body := []byte(`{"title":"Mugs"}`)

	if rec := serve(router, http.MethodPost, "/api/v1/store/collections", "", body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401 got %d", rec.Code)
	}
	if rec := serve(router, http.MethodPost, "/api/v1/store/collections", bearer(t, cfg, false), body); rec.Code != http.StatusForbidden {
		t.Fatalf("customer: expected 403 got %d", rec.Code)
	}
	if rec := serve(router, http.MethodPost, "/api/v1/store/collections", bearer(t, cfg, true), body); rec.Code != http.StatusCreated {
		t.Fatalf("staff: expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.created != 1 {
		t.Fatalf("expected exactly one create, got %d", stub.created)
	}
}

func TestProductRoutes(t *testing.T) {
	cfg := testConfig()
	stub := &stubProducts{}
	router := newTestRouter(t, cfg, Services{Products: stub})
	item := "/api/v1/store/products/" + uuid.NewString()

	if rec := serve(router, http.MethodGet, "/api/v1/store/products", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := serve(router, http.MethodGet, item, "", nil); rec.Code != http.StatusOK {
		t.Fatalf("detail: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := serve(router, http.MethodDelete, item, "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous delete: expected 401 got %d", rec.Code)
	}
	if rec := serve(router, http.MethodDelete, item, bearer(t, cfg, false), nil); rec.Code != http.StatusForbidden {
		t.Fatalf("customer delete: expected 403 got %d", rec.Code)
	}
	if rec := serve(router, http.MethodDelete, item, bearer(t, cfg, true), nil); rec.Code != http.StatusNoContent {
		t.Fatalf("staff delete: expected 204 got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.deleted != 1 {
		t.Fatalf("expected exactly one delete, got %d", stub.deleted)
	}
}

func TestPublicRoutesRejectInvalidTokens(t *testing.T) {
	router := newTestRouter(t, testConfig(), Services{Collections: &stubCollections{}})

	rec := serve(router, http.MethodGet, "/api/v1/store/collections", "Bearer not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestCustomersRequireAuthentication(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg, Services{Customers: stubCustomers{}})

	if rec := serve(router, http.MethodGet, "/api/v1/store/customers", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401 got %d", rec.Code)
	}
	if rec := serve(router, http.MethodGet, "/api/v1/store/customers", bearer(t, cfg, false), nil); rec.Code != http.StatusForbidden {
		t.Fatalf("customer: expected 403 got %d", rec.Code)
	}
	if rec := serve(router, http.MethodGet, "/api/v1/store/customers", bearer(t, cfg, true), nil); rec.Code != http.StatusOK {
		t.Fatalf("staff: expected 200 got %d", rec.Code)
	}
}

func TestCustomerMeForAnyAuthenticatedUser(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg, Services{Customers: stubCustomers{}})

	if rec := serve(router, http.MethodGet, "/api/v1/store/customers/me", bearer(t, cfg, false), nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCustomerHistoryRequiresCapability(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg, Services{Customers: stubCustomers{}})
	path := "/api/v1/store/customers/" + uuid.NewString() + "/history"

	if rec := serve(router, http.MethodGet, path, bearer(t, cfg, true), nil); rec.Code != http.StatusForbidden {
		t.Fatalf("staff without capability: expected 403 got %d", rec.Code)
	}
	if rec := serve(router, http.MethodGet, path, bearer(t, cfg, false, "view_history"), nil); rec.Code != http.StatusOK {
		t.Fatalf("holder of view_history: expected 200 got %d", rec.Code)
	}
}

func TestOrdersRequireAuthentication(t *testing.T) {
	router := newTestRouter(t, testConfig(), Services{})

	if rec := serve(router, http.MethodPost, "/api/v1/store/orders", "", []byte(`{}`)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAdminRegisterHiddenInProd(t *testing.T) {
	router := newTestRouter(t, testConfig(), Services{})

	rec := serve(router, http.MethodPost, "/api/admin/v1/auth/register", "", []byte(`{}`))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}
