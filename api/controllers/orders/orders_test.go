package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	internalorders "github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/access"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

type stubCheckout struct {
	order  *models.Order
	err    error
	userID uuid.UUID
	cartID uuid.UUID
}

func (s *stubCheckout) Execute(ctx context.Context, userID, cartID uuid.UUID) (*models.Order, error) {
	s.userID = userID
	s.cartID = cartID
	return s.order, s.err
}

type stubOrders struct {
	internalorders.Service
	scope access.Scope
	list  []internalorders.OrderDTO
	err   error
}

func (s *stubOrders) List(ctx context.Context, scope access.Scope) ([]internalorders.OrderDTO, error) {
	s.scope = scope
	return s.list, s.err
}

func (s *stubOrders) Get(ctx context.Context, scope access.Scope, id uuid.UUID) (*internalorders.OrderDTO, error) {
	s.scope = scope
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.OrderDTO{ID: id}, nil
}

func withPrincipal(req *http.Request, p access.Principal) *http.Request {
	return req.WithContext(middleware.WithPrincipal(req.Context(), p))
}

func TestCreateCheckout(t *testing.T) {
	userID := uuid.New()
	cartID := uuid.New()
	product := &models.Product{ID: uuid.New(), Title: "Mug", UnitPrice: decimal.RequireFromString("12.50")}
	order := &models.Order{
		ID:            uuid.New(),
		CustomerID:    uuid.New(),
		PlacedAt:      time.Now().UTC(),
		PaymentStatus: enums.PaymentStatusPending,
		Items: []models.OrderItem{
			{ID: uuid.New(), ProductID: product.ID, Product: product, Quantity: 2, UnitPrice: product.UnitPrice},
		},
	}
	stub := &stubCheckout{order: order}
	handler := Create(stub, testLogger())

	body := []byte(`{"cart_id":"` + cartID.String() + `"}`)
	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/v1/store/orders", bytes.NewReader(body)), access.Principal{UserID: userID, Authenticated: true})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.userID != userID || stub.cartID != cartID {
		t.Fatalf("expected checkout for user %s cart %s, got %s %s", userID, cartID, stub.userID, stub.cartID)
	}

	var envelope struct {
		Data internalorders.OrderDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.TotalPrice != "25.00" {
		t.Fatalf("expected total 25.00 got %s", envelope.Data.TotalPrice)
	}
	if len(envelope.Data.Items) != 1 || envelope.Data.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", envelope.Data.Items)
	}
}

func TestCreateCheckoutValidation(t *testing.T) {
	principal := access.Principal{UserID: uuid.New(), Authenticated: true}
	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing cart", `{}`, "This field is required."},
		{"malformed cart", `{"cart_id":"nope"}`, checkoutsvc.MessageCartNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubCheckout{}
			req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/v1/store/orders", bytes.NewBufferString(tc.body)), principal)
			rec := httptest.NewRecorder()
			Create(stub, nil).ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", rec.Code)
			}
			var envelope struct {
				Error struct {
					Details map[string]string `json:"details"`
				} `json:"error"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if envelope.Error.Details["cart_id"] != tc.want {
				t.Fatalf("expected cart_id %q got %v", tc.want, envelope.Error.Details)
			}
		})
	}
}

func TestCreateCheckoutEmptyCart(t *testing.T) {
	stub := &stubCheckout{err: pkgerrors.Field("cart_id", checkoutsvc.MessageCartEmpty)}
	body := `{"cart_id":"` + uuid.NewString() + `"}`
	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/v1/store/orders", bytes.NewBufferString(body)), access.Principal{UserID: uuid.New(), Authenticated: true})
	rec := httptest.NewRecorder()
	Create(stub, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestListScopesByPrincipal(t *testing.T) {
	member := access.Principal{UserID: uuid.New(), Authenticated: true}
	stub := &stubOrders{}
	rec := httptest.NewRecorder()
	List(stub, nil).ServeHTTP(rec, withPrincipal(httptest.NewRequest(http.MethodGet, "/api/v1/store/orders", nil), member))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if stub.scope.All || stub.scope.UserID != member.UserID {
		t.Fatalf("expected member scope, got %+v", stub.scope)
	}

	staff := access.Principal{UserID: uuid.New(), Authenticated: true, IsStaff: true}
	List(stub, nil).ServeHTTP(httptest.NewRecorder(), withPrincipal(httptest.NewRequest(http.MethodGet, "/api/v1/store/orders", nil), staff))
	if !stub.scope.All {
		t.Fatal("expected staff to see every order")
	}
}

func TestDetailNotFoundForOtherCustomer(t *testing.T) {
	stub := &stubOrders{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	orderID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/store/orders/"+orderID.String(), nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", orderID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	req = withPrincipal(req, access.Principal{UserID: uuid.New(), Authenticated: true})

	rec := httptest.NewRecorder()
	Detail(stub, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}
