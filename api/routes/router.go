package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/storefront-backend/api/controllers/orders"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/collections"
	"github.com/angelmondragon/storefront-backend/internal/customers"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	products "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/reviews"
	"github.com/angelmondragon/storefront-backend/pkg/access"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Services bundles the domain services mounted by the router.
type Services struct {
	Auth          auth.Service
	Register      auth.RegisterService
	AdminRegister auth.RegisterService
	Collections   collections.Service
	Products      products.Service
	Reviews       reviews.Service
	Cart          cart.Service
	Customers     customers.Service
	Orders        orders.Service
	Checkout      checkoutsvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionManager sessionManager,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		chimw.RealIP,
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	// Without Redis the API still serves, minus throttling and idempotent replays.
	var (
		limiter   middleware.RateLimiterStore
		idemStore redis.IdempotencyStore
	)
	if redisClient != nil {
		limiter, idemStore = redisClient, redisClient
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, limiter, logg)).Post("/register", controllers.AuthRegister(svc.Register, svc.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(sessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessionManager, cfg.JWT, logg))
	})

	if !cfg.App.IsProd() {
		r.With(middleware.AuthRateLimit(registerPolicy, limiter, logg)).
			Post("/api/admin/v1/auth/register", controllers.AdminAuthRegister(svc.AdminRegister, svc.Auth, logg))
	}

	cartIdempotent := middleware.Idempotent(idemStore, logg, middleware.CartIdempotencyTTL)
	checkoutIdempotent := middleware.Idempotent(idemStore, logg, middleware.CheckoutIdempotencyTTL)
	allow := func(resource access.Resource, action access.Action) func(http.Handler) http.Handler {
		return middleware.Authorize(resource, action, logg)
	}

	r.Route("/api/v1/store", func(r chi.Router) {
		// Catalog, reviews and carts are public; a token is parsed when present.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, sessionManager, logg))

			r.Route("/collections", func(r chi.Router) {
				r.With(allow(access.ResourceCollections, access.ActionList)).Get("/", controllers.CollectionList(svc.Collections, logg))
				r.With(allow(access.ResourceCollections, access.ActionCreate)).Post("/", controllers.CollectionCreate(svc.Collections, logg))
				r.Route("/{collectionId}", func(r chi.Router) {
					r.With(allow(access.ResourceCollections, access.ActionRetrieve)).Get("/", controllers.CollectionDetail(svc.Collections, logg))
					r.With(allow(access.ResourceCollections, access.ActionUpdate)).Put("/", controllers.CollectionUpdate(svc.Collections, false, logg))
					r.With(allow(access.ResourceCollections, access.ActionUpdate)).Patch("/", controllers.CollectionUpdate(svc.Collections, true, logg))
					r.With(allow(access.ResourceCollections, access.ActionDelete)).Delete("/", controllers.CollectionDelete(svc.Collections, logg))
				})
			})

			r.Route("/products", func(r chi.Router) {
				r.With(allow(access.ResourceProducts, access.ActionList)).Get("/", controllers.ProductList(svc.Products, logg))
				r.With(allow(access.ResourceProducts, access.ActionCreate)).Post("/", controllers.ProductCreate(svc.Products, logg))
				r.Route("/{productId}", func(r chi.Router) {
					r.With(allow(access.ResourceProducts, access.ActionRetrieve)).Get("/", controllers.ProductDetail(svc.Products, logg))
					r.With(allow(access.ResourceProducts, access.ActionUpdate)).Put("/", controllers.ProductUpdate(svc.Products, false, logg))
					r.With(allow(access.ResourceProducts, access.ActionUpdate)).Patch("/", controllers.ProductUpdate(svc.Products, true, logg))
					r.With(allow(access.ResourceProducts, access.ActionDelete)).Delete("/", controllers.ProductDelete(svc.Products, logg))

					r.Route("/reviews", func(r chi.Router) {
						r.With(allow(access.ResourceReviews, access.ActionList)).Get("/", controllers.ReviewList(svc.Reviews, logg))
						r.With(allow(access.ResourceReviews, access.ActionCreate)).Post("/", controllers.ReviewCreate(svc.Reviews, logg))
						r.Route("/{reviewId}", func(r chi.Router) {
							r.With(allow(access.ResourceReviews, access.ActionRetrieve)).Get("/", controllers.ReviewDetail(svc.Reviews, logg))
							r.With(allow(access.ResourceReviews, access.ActionUpdate)).Put("/", controllers.ReviewUpdate(svc.Reviews, false, logg))
							r.With(allow(access.ResourceReviews, access.ActionUpdate)).Patch("/", controllers.ReviewUpdate(svc.Reviews, true, logg))
							r.With(allow(access.ResourceReviews, access.ActionDelete)).Delete("/", controllers.ReviewDelete(svc.Reviews, logg))
						})
					})
				})
			})

			r.Route("/carts", func(r chi.Router) {
				r.With(allow(access.ResourceCarts, access.ActionCreate), cartIdempotent).Post("/", cartcontrollers.CartCreate(svc.Cart, logg))
				r.Route("/{cartId}", func(r chi.Router) {
					r.With(allow(access.ResourceCarts, access.ActionRetrieve)).Get("/", cartcontrollers.CartFetch(svc.Cart, logg))
					r.With(allow(access.ResourceCarts, access.ActionDelete)).Delete("/", cartcontrollers.CartDelete(svc.Cart, logg))
					r.With(allow(access.ResourceCarts, access.ActionList)).Get("/items", cartcontrollers.ItemList(svc.Cart, logg))
					r.With(allow(access.ResourceCarts, access.ActionCreate), cartIdempotent).Post("/items", cartcontrollers.ItemAdd(svc.Cart, logg))
					r.Route("/items/{itemId}", func(r chi.Router) {
						r.With(allow(access.ResourceCarts, access.ActionRetrieve)).Get("/", cartcontrollers.ItemDetail(svc.Cart, logg))
						r.With(allow(access.ResourceCarts, access.ActionUpdate)).Patch("/", cartcontrollers.ItemUpdate(svc.Cart, logg))
						r.With(allow(access.ResourceCarts, access.ActionDelete)).Delete("/", cartcontrollers.ItemDelete(svc.Cart, logg))
					})
				})
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))

			r.Route("/customers", func(r chi.Router) {
				r.With(allow(access.ResourceCustomers, access.ActionList)).Get("/", controllers.CustomerList(svc.Customers, logg))
				r.With(allow(access.ResourceCustomers, access.ActionCreate)).Post("/", controllers.CustomerCreate(svc.Customers, logg))
				r.With(allow(access.ResourceCustomerSelf, access.ActionRetrieve)).Get("/me", controllers.CustomerMe(svc.Customers, logg))
				r.With(allow(access.ResourceCustomerSelf, access.ActionUpdate)).Put("/me", controllers.CustomerUpdateMe(svc.Customers, logg))
				r.Route("/{customerId}", func(r chi.Router) {
					r.With(allow(access.ResourceCustomers, access.ActionRetrieve)).Get("/", controllers.CustomerDetail(svc.Customers, logg))
					r.With(allow(access.ResourceCustomers, access.ActionUpdate)).Put("/", controllers.CustomerUpdate(svc.Customers, false, logg))
					r.With(allow(access.ResourceCustomers, access.ActionUpdate)).Patch("/", controllers.CustomerUpdate(svc.Customers, true, logg))
					r.With(allow(access.ResourceCustomers, access.ActionDelete)).Delete("/", controllers.CustomerDelete(svc.Customers, logg))
					r.With(allow(access.ResourceCustomerHistory, access.ActionRetrieve)).Get("/history", controllers.CustomerHistory(svc.Customers, logg))
				})
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(allow(access.ResourceOrders, access.ActionList)).Get("/", ordercontrollers.List(svc.Orders, logg))
				r.With(allow(access.ResourceOrders, access.ActionCreate), checkoutIdempotent).Post("/", ordercontrollers.Create(svc.Checkout, logg))
				r.Route("/{orderId}", func(r chi.Router) {
					r.With(allow(access.ResourceOrders, access.ActionRetrieve)).Get("/", ordercontrollers.Detail(svc.Orders, logg))
					r.With(allow(access.ResourceOrders, access.ActionUpdate)).Patch("/", ordercontrollers.UpdatePaymentStatus(svc.Orders, logg))
					r.With(allow(access.ResourceOrders, access.ActionDelete)).Delete("/", ordercontrollers.Delete(svc.Orders, logg))
				})
			})
		})
	})

	return r
}
