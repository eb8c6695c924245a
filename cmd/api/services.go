package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/collections"
	"github.com/angelmondragon/storefront-backend/internal/customers"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	products "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/reviews"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// buildServices wires repositories into the domain services mounted by the router.
func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	sessionManager *session.Manager,
	reg prometheus.Registerer,
) (routes.Services, error) {
	gdb := dbClient.DB()

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(gdb),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("auth service: %w", err)
	}
	signup, err := auth.NewSignup(dbClient, cfg.Password)
	if err != nil {
		return routes.Services{}, fmt.Errorf("signup: %w", err)
	}

	collectionService, err := collections.NewService(collections.NewRepository(gdb))
	if err != nil {
		return routes.Services{}, fmt.Errorf("collections service: %w", err)
	}

	productCache, err := redis.NewJSONCache[products.ProductDTO](redisClient, "product", cfg.Cache.ProductTTL)
	if err != nil {
		return routes.Services{}, fmt.Errorf("product cache: %w", err)
	}
	productService, err := products.NewService(products.NewRepository(gdb), productCache, logg)
	if err != nil {
		return routes.Services{}, fmt.Errorf("products service: %w", err)
	}

	reviewService, err := reviews.NewService(reviews.NewRepository(gdb))
	if err != nil {
		return routes.Services{}, fmt.Errorf("reviews service: %w", err)
	}

	cartRepo := cart.NewRepository(gdb)
	cartService, err := cart.NewService(cartRepo)
	if err != nil {
		return routes.Services{}, fmt.Errorf("cart service: %w", err)
	}

	ordersRepo := orders.NewRepository(gdb)
	orderService, err := orders.NewService(ordersRepo)
	if err != nil {
		return routes.Services{}, fmt.Errorf("orders service: %w", err)
	}

	customersRepo := customers.NewRepository(gdb)
	customerService, err := customers.NewService(customersRepo, orderService)
	if err != nil {
		return routes.Services{}, fmt.Errorf("customers service: %w", err)
	}

	checkoutService, err := checkout.NewService(
		dbClient,
		cartRepo,
		ordersRepo,
		customersRepo,
		outbox.NewService(outbox.NewRepository(gdb), logg),
		metrics.NewCheckoutMetrics(reg),
	)
	if err != nil {
		return routes.Services{}, fmt.Errorf("checkout service: %w", err)
	}

	return routes.Services{
		Auth:          authService,
		Register:      signup,
		AdminRegister: signup.Staff(),
		Collections:   collectionService,
		Products:      productService,
		Reviews:       reviewService,
		Cart:          cartService,
		Customers:     customerService,
		Orders:        orderService,
		Checkout:      checkoutService,
	}, nil
}
