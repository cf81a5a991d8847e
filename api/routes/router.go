package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/localkart/localkart-backend/api/controllers"
	"github.com/localkart/localkart-backend/api/middleware"
	"github.com/localkart/localkart-backend/internal/auth"
	"github.com/localkart/localkart-backend/internal/cart"
	"github.com/localkart/localkart-backend/internal/catalog"
	checkoutsvc "github.com/localkart/localkart-backend/internal/checkout"
	"github.com/localkart/localkart-backend/internal/orders"
	"github.com/localkart/localkart-backend/pkg/auth/session"
	"github.com/localkart/localkart-backend/pkg/config"
	"github.com/localkart/localkart-backend/pkg/db"
	"github.com/localkart/localkart-backend/pkg/enums"
	"github.com/localkart/localkart-backend/pkg/logger"
	"github.com/localkart/localkart-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker

	AuthService     auth.Service
	CatalogService  catalog.Service
	CartService     cart.Service
	CheckoutService checkoutsvc.Service
	OrdersService   orders.Service

	Metrics http.Handler
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

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

	var redisPinger redis.Pinger
	if deps.Redis != nil {
		redisPinger = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisPinger))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if deps.Redis != nil {
			r.Use(middleware.Idempotency(deps.Redis, logg))
		}

		r.Get("/ping", controllers.PublicPing())

		r.Route("/auth", func(r chi.Router) {
			r.With(authThrottle(registerPolicy, deps.Redis, logg)).
				Post("/register", controllers.AuthRegister(deps.AuthService, logg))
			r.With(authThrottle(loginPolicy, deps.Redis, logg)).
				Post("/login", controllers.AuthLogin(deps.AuthService, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
			r.Post("/logout", controllers.AuthLogout(deps.AuthService, cfg.JWT, logg))
		})

		// public storefront
		r.Get("/brands", controllers.BrandList(deps.CatalogService, logg))
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.CatalogService, logg))
			r.Get("/{slug}", controllers.ProductDetail(deps.CatalogService, logg))
			r.Get("/{slug}/price", controllers.ProductPricePreview(deps.CatalogService, logg))
		})

		// signed-in customer surface
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

			r.Get("/me/ping", controllers.PrivatePing())

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(deps.CartService, logg))
				r.Put("/", controllers.CartPut(deps.CartService, logg))
			})
			r.Post("/checkout", controllers.Checkout(deps.CheckoutService, logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(deps.OrdersService, logg))
				r.Get("/{orderId}", controllers.OrderDetail(deps.OrdersService, logg))
			})
		})

		// admin surface
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.RequireRole(enums.UserRoleAdmin.String(), logg))

			r.Get("/ping", controllers.AdminPing())

			r.Route("/brands", func(r chi.Router) {
				r.Get("/", controllers.AdminBrandList(deps.CatalogService, logg))
				r.Post("/", controllers.AdminBrandCreate(deps.CatalogService, logg))
				r.Put("/{brandId}", controllers.AdminBrandUpdate(deps.CatalogService, logg))
				r.Delete("/{brandId}", controllers.AdminBrandDelete(deps.CatalogService, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminProductList(deps.CatalogService, logg))
				r.Post("/", controllers.AdminProductCreate(deps.CatalogService, logg))
				r.Get("/{productId}", controllers.AdminProductGet(deps.CatalogService, logg))
				r.Patch("/{productId}", controllers.AdminProductUpdate(deps.CatalogService, logg))
				r.Delete("/{productId}", controllers.AdminProductDelete(deps.CatalogService, logg))
				r.Post("/{productId}/offers", controllers.AdminOfferSave(deps.CatalogService, logg))
				r.Post("/{productId}/offers/preview", controllers.AdminOfferPreview(deps.CatalogService, logg))
				r.Put("/{productId}/stock", controllers.AdminStockSet(deps.CatalogService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrderList(deps.OrdersService, logg))
				r.Get("/{orderId}", controllers.AdminOrderDetail(deps.OrdersService, logg))
				r.Post("/{orderId}/status", controllers.AdminOrderSetStatus(deps.OrdersService, logg))
				r.Post("/{orderId}/verify-otp", controllers.AdminOrderVerifyOTP(deps.OrdersService, logg))
				r.Patch("/{orderId}/items", controllers.AdminOrderEditItems(deps.OrdersService, logg))
			})
		})
	})

	return r
}

// authThrottle keeps a typed nil client out of the middleware's interface check.
func authThrottle(policy middleware.AuthRateLimitPolicy, client *redis.Client, logg *logger.Logger) func(http.Handler) http.Handler {
	if client == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.AuthRateLimit(policy, client, logg)
}
