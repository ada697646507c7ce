package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/grocerly/grocerly-backend/api/controllers"
	"github.com/grocerly/grocerly-backend/api/middleware"
	cartsvc "github.com/grocerly/grocerly-backend/internal/cart"
	checkoutsvc "github.com/grocerly/grocerly-backend/internal/checkout"
	notifsvc "github.com/grocerly/grocerly-backend/internal/notifications"
	orderssvc "github.com/grocerly/grocerly-backend/internal/orders"
	"github.com/grocerly/grocerly-backend/pkg/config"
	"github.com/grocerly/grocerly-backend/pkg/db"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	pkgredis "github.com/grocerly/grocerly-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs. Registry and Idempotency
// may be nil; the corresponding endpoints degrade gracefully.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	Cart          cartsvc.Service
	Checkout      checkoutsvc.Service
	Orders        orderssvc.Service
	Notifications notifsvc.Service
	Idempotency   pkgredis.IdempotencyStore
	Registry      *prometheus.Registry
	Pingers       []db.Pinger
}

// New assembles the full router: public health and metrics endpoints plus the
// authenticated /api/v1 surface.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.RequestID(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))
	r.Use(middleware.CORS())

	r.Get("/health/live", controllers.HealthLive(deps.Config))
	r.Get("/health/ready", controllers.HealthReady(deps.Config, deps.Logger, deps.Pingers...))

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(deps.Config.JWT, deps.Logger))
		r.Use(middleware.Idempotency(deps.Idempotency, deps.Logger))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.Cart, deps.Logger))
			r.Post("/items", controllers.CartAddItem(deps.Cart, deps.Logger))
			r.Patch("/items/{productId}", controllers.CartUpdateItem(deps.Cart, deps.Logger))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Cart, deps.Logger))
			r.Delete("/", controllers.CartClear(deps.Cart, deps.Logger))
		})

		r.Post("/checkout", controllers.Checkout(deps.Checkout, deps.Logger))
		r.Route("/checkouts/{checkoutId}", func(r chi.Router) {
			r.Get("/", controllers.SuperOrderDetail(deps.Orders, deps.Logger))
			r.Post("/cancel", controllers.CancelCheckout(deps.Orders, deps.Logger))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListCustomerOrders(deps.Orders, deps.Logger))
			r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, deps.Logger))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(deps.Orders, deps.Logger))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, deps.Logger))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, deps.Logger))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, deps.Logger))
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleVendor, deps.Logger))

			r.Get("/orders", controllers.ListVendorOrders(deps.Orders, deps.Logger))
			r.Patch("/orders/{orderId}/status", controllers.UpdateOrderStatus(deps.Orders, deps.Logger))
		})
	})

	return r
}
