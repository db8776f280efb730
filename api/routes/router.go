package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockline-app/stockline-backend/api/controllers"
	"github.com/stockline-app/stockline-backend/api/middleware"
	"github.com/stockline-app/stockline-backend/internal/allowance"
	"github.com/stockline-app/stockline-backend/internal/inventory"
	"github.com/stockline-app/stockline-backend/internal/notifications"
	"github.com/stockline-app/stockline-backend/internal/orders"
	"github.com/stockline-app/stockline-backend/internal/pickups"
	"github.com/stockline-app/stockline-backend/internal/transfers"
	"github.com/stockline-app/stockline-backend/pkg/config"
	"github.com/stockline-app/stockline-backend/pkg/db"
	"github.com/stockline-app/stockline-backend/pkg/enums"
	"github.com/stockline-app/stockline-backend/pkg/logger"
	"github.com/stockline-app/stockline-backend/pkg/redis"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Pickups       pickups.Service
	Orders        orders.Service
	Transfers     transfers.Service
	Allowance     allowance.Service
	Inventory     inventory.Service
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ActorContext(logg))

		r.Route("/pickups", func(r chi.Router) {
			r.Get("/", controllers.ListPickups(svcs.Pickups, logg))
			r.Get("/{pickupID}", controllers.GetPickup(svcs.Pickups, logg))

			r.With(middleware.RequireRole(enums.UserRoleMarketer, logg)).Group(func(r chi.Router) {
				r.Post("/", controllers.CreatePickup(svcs.Pickups, logg))
				r.Post("/{pickupID}/return", controllers.RequestPickupReturn(svcs.Pickups, logg))
				r.Post("/{pickupID}/transfer", controllers.RequestTransfer(svcs.Transfers, logg))
			})

			r.With(middleware.RequireAdminTier(logg)).Group(func(r chi.Router) {
				r.Post("/{pickupID}/return/confirm", controllers.ConfirmPickupReturn(svcs.Pickups, logg))
				r.Post("/{pickupID}/transfer/review", controllers.ReviewTransfer(svcs.Transfers, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/{orderID}", controllers.GetOrder(svcs.Orders, logg))
			r.With(middleware.RequireRole(enums.UserRoleMarketer, logg)).
				Post("/", controllers.PlaceOrder(svcs.Orders, logg))
			r.Post("/{orderID}/cancel", controllers.CancelOrder(svcs.Orders, logg))
			r.With(middleware.RequireAdminTier(logg)).
				Post("/{orderID}/confirm", controllers.ConfirmOrder(svcs.Orders, logg))
		})

		r.Route("/allowance", func(r chi.Router) {
			r.With(middleware.RequireRole(enums.UserRoleMarketer, logg)).
				Post("/requests", controllers.RequestAllowance(svcs.Allowance, logg))
			r.With(middleware.RequireAdminTier(logg)).Group(func(r chi.Router) {
				r.Get("/requests", controllers.ListPendingAllowance(svcs.Allowance, logg))
				r.Post("/requests/{requestID}/review", controllers.ReviewAllowance(svcs.Allowance, logg))
			})
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/products/{productID}/availability", controllers.ProductAvailability(svcs.Inventory, logg))
			r.With(middleware.RequireRole(enums.UserRoleDealer, logg)).
				Post("/intake", controllers.IntakeStock(svcs.Inventory, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})
	})

	return r
}
