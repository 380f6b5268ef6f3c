package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/abhigyan-p512/subscription-management/app/controllers"
	"github.com/abhigyan-p512/subscription-management/app/repository"
	"github.com/abhigyan-p512/subscription-management/internal/pkg/billing"
	"github.com/abhigyan-p512/subscription-management/internal/pkg/config"
	"github.com/abhigyan-p512/subscription-management/internal/pkg/middleware"
	"github.com/abhigyan-p512/subscription-management/internal/pkg/notification"
	"github.com/abhigyan-p512/subscription-management/internal/pkg/payment"
)

type ApiRouter struct {
	cfg *config.Config
}

func NewApiRouter(cfg *config.Config) *ApiRouter {
	return &ApiRouter{cfg: cfg}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	repos := repository.GetGlobalFactory()
	users := repos.GetUserRepository()
	subs := repos.GetSubscriptionRepository()
	invoices := repos.GetInvoiceRepository()

	payments := payment.NewClient(h.cfg.StripeSecretKey)
	notifications := notification.NewService(repos.GetNotificationRepository(), users)
	sync := billing.NewSynchronizer(users, subs, invoices, notifications, payments)

	auth := controllers.NewAuthController(users, payments, h.cfg)
	customers := controllers.NewCustomerController(users, payments)
	subscriptions := controllers.NewSubscriptionController(users, subs, payments, sync, h.cfg)
	paymentMethods := controllers.NewPaymentMethodController(users, payments)
	invoiceCtrl := controllers.NewInvoiceController(users, subs, invoices, payments)
	notificationCtrl := controllers.NewNotificationController(notifications)
	plans := controllers.NewPlanController(payments)
	webhooks := controllers.NewWebhookController(sync, h.cfg.StripeWebhookSecret)

	requireAuth := middleware.BearerTokenAuth([]byte(h.cfg.JWTSecret), users)

	// Registered directly on the app so provider retries are never caught by
	// the limiter on the /api group.
	app.Post("/api/webhooks/stripe", webhooks.HandleWebhook)

	api := app.Group("/api", limiter.New())

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api.Post("/auth/signup", auth.HandleSignup)
	api.Post("/auth/login", auth.HandleLogin)
	api.Get("/auth/me", requireAuth, auth.HandleMe)
	api.Put("/auth/profile", requireAuth, auth.HandleUpdateProfile)
	// Kept for clients that look users up by provider customer id.
	api.Get("/auth/:customerId", auth.HandleGetByCustomerID)

	api.Post("/customers/create", customers.HandleCreate)
	api.Get("/customers/:customerId", customers.HandleGetByID)

	api.Post("/subscriptions/create", subscriptions.HandleCreate)
	api.Post("/subscriptions/cancel/:subscriptionId", subscriptions.HandleCancel)
	api.Post("/subscriptions/resume/:subscriptionId", subscriptions.HandleResume)
	api.Post("/subscriptions/update/:subscriptionId", subscriptions.HandleUpdate)
	api.Get("/subscriptions/:customerId", subscriptions.HandleGetByCustomerID)

	api.Get("/invoices/history/:customerId", invoiceCtrl.HandleHistory)
	api.Get("/invoices/upcoming/:customerId", invoiceCtrl.HandleUpcoming)

	api.Get("/payment-methods/:customerId", paymentMethods.HandleList)
	api.Post("/payment-methods/:customerId", paymentMethods.HandleAdd)
	api.Post("/payment-methods/:customerId/default", paymentMethods.HandleSetDefault)
	api.Delete("/payment-methods/:customerId/:paymentMethodId", paymentMethods.HandleRemove)

	api.Get("/plans", plans.HandleList)

	api.Get("/notifications", requireAuth, notificationCtrl.HandleList)
	api.Get("/notifications/unread-count", requireAuth, notificationCtrl.HandleUnreadCount)
	api.Post("/notifications/mark-all-read", requireAuth, notificationCtrl.HandleMarkAllRead)
	api.Post("/notifications/:notificationId/read", requireAuth, notificationCtrl.HandleMarkRead)
}
