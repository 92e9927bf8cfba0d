package router

import (
	"github.com/lojadigital/storefront/app/controllers"
	"github.com/lojadigital/storefront/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// Initialize the long-lived payment collaborators before serving.
	controllers.InitializePaymentControllers()

	api := app.Group("/api")

	// Checkout endpoints are rate limited; the webhook is not, because the
	// gateway controls its own delivery rate and a limiter would turn
	// redeliveries into retry storms.
	checkout := api.Group("", limiter.New())
	checkout.Post("/pix-payment", controllers.HandleCreatePixPayment)
	checkout.Post("/mercadopago/card", controllers.HandleCreateCardPayment)

	api.Post("/webhook", controllers.HandlePaymentWebhook)
	api.Get("/webhook", controllers.HandleWebhookEcho)
	api.Get("/payment-status", controllers.HandlePaymentStatus)

	api.Get("/payments", middleware.AdminTokenMiddleware(), controllers.HandleListPayments)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
