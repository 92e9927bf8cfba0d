package controllers

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lojadigital/storefront/app/repository"
	"github.com/lojadigital/storefront/internal/pkg/env"
	"github.com/lojadigital/storefront/internal/pkg/mercadopago"
	"github.com/lojadigital/storefront/internal/pkg/notify"
	"github.com/lojadigital/storefront/internal/pkg/payments"
)

var (
	gatewayClient  *mercadopago.Client
	dispatcher     *notify.Dispatcher
	paymentService *payments.Service
	initOnce       sync.Once
)

// InitializePaymentControllers wires the long-lived collaborators: the
// gateway client (webhook URL resolved once), the deduplicating notifier
// (its recency map must outlive requests), and the reconciler on top of the
// global repositories.
func InitializePaymentControllers() {
	initOnce.Do(func() {
		gatewayClient = mercadopago.NewClientFromEnv()
		dispatcher = notify.NewDispatcher(env.GetEnv("NOTIFY_SHARED_DEDUP", "") == "true")
		factory := repository.GetGlobalFactory()
		paymentService = payments.NewService(
			gatewayClient,
			factory.GetPaymentRepository(),
			factory.GetWebhookEventRepository(),
			dispatcher,
		)
	})
}

func getGatewayClient() *mercadopago.Client {
	InitializePaymentControllers()
	return gatewayClient
}

// HandlePaymentWebhook receives asynchronous gateway notifications. The
// response is always 200: the gateway stops redelivering on persistent
// non-2xx answers, so internal failures are swallowed into the summary body
// and logged instead.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	InitializePaymentControllers()

	rawBody := append([]byte(nil), c.BodyRaw()...)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result := paymentService.ProcessNotification(ctx, rawBody, func(key string) string {
		return c.Query(key)
	})

	if result.Ignored {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"ok":      result.Ok,
			"message": result.Message,
		})
	}
	if !result.Ok {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"ok":        false,
			"message":   result.Message,
			"paymentId": result.PaymentID,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":                result.Ok,
		"paymentId":         result.PaymentID,
		"status":            result.Status,
		"externalReference": result.ExternalReference,
		"processedAt":       result.ProcessedAt.UTC().Format(time.RFC3339),
		"savedToDb":         result.SavedToDB,
	})
}

// HandleWebhookEcho answers the gateway's endpoint verification probe.
func HandleWebhookEcho(c *fiber.Ctx) error {
	echo := fiber.Map{}
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		echo[string(key)] = string(value)
	})
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "ok",
		"ts":     time.Now().UTC().Format(time.RFC3339),
		"echo":   echo,
	})
}
