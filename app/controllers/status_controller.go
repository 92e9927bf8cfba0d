package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/lojadigital/storefront/app/models"
	"github.com/lojadigital/storefront/app/repository"
	"gorm.io/gorm"
)

// HandlePaymentStatus is the polling read model: it translates a gateway
// payment ID into the current local status. No side effects; a 404 tells the
// client to keep polling because the webhook may simply not have arrived yet.
func HandlePaymentStatus(c *fiber.Ctx) error {
	paymentID := strings.TrimSpace(c.Query("paymentId"))
	if paymentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "paymentId é obrigatório",
		})
	}

	repo := repository.GetGlobalFactory().GetPaymentRepository()
	payment, err := repo.GetByMercadoPagoID(paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Pagamento não encontrado",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Erro ao consultar status do pagamento",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"paymentId":         payment.MercadoPagoID,
		"status":            payment.Status,
		"statusDetail":      payment.MPStatusDetail,
		"externalReference": payment.ExternalReference,
		"amount":            payment.Amount,
		"updatedAt":         payment.UpdatedAt,
	})
}

// HandleListPayments is the admin dashboard listing: newest first, optional
// status filter, paginated.
func HandleListPayments(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.Query("per_page", "20"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	status := models.PaymentStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))

	repo := repository.GetGlobalFactory().GetPaymentRepository()
	payments, err := repo.List((page-1)*perPage, perPage, status)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Erro ao listar pagamentos",
		})
	}
	total, err := repo.Count(status)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Erro ao contar pagamentos",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"payments": payments,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}
