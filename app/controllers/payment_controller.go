package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/lojadigital/storefront/app/models"
	"github.com/lojadigital/storefront/app/repository"
	"github.com/lojadigital/storefront/internal/pkg/mercadopago"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// PixPaymentRequest is the checkout input for a PIX charge.
type PixPaymentRequest struct {
	Name   string  `json:"name" validate:"required,min=3,max=150"`
	Email  string  `json:"email" validate:"required,email"`
	CPF    string  `json:"cpf" validate:"required"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// CardPaymentRequest is the checkout input for a tokenized card charge. The
// token comes from client-side tokenization and is never inspected here.
type CardPaymentRequest struct {
	Token             string  `json:"token" validate:"required"`
	IssuerID          string  `json:"issuer_id"`
	PaymentMethodID   string  `json:"payment_method_id"`
	Installments      int     `json:"installments"`
	Amount            float64 `json:"amount" validate:"required,gt=0"`
	Description       string  `json:"description"`
	ExternalReference string  `json:"external_reference"`
	Payer             struct {
		Name           string `json:"name"`
		Email          string `json:"email" validate:"required,email"`
		Identification struct {
			Type   string `json:"type"`
			Number string `json:"number"`
		} `json:"identification"`
	} `json:"payer"`
}

var validate = validator.New()

// HandleCreatePixPayment creates a PIX payment at the gateway and eagerly
// persists the local payment row so the status poll has something to read
// before the first webhook arrives.
func HandleCreatePixPayment(c *fiber.Ctx) error {
	var req PixPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "error": "Corpo da requisição inválido",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "error": "Todos os campos são obrigatórios (name, email, cpf, amount).",
		})
	}
	cpf := mercadopago.CleanDocument(req.CPF)
	if len(cpf) != 11 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "error": "CPF inválido.",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	amount := decimal.NewFromFloat(req.Amount)
	pix, err := getGatewayClient().CreatePixPayment(ctx, mercadopago.PaymentData{
		Name:   req.Name,
		Email:  req.Email,
		CPF:    cpf,
		Amount: amount,
	})
	if err != nil {
		log.WithError(err).Error("pix payment creation failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false, "error": "Erro interno do servidor", "details": err.Error(),
		})
	}

	persistCheckoutPayment(&models.Payment{
		MercadoPagoID:     pix.ID,
		ExternalReference: pix.ExternalReference,
		Amount:            amount,
		PaymentMethod:     "pix",
		PayerName:         req.Name,
		PayerEmail:        req.Email,
		PayerCPF:          cpf,
		Description:       "Produto Digital - Acesso completo ao conteúdo",
		Status:            models.NormalizeStatus(pix.Status),
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "data": pix})
}

// HandleCreateCardPayment charges a tokenized card. Declines surface the
// gateway's message to the checkout UI and are never retried.
func HandleCreateCardPayment(c *fiber.Ctx) error {
	var req CardPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Corpo da requisição inválido",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Dados do pagamento inválidos", "details": err.Error(),
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	amount := decimal.NewFromFloat(req.Amount)
	details, err := getGatewayClient().CreateCardPayment(ctx, mercadopago.CardPaymentRequest{
		Token:             req.Token,
		IssuerID:          req.IssuerID,
		PaymentMethodID:   req.PaymentMethodID,
		Installments:      req.Installments,
		Amount:            amount,
		Description:       req.Description,
		ExternalReference: req.ExternalReference,
		PayerName:         req.Payer.Name,
		PayerEmail:        req.Payer.Email,
		PayerDocType:      req.Payer.Identification.Type,
		PayerDocNumber:    req.Payer.Identification.Number,
	})
	if err != nil {
		log.WithError(err).Error("card payment creation failed")
		var mpErr *mercadopago.Error
		if errors.As(err, &mpErr) && mpErr.StatusCode >= 400 && mpErr.StatusCode < 500 {
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
				"error": "Pagamento recusado", "details": mpErr.Message, "code": mpErr.Code,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Erro ao processar pagamento", "details": err.Error(),
		})
	}

	persistCheckoutPayment(&models.Payment{
		MercadoPagoID:     details.PaymentID(),
		ExternalReference: details.ExternalReference,
		Amount:            amount,
		PaymentMethod:     firstValue(details.PaymentMethodID, req.PaymentMethodID, "credit_card"),
		PayerName:         req.Payer.Name,
		PayerEmail:        req.Payer.Email,
		PayerCPF:          mercadopago.CleanDocument(req.Payer.Identification.Number),
		Description:       firstValue(req.Description, "Pagamento com cartão"),
		Status:            models.NormalizeStatus(details.Status),
		MPStatusDetail:    details.StatusDetail,
	})

	return c.Status(fiber.StatusOK).JSON(details)
}

// persistCheckoutPayment writes the eager payment row. Failures are logged
// only: the gateway transaction already exists and the webhook reconciler
// will recreate the row on first delivery.
func persistCheckoutPayment(payment *models.Payment) {
	repo := repository.GetGlobalFactory().GetPaymentRepository()
	if err := repo.Create(payment); err != nil {
		if errors.Is(err, repository.ErrDuplicateMercadoPagoID) {
			// Webhook beat us to it; the reconciler owns the row now.
			return
		}
		log.WithError(err).WithField("mercadopago_id", payment.MercadoPagoID).
			Error("failed to persist checkout payment")
	}
}

func firstValue(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
