package payments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lojadigital/storefront/app/models"
	"github.com/lojadigital/storefront/app/repository"
	"github.com/lojadigital/storefront/internal/pkg/mail"
	"github.com/lojadigital/storefront/internal/pkg/mercadopago"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	detailFetchAttempts  = 3
	detailFetchBaseDelay = 300 * time.Millisecond
)

// Gateway is the read side of the payment processor the reconciler depends
// on.
type Gateway interface {
	GetPaymentDetails(ctx context.Context, paymentID string) (*mercadopago.PaymentDetails, error)
}

// Notifier dispatches the deduplicated confirmation email.
type Notifier interface {
	SendConfirmation(paymentID string, data mail.ConfirmationData) error
}

// Service reconciles inbound gateway notifications against the local payment
// store. It is safe under concurrent invocation for the same gateway payment
// ID: a duplicate create races into an update instead of failing.
type Service struct {
	gateway  Gateway
	payments repository.PaymentRepository
	events   repository.WebhookEventRepository
	notifier Notifier

	attempts int
	delay    func(attempt int) time.Duration
}

// NewService wires a reconciler from its collaborators.
func NewService(gateway Gateway, payments repository.PaymentRepository, events repository.WebhookEventRepository, notifier Notifier) *Service {
	return &Service{
		gateway:  gateway,
		payments: payments,
		events:   events,
		notifier: notifier,
		attempts: detailFetchAttempts,
		delay:    linearDelay(detailFetchBaseDelay),
	}
}

// Result is the webhook acknowledgment summary. The HTTP layer always turns
// it into a 200 response: the gateway disables redelivery on persistent
// non-2xx answers and cannot act on our internal errors anyway.
type Result struct {
	Ok                bool
	Ignored           bool
	Message           string
	PaymentID         string
	Status            models.PaymentStatus
	ExternalReference string
	ProcessedAt       time.Time
	SavedToDB         bool
}

// ProcessNotification runs the full reconciliation pipeline for one inbound
// webhook call. Every phase is isolated: a failure in the store, the audit
// log, or the mailer is logged and does not stop the remaining phases.
func (s *Service) ProcessNotification(ctx context.Context, rawBody []byte, query QueryGetter) Result {
	n := ParseNotification(rawBody, query)

	logger := log.WithFields(log.Fields{
		"event_type": n.EventType,
		"payment_id": n.PaymentID,
	})
	logger.Info("webhook notification received")

	if !n.IsPaymentEvent() {
		return Result{Ok: true, Ignored: true, Message: "ignored (not a payment event)"}
	}
	if n.PaymentID == "" {
		return Result{Ok: false, Ignored: true, Message: "payment id missing"}
	}

	// The gateway's read side can lag its webhook delivery by a few hundred
	// milliseconds, so the detail fetch retries before giving up and letting
	// the gateway redeliver.
	var details *mercadopago.PaymentDetails
	err := retryWithBackoff(ctx, s.attempts, s.delay, func() error {
		var fetchErr error
		details, fetchErr = s.gateway.GetPaymentDetails(ctx, n.PaymentID)
		if fetchErr != nil {
			logger.WithError(fetchErr).Warn("payment detail fetch attempt failed")
		}
		return fetchErr
	})
	if err != nil || details == nil {
		logger.WithError(err).Error("no payment details after retries, acknowledging for redelivery")
		return Result{Ok: false, Message: "payment details unavailable", PaymentID: n.PaymentID}
	}

	status := models.NormalizeStatus(details.Status)
	logger = logger.WithFields(log.Fields{
		"status":             details.Status,
		"status_detail":      details.StatusDetail,
		"external_reference": details.ExternalReference,
	})

	payment := s.reconcile(n.PaymentID, details, status, logger)

	var event *models.WebhookEvent
	if payment != nil {
		eventType := n.EventType
		if eventType == "" {
			eventType = "payment.updated"
		}
		var logErr error
		event, logErr = s.events.Log(payment.ID, eventType, n.RawBody)
		if logErr != nil {
			logger.WithError(logErr).Error("failed to record webhook event")
		}
	}

	// The confirmation email depends only on the gateway-reported status, so
	// a store outage above must not silence it.
	var dispatchErr error
	if status == models.PAYMENT_APPROVED {
		dispatchErr = s.dispatchConfirmation(n.PaymentID, details, logger)
	} else {
		logStatus(status, details, logger)
	}

	if event != nil {
		errMsg := ""
		if dispatchErr != nil {
			errMsg = dispatchErr.Error()
		}
		if err := s.events.MarkProcessed(event.ID, errMsg); err != nil {
			logger.WithError(err).Error("failed to mark webhook event processed")
		}
	}

	return Result{
		Ok:                true,
		PaymentID:         n.PaymentID,
		Status:            status,
		ExternalReference: details.ExternalReference,
		ProcessedAt:       time.Now(),
		SavedToDB:         payment != nil,
	}
}

// reconcile creates or updates the local payment row for a gateway payment.
// Returns nil when the store could not be written; the caller continues with
// the remaining phases regardless.
func (s *Service) reconcile(paymentID string, details *mercadopago.PaymentDetails, status models.PaymentStatus, logger *log.Entry) *models.Payment {
	payment, err := s.payments.GetByMercadoPagoID(paymentID)
	switch {
	case err == nil:
		updated, updateErr := s.updateFromDetails(paymentID, details, status)
		if updateErr != nil {
			logger.WithError(updateErr).Error("failed to update payment status")
			return payment
		}
		logger.Info("payment status updated")
		return updated

	case errors.Is(err, gorm.ErrRecordNotFound):
		created, createErr := s.createFromDetails(paymentID, details, status)
		if createErr == nil {
			logger.WithField("db_status", created.Status).Info("payment created from webhook")
			return created
		}
		if errors.Is(createErr, repository.ErrDuplicateMercadoPagoID) {
			// Lost the create race against a concurrent notification;
			// fall back to the idempotent update.
			updated, updateErr := s.updateFromDetails(paymentID, details, status)
			if updateErr != nil {
				logger.WithError(updateErr).Error("failed to update payment after duplicate create")
				return nil
			}
			return updated
		}
		logger.WithError(createErr).Error("failed to create payment from webhook")
		return nil

	default:
		logger.WithError(err).Error("payment lookup failed")
		return nil
	}
}

func (s *Service) createFromDetails(paymentID string, details *mercadopago.PaymentDetails, status models.PaymentStatus) (*models.Payment, error) {
	payer := mercadopago.ExtractPayerInfo(details)

	externalReference := details.ExternalReference
	if externalReference == "" {
		externalReference = mercadopago.NewExternalReference()
	}
	description := details.Description
	if description == "" {
		description = "Pagamento via Mercado Pago"
	}

	payment := &models.Payment{
		MercadoPagoID:     paymentID,
		ExternalReference: externalReference,
		Amount:            details.Amount(),
		PaymentMethod:     details.PaymentMethodID,
		PayerName:         payer.Name,
		PayerEmail:        payer.Email,
		PayerCPF:          payer.CPF,
		Description:       description,
		// The gateway's current status, never a hardcoded PENDING: forcing
		// PENDING here would fabricate a PENDING→APPROVED transition racing
		// the terminal side-effect check.
		Status:            status,
		MPStatusDetail:    details.StatusDetail,
		MPRejectionReason: details.RejectionReason,
		MPUpdatedAt:       details.DateLastUpdated,
	}
	if err := payment.SetItems(itemsFromDetails(details)); err != nil {
		log.WithError(err).Warn("failed to serialize payment items")
	}
	if err := s.payments.Create(payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *Service) updateFromDetails(paymentID string, details *mercadopago.PaymentDetails, status models.PaymentStatus) (*models.Payment, error) {
	return s.payments.UpdateStatus(paymentID, status, repository.StatusUpdate{
		StatusDetail:    details.StatusDetail,
		RejectionReason: details.RejectionReason,
		MPUpdatedAt:     details.DateLastUpdated,
	})
}

// dispatchConfirmation picks the first valid, non-placeholder buyer email and
// hands the receipt to the deduplicated notifier. Failures are logged only.
func (s *Service) dispatchConfirmation(paymentID string, details *mercadopago.PaymentDetails, logger *log.Entry) error {
	to := ""
	for _, candidate := range mercadopago.BuyerEmailCandidates(details) {
		if mail.IsValidCustomerEmail(candidate) {
			to = strings.TrimSpace(candidate)
			break
		}
	}
	if to == "" {
		logger.Warn("no valid buyer email found, confirmation not sent")
		return nil
	}

	name := mercadopago.ExtractPayerInfo(details).Name
	if name == models.PayerNameFallback {
		name = ""
	}
	orderID := details.ExternalReference
	if orderID == "" && details.Metadata != nil {
		orderID = details.Metadata.OrderID
	}
	if orderID == "" {
		orderID = paymentID
	}

	err := s.notifier.SendConfirmation(paymentID, mail.ConfirmationData{
		To:         to,
		Name:       name,
		OrderID:    orderID,
		Amount:     details.Amount(),
		Items:      itemsFromDetails(details),
		ReceiptURL: details.ReceiptURL(),
	})
	if err != nil {
		logger.WithError(err).Error("failed to send confirmation email")
		return err
	}
	logger.WithField("to", to).Info("confirmation email dispatched")
	return nil
}

func logStatus(status models.PaymentStatus, details *mercadopago.PaymentDetails, logger *log.Entry) {
	switch status {
	case models.PAYMENT_REJECTED:
		logger.WithField("status_detail", details.StatusDetail).Info("payment rejected")
	case models.PAYMENT_IN_PROCESS:
		logger.Info("payment under review")
	case models.PAYMENT_CANCELLED:
		logger.Info("payment cancelled")
	default:
		logger.Info("payment status recorded")
	}
}

func itemsFromDetails(details *mercadopago.PaymentDetails) []models.PaymentItem {
	if details == nil || details.AdditionalInfo == nil {
		return nil
	}
	var items []models.PaymentItem
	for _, it := range details.AdditionalInfo.Items {
		quantity := 1
		if q, err := it.Quantity.Int64(); err == nil && q > 0 {
			quantity = int(q)
		}
		price := decimal.Zero
		if p, err := decimal.NewFromString(it.UnitPrice.String()); err == nil {
			price = p
		}
		items = append(items, models.PaymentItem{
			Title:     it.Title,
			Quantity:  quantity,
			UnitPrice: price,
		})
	}
	return items
}
