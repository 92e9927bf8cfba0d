package repository

import (
	"time"

	"github.com/lojadigital/storefront/app/models"
	"gorm.io/gorm"
)

// PaymentRepository defines the interface for payment-related database operations
type PaymentRepository interface {
	Create(payment *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByMercadoPagoID(mpID string) (*models.Payment, error)
	GetByExternalReference(ref string) (*models.Payment, error)
	UpdateStatus(mpID string, status models.PaymentStatus, update StatusUpdate) (*models.Payment, error)
	AttachMercadoPagoID(id uint, mpID string, status models.PaymentStatus) error
	List(offset, limit int, status models.PaymentStatus) ([]models.Payment, error)
	Count(status models.PaymentStatus) (int64, error)
}

// StatusUpdate carries the gateway-reported detail fields written alongside a
// status transition. The update is an idempotent overwrite: re-applying the
// same status is a no-op in effect.
type StatusUpdate struct {
	StatusDetail    string
	RejectionReason string
	MPUpdatedAt     *time.Time
}

// WebhookEventRepository defines the interface for webhook audit records
type WebhookEventRepository interface {
	Log(paymentID uint, eventType string, rawBody string) (*models.WebhookEvent, error)
	MarkProcessed(id uint, processingError string) error
	ListByPayment(paymentID uint, limit int) ([]models.WebhookEvent, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Payment      PaymentRepository
	WebhookEvent WebhookEventRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Payment:      NewPaymentRepository(db),
		WebhookEvent: NewWebhookEventRepository(db),
	}
}
