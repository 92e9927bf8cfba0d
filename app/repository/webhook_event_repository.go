package repository

import (
	"time"

	"github.com/lojadigital/storefront/app/models"
	"gorm.io/gorm"
)

type webhookEventRepository struct {
	db *gorm.DB
}

// NewWebhookEventRepository creates a webhook event repository backed by GORM.
func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

func (r *webhookEventRepository) Log(paymentID uint, eventType string, rawBody string) (*models.WebhookEvent, error) {
	event := &models.WebhookEvent{
		PaymentID: paymentID,
		EventType: eventType,
		EventData: rawBody,
		Processed: false,
	}
	if err := r.db.Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

func (r *webhookEventRepository) MarkProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed":    true,
		"processed_at": &now,
		"error":        processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *webhookEventRepository) ListByPayment(paymentID uint, limit int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	err := r.db.Where("payment_id = ?", paymentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
