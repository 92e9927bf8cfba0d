package repository

import (
	"errors"
	"time"

	"github.com/lojadigital/storefront/app/models"
	"gorm.io/gorm"
)

// ErrDuplicateMercadoPagoID signals that another writer already created the
// payment row for this gateway ID. Callers treat this as "reconciled by a
// concurrent notification" and fall back to an update.
var ErrDuplicateMercadoPagoID = errors.New("payment with this mercadopago id already exists")

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a payment repository backed by GORM.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(payment *models.Payment) error {
	payment.ApplyPayerFallbacks()
	if err := r.db.Create(payment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateMercadoPagoID
		}
		return err
	}
	return nil
}

func (r *paymentRepository) GetByID(id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.First(&payment, id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) GetByMercadoPagoID(mpID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.Where("mercado_pago_id = ?", mpID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) GetByExternalReference(ref string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.Where("external_reference = ?", ref).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) UpdateStatus(mpID string, status models.PaymentStatus, update StatusUpdate) (*models.Payment, error) {
	updates := map[string]interface{}{
		"status":              status,
		"mp_status_detail":    update.StatusDetail,
		"mp_rejection_reason": update.RejectionReason,
		"mp_updated_at":       update.MPUpdatedAt,
		"updated_at":          time.Now(),
	}
	tx := r.db.Model(&models.Payment{}).Where("mercado_pago_id = ?", mpID).Updates(updates)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByMercadoPagoID(mpID)
}

func (r *paymentRepository) AttachMercadoPagoID(id uint, mpID string, status models.PaymentStatus) error {
	return r.db.Model(&models.Payment{}).Where("id = ?", id).Updates(map[string]interface{}{
		"mercado_pago_id": mpID,
		"status":          status,
		"updated_at":      time.Now(),
	}).Error
}

func (r *paymentRepository) List(offset, limit int, status models.PaymentStatus) ([]models.Payment, error) {
	var payments []models.Payment
	query := r.db.Order("created_at DESC").Offset(offset).Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) Count(status models.PaymentStatus) (int64, error) {
	var count int64
	query := r.db.Model(&models.Payment{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Count(&count).Error
	return count, err
}
