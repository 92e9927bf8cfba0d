package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// PaymentStatus mirrors the Mercado Pago payment status vocabulary. The local
// enum never invents derived states; unrecognized gateway values map to
// STATUS_UNKNOWN instead of failing the webhook.
type PaymentStatus string

const (
	PAYMENT_PENDING      PaymentStatus = "PENDING"
	PAYMENT_APPROVED     PaymentStatus = "APPROVED"
	PAYMENT_AUTHORIZED   PaymentStatus = "AUTHORIZED"
	PAYMENT_IN_PROCESS   PaymentStatus = "IN_PROCESS"
	PAYMENT_IN_MEDIATION PaymentStatus = "IN_MEDIATION"
	PAYMENT_REJECTED     PaymentStatus = "REJECTED"
	PAYMENT_CANCELLED    PaymentStatus = "CANCELLED"
	PAYMENT_REFUNDED     PaymentStatus = "REFUNDED"
	PAYMENT_CHARGED_BACK PaymentStatus = "CHARGED_BACK"
	PAYMENT_UNKNOWN      PaymentStatus = "UNKNOWN"
)

// Sentinel values for payer fields so incomplete gateway payloads never leave
// NULLs behind.
const (
	PayerNameFallback  = "Nome não informado"
	PayerEmailFallback = "email@nao.informado"
	PayerCPFFallback   = "CPF não informado"
)

// NormalizeStatus converts a raw gateway status string into the local enum.
func NormalizeStatus(raw string) PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return PAYMENT_PENDING
	case "approved":
		return PAYMENT_APPROVED
	case "authorized":
		return PAYMENT_AUTHORIZED
	case "in_process":
		return PAYMENT_IN_PROCESS
	case "in_mediation":
		return PAYMENT_IN_MEDIATION
	case "rejected":
		return PAYMENT_REJECTED
	case "cancelled":
		return PAYMENT_CANCELLED
	case "refunded":
		return PAYMENT_REFUNDED
	case "charged_back":
		return PAYMENT_CHARGED_BACK
	case "":
		return PAYMENT_PENDING
	default:
		return PAYMENT_UNKNOWN
	}
}

// IsTerminal reports whether a status ends the confirmation-relevant part of
// the payment lifecycle. IN_PROCESS may still transition further.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PAYMENT_APPROVED, PAYMENT_REJECTED, PAYMENT_CANCELLED:
		return true
	default:
		return false
	}
}

// PaymentItem is one purchased line item, persisted as JSON on the payment.
type PaymentItem struct {
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Payment is the authoritative local record of a payment attempt. Exactly one
// row exists per Mercado Pago payment ID; rows are created eagerly at
// checkout or lazily on first webhook arrival, and are only mutated by the
// reconciler's status update.
type Payment struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	MercadoPagoID     string          `gorm:"type:varchar(64);uniqueIndex:ux_payments_mp_id" json:"mercadopago_id"`
	ExternalReference string          `gorm:"type:varchar(100);not null;uniqueIndex:ux_payments_external_ref" json:"external_reference" validate:"required"`
	Amount            decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaymentMethod     string          `gorm:"type:varchar(50);not null;default:'unknown'" json:"payment_method"`
	PayerName         string          `gorm:"type:varchar(150);not null" json:"payer_name" validate:"required"`
	PayerEmail        string          `gorm:"type:varchar(200);not null" json:"payer_email" validate:"required"`
	PayerCPF          string          `gorm:"type:varchar(20);not null" json:"payer_cpf" validate:"required"`
	Description       string          `gorm:"type:varchar(255)" json:"description"`
	Status            PaymentStatus   `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	MPStatusDetail    string          `gorm:"type:varchar(100)" json:"mp_status_detail"`
	MPRejectionReason string          `gorm:"type:varchar(100)" json:"mp_rejection_reason"`
	MPUpdatedAt       *time.Time      `gorm:"type:timestamp;default:null" json:"mp_updated_at,omitempty"`
	ItemsJSON         string          `gorm:"type:text" json:"-"`
	CreatedAt         time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Payment) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// SetItems serializes the item list into ItemsJSON. A nil or empty list
// clears the column.
func (p *Payment) SetItems(items []PaymentItem) error {
	if len(items) == 0 {
		p.ItemsJSON = ""
		return nil
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	p.ItemsJSON = string(raw)
	return nil
}

// Items deserializes ItemsJSON. Malformed stored data yields an empty list
// rather than an error; the column is display-only.
func (p *Payment) Items() []PaymentItem {
	if strings.TrimSpace(p.ItemsJSON) == "" {
		return nil
	}
	var items []PaymentItem
	if err := json.Unmarshal([]byte(p.ItemsJSON), &items); err != nil {
		return nil
	}
	return items
}

// ApplyPayerFallbacks replaces empty payer fields with their sentinels.
func (p *Payment) ApplyPayerFallbacks() {
	if strings.TrimSpace(p.PayerName) == "" {
		p.PayerName = PayerNameFallback
	}
	if strings.TrimSpace(p.PayerEmail) == "" {
		p.PayerEmail = PayerEmailFallback
	}
	if strings.TrimSpace(p.PayerCPF) == "" {
		p.PayerCPF = PayerCPFFallback
	}
	if strings.TrimSpace(p.PaymentMethod) == "" {
		p.PaymentMethod = "unknown"
	}
}
