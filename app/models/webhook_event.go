package models

import "time"

// WebhookEvent is the append-only audit record of one inbound gateway
// notification. Duplicates and out-of-order deliveries are recorded as
// separate rows; deduplication of side effects happens elsewhere.
type WebhookEvent struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	PaymentID   uint       `gorm:"not null;index" json:"payment_id"`
	Payment     *Payment   `gorm:"foreignKey:PaymentID" json:"-"`
	EventType   string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	EventData   string     `gorm:"type:longtext;not null" json:"event_data"`
	Processed   bool       `gorm:"default:false;index" json:"processed"`
	ProcessedAt *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	Error       string     `gorm:"type:text" json:"error"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}
