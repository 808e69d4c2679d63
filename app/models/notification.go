package models

import "time"

const (
	NotificationTypeBilling = "BILLING"
	NotificationTypeFeature = "FEATURE"
	NotificationTypeSystem  = "SYSTEM"
)

const (
	RecipientTypeCustomer = "customer"
	RecipientTypeAdmin    = "admin"
)

type Notification struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	RecipientID   string    `gorm:"type:varchar(36);not null;index:idx_notifications_recipient,priority:1" json:"recipient_id"`
	RecipientType string    `gorm:"type:varchar(16);not null;default:'customer';index:idx_notifications_recipient,priority:2" json:"recipient_type" validate:"oneof=customer admin"`
	Type          string    `gorm:"type:varchar(16);not null" json:"type" validate:"oneof=BILLING FEATURE SYSTEM"`
	Title         string    `gorm:"type:varchar(255);not null" json:"title"`
	Message       string    `gorm:"type:text" json:"message"`
	IsRead        bool      `gorm:"default:false" json:"is_read"`
	ActionURL     string    `gorm:"type:varchar(255)" json:"action_url,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
