package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
)

const PaymentMethodBankTransfer = "bank_transfer"

// MaxTransactionIDLength matches the transaction_id column.
const MaxTransactionIDLength = 100

// Payment is a ledger entry for a manual bank transfer. Once Status leaves
// PENDING it never changes again.
type Payment struct {
	ID             string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	CustomerID     string          `gorm:"type:varchar(36);not null;index:idx_payments_customer_status,priority:1" json:"customer_id"`
	Customer       *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	SubscriptionID *string         `gorm:"type:varchar(36);index" json:"subscription_id,omitempty"`
	Subscription   *Subscription   `gorm:"foreignKey:SubscriptionID" json:"subscription,omitempty"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency       string          `gorm:"type:char(3);not null;default:'EUR'" json:"currency"`
	Status         string          `gorm:"type:varchar(16);not null;default:'PENDING';index:idx_payments_customer_status,priority:2;index:idx_payments_status_expires,priority:1" json:"status"`
	PaymentMethod  string          `gorm:"type:varchar(32);not null;default:'bank_transfer'" json:"payment_method"`
	TransactionID  *string         `gorm:"type:varchar(100)" json:"transaction_id,omitempty"`
	Description    string          `gorm:"type:text" json:"description"`
	ProcessedBy    *string         `gorm:"type:varchar(36)" json:"processed_by,omitempty"`
	ProcessedAt    *time.Time      `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ExpiresAt      time.Time       `gorm:"type:timestamp;not null;index:idx_payments_status_expires,priority:2" json:"expires_at"`
	CreatedAt      time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsPending reports whether the payment still awaits a decision.
func (p *Payment) IsPending() bool {
	return p.Status == PaymentStatusPending
}

// IsValidPaymentStatus reports whether s is a known payment status.
func IsValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}

// PaymentClaim carries the terminal fields written when a pending payment is
// claimed.
type PaymentClaim struct {
	TransactionID *string
	Description   string
	ProcessedBy   *string
	ProcessedAt   time.Time
}
