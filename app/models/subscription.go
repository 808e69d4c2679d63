package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SubscriptionStatusActive    = "ACTIVE"
	SubscriptionStatusPending   = "PENDING"
	SubscriptionStatusExpired   = "EXPIRED"
	SubscriptionStatusCancelled = "CANCELLED"
	SubscriptionStatusPastDue   = "PAST_DUE"
)

// SubscriptionPeriod is the length of a paid billing period.
const SubscriptionPeriod = 30 * 24 * time.Hour

// Subscription binds a customer to a plan for a period. A customer has at
// most one ACTIVE and at most one PENDING subscription. EndDate nil means the
// subscription never expires (free plans).
type Subscription struct {
	ID         string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	CustomerID string          `gorm:"type:varchar(36);not null;index:idx_subscriptions_customer_status,priority:1" json:"customer_id"`
	Customer   *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	PlanID     string          `gorm:"type:varchar(36);not null;index" json:"plan_id"`
	Plan       *Plan           `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	Currency   string          `gorm:"type:char(3);not null;default:'EUR'" json:"currency"`
	Status     string          `gorm:"type:varchar(16);not null;default:'PENDING';index:idx_subscriptions_customer_status,priority:2" json:"status"`
	StartDate  *time.Time      `gorm:"type:timestamp;default:null" json:"start_date,omitempty"`
	EndDate    *time.Time      `gorm:"type:timestamp;default:null;index" json:"end_date,omitempty"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsEntitling reports whether the subscription grants its plan at now.
func (s *Subscription) IsEntitling(now time.Time) bool {
	if s.Status != SubscriptionStatusActive {
		return false
	}
	return s.EndDate == nil || s.EndDate.After(now)
}

// Activate starts a new period at now. A zero period leaves EndDate nil.
func (s *Subscription) Activate(now time.Time, period time.Duration) {
	start := now
	s.Status = SubscriptionStatusActive
	s.StartDate = &start
	s.EndDate = nil
	if period > 0 {
		end := now.Add(period)
		s.EndDate = &end
	}
}
