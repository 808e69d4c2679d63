package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultCurrency = "EUR"

// Plan is a purchasable tier. Price defines the upgrade order between plans.
// A nil limit means unlimited.
type Plan struct {
	ID                string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name              string          `gorm:"type:varchar(100);not null" json:"name"`
	Price             decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	Currency          string          `gorm:"type:char(3);not null;default:'EUR'" json:"currency"`
	MaxEvents         *int            `json:"max_events"`
	MaxPhotosPerEvent *int            `json:"max_photos_per_event"`
	MaxStorageGB      *int            `gorm:"column:max_storage_gb" json:"max_storage_gb"`
	CustomDomain      bool            `gorm:"default:false" json:"custom_domain"`
	Analytics         bool            `gorm:"default:false" json:"analytics"`
	PrioritySupport   bool            `gorm:"default:false" json:"priority_support"`
	APIAccess         bool            `gorm:"column:api_access;default:false" json:"api_access"`
	Whitelabel        bool            `gorm:"default:false" json:"whitelabel"`
	IsActive          bool            `gorm:"default:true;index" json:"is_active"`
	SortOrder         int             `gorm:"default:0" json:"sort_order"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsFree reports whether switching to this plan needs no payment.
func (p *Plan) IsFree() bool {
	return !p.Price.IsPositive()
}

// IsDowngradeFrom reports whether moving from current to p lowers the price.
func (p *Plan) IsDowngradeFrom(current *Plan) bool {
	if current == nil {
		return false
	}
	return p.Price.LessThan(current.Price)
}

// LessThan orders plans by price, then sort order, then id.
func (p *Plan) LessThan(other *Plan) bool {
	if c := p.Price.Cmp(other.Price); c != 0 {
		return c < 0
	}
	if p.SortOrder != other.SortOrder {
		return p.SortOrder < other.SortOrder
	}
	return p.ID < other.ID
}
