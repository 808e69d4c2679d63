package repository

import (
	"time"

	"github.com/ManuelReschke/EventFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) GetByID(id string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.Where("id = ?", id).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindLatest returns the newest subscription with status, or nil
func (r *subscriptionRepository) FindLatest(customerID, status string) (*models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("customer_id = ? AND status = ?", customerID, status).
		Order("created_at DESC").
		Limit(1).
		Find(&subs).Error
	if err != nil || len(subs) == 0 {
		return nil, err
	}
	return &subs[0], nil
}

// Save inserts or updates the subscription row
func (r *subscriptionRepository) Save(sub *models.Subscription) error {
	return r.db.Omit(clause.Associations).Save(sub).Error
}

// CancelActive cancels every ACTIVE subscription of the customer except exceptID
func (r *subscriptionRepository) CancelActive(customerID, exceptID string, now time.Time) (int64, error) {
	res := r.db.Model(&models.Subscription{}).
		Where("customer_id = ? AND status = ? AND id <> ?", customerID, models.SubscriptionStatusActive, exceptID).
		Updates(map[string]interface{}{
			"status":     models.SubscriptionStatusCancelled,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

// ListLapsed returns ACTIVE subscriptions whose end date is not after now
func (r *subscriptionRepository) ListLapsed(now time.Time, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("status = ? AND end_date IS NOT NULL AND end_date <= ?", models.SubscriptionStatusActive, now).
		Order("end_date ASC").
		Limit(limit).
		Find(&subs).Error
	return subs, err
}
