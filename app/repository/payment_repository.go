package repository

import (
	"time"

	"github.com/ManuelReschke/EventFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// paymentRepository implements the PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(payment *models.Payment) error {
	return r.db.Omit(clause.Associations).Create(payment).Error
}

// GetByID loads a payment with its customer and subscription plan
func (r *paymentRepository) GetByID(id string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Preload("Customer").
		Preload("Subscription.Plan").
		Where("id = ?", id).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) CountPending(customerID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).
		Where("customer_id = ? AND status = ?", customerID, models.PaymentStatusPending).
		Count(&count).Error
	return count, err
}

// Claim moves a PENDING payment to status. Zero affected rows means another
// writer decided the payment first.
func (r *paymentRepository) Claim(id, status string, claim models.PaymentClaim) (bool, error) {
	updates := map[string]interface{}{
		"status":       status,
		"description":  claim.Description,
		"processed_by": claim.ProcessedBy,
		"processed_at": claim.ProcessedAt,
		"updated_at":   claim.ProcessedAt,
	}
	if claim.TransactionID != nil {
		updates["transaction_id"] = *claim.TransactionID
	}

	res := r.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// List returns a page of payments, newest first, and the total count
func (r *paymentRepository) List(filter PaymentFilter) ([]models.Payment, int64, error) {
	query := r.db.Model(&models.Payment{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != "" {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []models.Payment
	err := query.Preload("Customer").
		Preload("Subscription.Plan").
		Order("created_at DESC, id DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&payments).Error
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

// ListStale returns PENDING payments whose deadline passed
func (r *paymentRepository) ListStale(now time.Time, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("status = ? AND expires_at <= ?", models.PaymentStatusPending, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&payments).Error
	return payments, err
}
