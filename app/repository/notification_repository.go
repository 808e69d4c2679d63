package repository

import (
	"github.com/ManuelReschke/EventFox/app/models"
	"gorm.io/gorm"
)

// notificationRepository implements the NotificationRepository interface
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository instance
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(n *models.Notification) error {
	return r.db.Create(n).Error
}

// ListByRecipient returns notifications newest first
func (r *notificationRepository) ListByRecipient(recipientID string, offset, limit int) ([]models.Notification, int64, error) {
	query := r.db.Model(&models.Notification{}).Where("recipient_id = ?", recipientID).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []models.Notification
	err := query.Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&notifications).Error
	return notifications, total, err
}

// MarkRead flags a notification as read. It reports false when the
// notification does not belong to the recipient.
func (r *notificationRepository) MarkRead(recipientID, id string) (bool, error) {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	// MySQL reports zero affected rows when the flag was already set
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Count(&count).Error
	return count > 0, err
}
