package repository

import (
	"github.com/ManuelReschke/EventFox/app/models"
	"gorm.io/gorm"
)

// settingRepository implements the SettingRepository interface
type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new setting repository instance
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

// GetPaymentSettings loads the typed payment settings on top of defaults
func (r *settingRepository) GetPaymentSettings(defaults models.PaymentSettings) (*models.PaymentSettings, error) {
	return models.LoadPaymentSettings(r.db, defaults)
}

// SavePaymentSettings saves the payment settings to the database
func (r *settingRepository) SavePaymentSettings(settings *models.PaymentSettings) error {
	return models.SavePaymentSettings(r.db, settings)
}
