package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Setting represents a system setting
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type" validate:"required"` // string, boolean, integer, float
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	SettingPaymentBankName      = "payment_bank_name"
	SettingPaymentAccountHolder = "payment_account_holder"
	SettingPaymentAccountNumber = "payment_account_number"
	SettingPaymentIBAN          = "payment_iban"
	SettingPaymentSWIFT         = "payment_swift"
	SettingPaymentTimeoutHours  = "payment_timeout_hours"
	SettingPaymentCurrency      = "payment_currency"
)

const DefaultPaymentTimeoutHours = 72

// PaymentSettings holds the bank-transfer instructions shown to customers
// after a paid plan change request.
type PaymentSettings struct {
	BankName      string `json:"bank_name" validate:"required,max=255"`
	AccountHolder string `json:"account_holder" validate:"required,max=255"`
	AccountNumber string `json:"account_number" validate:"max=64"`
	IBAN          string `json:"iban" validate:"required,min=15,max=34"`
	SWIFT         string `json:"swift" validate:"omitempty,min=8,max=11"`
	TimeoutHours  int    `json:"timeout_hours" validate:"min=1,max=720"`
	Currency      string `json:"currency" validate:"required,len=3"`
}

// Validate validates the payment settings
func (s *PaymentSettings) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}

// Normalize trims the values and applies the canonical IBAN, SWIFT and
// currency spelling.
func (s *PaymentSettings) Normalize() {
	s.BankName = strings.TrimSpace(s.BankName)
	s.AccountHolder = strings.TrimSpace(s.AccountHolder)
	s.AccountNumber = strings.TrimSpace(s.AccountNumber)
	s.IBAN = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s.IBAN), " ", ""))
	s.SWIFT = strings.ToUpper(strings.TrimSpace(s.SWIFT))
	s.Currency = strings.ToUpper(strings.TrimSpace(s.Currency))
}

// Timeout returns how long a pending payment stays open.
func (s *PaymentSettings) Timeout() time.Duration {
	return time.Duration(s.TimeoutHours) * time.Hour
}

// ApplySetting overrides the matching field with a stored value. Unknown keys
// are ignored.
func (s *PaymentSettings) ApplySetting(setting Setting) error {
	value := strings.TrimSpace(setting.Value)
	if value == "" {
		return nil
	}
	switch setting.Key {
	case SettingPaymentBankName:
		s.BankName = value
	case SettingPaymentAccountHolder:
		s.AccountHolder = value
	case SettingPaymentAccountNumber:
		s.AccountNumber = value
	case SettingPaymentIBAN:
		s.IBAN = strings.ReplaceAll(value, " ", "")
	case SettingPaymentSWIFT:
		s.SWIFT = value
	case SettingPaymentCurrency:
		s.Currency = strings.ToUpper(value)
	case SettingPaymentTimeoutHours:
		hours, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", setting.Key, value, err)
		}
		s.TimeoutHours = hours
	}
	return nil
}

// LoadPaymentSettings reads the payment settings rows on top of defaults and
// validates the result.
func LoadPaymentSettings(db *gorm.DB, defaults PaymentSettings) (*PaymentSettings, error) {
	result := defaults
	if result.TimeoutHours == 0 {
		result.TimeoutHours = DefaultPaymentTimeoutHours
	}
	if result.Currency == "" {
		result.Currency = DefaultCurrency
	}

	var settings []Setting
	if err := db.Where("setting_key LIKE ?", "payment_%").Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	for _, setting := range settings {
		if err := result.ApplySetting(setting); err != nil {
			return nil, err
		}
	}

	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &result, nil
}

func getSettingType(key string) string {
	switch key {
	case SettingPaymentTimeoutHours:
		return "integer"
	default:
		return "string"
	}
}

// SavePaymentSettings saves payment settings to database
func SavePaymentSettings(db *gorm.DB, settings *PaymentSettings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	settingsMap := map[string]string{
		SettingPaymentBankName:      settings.BankName,
		SettingPaymentAccountHolder: settings.AccountHolder,
		SettingPaymentAccountNumber: settings.AccountNumber,
		SettingPaymentIBAN:          settings.IBAN,
		SettingPaymentSWIFT:         settings.SWIFT,
		SettingPaymentTimeoutHours:  strconv.Itoa(settings.TimeoutHours),
		SettingPaymentCurrency:      settings.Currency,
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for key, value := range settingsMap {
			setting := Setting{Key: key, Value: value, Type: getSettingType(key)}
			err := tx.Where("setting_key = ?", key).
				Assign(Setting{Value: value, Type: setting.Type}).
				FirstOrCreate(&setting).Error
			if err != nil {
				return fmt.Errorf("failed to save setting %s: %w", key, err)
			}
		}
		return nil
	})
}
