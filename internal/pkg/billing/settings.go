package billing

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EventFox/app/models"
)

// SettingsStore persists the bank-transfer settings. It is implemented by
// the setting repository.
type SettingsStore interface {
	SavePaymentSettings(settings *models.PaymentSettings) error
}

// WithSettingsStore makes UpdateSettings write through to store. Without it
// updates only live until restart.
func WithSettingsStore(store SettingsStore) Option {
	return func(s *Service) {
		if store != nil {
			s.settingsStore = store
		}
	}
}

// UpdateSettings replaces the bank-transfer settings. Payments already
// opened keep their expiry; the change applies to new requests.
func (s *Service) UpdateSettings(ctx context.Context, next models.PaymentSettings) (models.PaymentSettings, error) {
	start := time.Now()
	err := s.updateSettings(ctx, &next)
	s.metrics.RecordOperation("update_settings", time.Since(start), outcomeOf(err))
	if err != nil {
		return models.PaymentSettings{}, err
	}
	log.Infof("[Billing] Payment settings updated: %s, %d hours", next.BankName, next.TimeoutHours)
	return next, nil
}

func (s *Service) updateSettings(ctx context.Context, next *models.PaymentSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next.Normalize()
	if err := next.Validate(); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return validationErr(fe.Field(), "failed on '"+fe.Tag()+"'")
		}
		return validationErr("settings", err.Error())
	}

	// Hold the lock across the write so concurrent updates land in order.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settingsStore != nil {
		if err := s.settingsStore.SavePaymentSettings(next); err != nil {
			return wrapStore("update_settings", err)
		}
	}
	s.settings = *next
	return nil
}
