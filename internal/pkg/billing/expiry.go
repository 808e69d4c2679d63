package billing

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/ManuelReschke/EventFox/internal/pkg/notify"
)

const (
	SweepStalePayments       = "stale_payments"
	SweepLapsedSubscriptions = "lapsed_subscriptions"

	DefaultSweepBatch = 100
)

// errSkip marks a row that no longer qualifies for expiry.
var errSkip error = &PolicyViolation{Reason: "no longer eligible"}

// ExpireStalePayments fails PENDING payments whose expiresAt is not after
// now. Payments decided concurrently by an admin are skipped.
func (s *Service) ExpireStalePayments(ctx context.Context, now time.Time, batch int) (SweepResult, error) {
	if batch <= 0 {
		batch = DefaultSweepBatch
	}
	var result SweepResult

	var stale []models.Payment
	err := s.read(ctx, "list_stale_payments", func(tx Tx) error {
		var err error
		stale, err = tx.ListStalePayments(now, batch)
		return err
	})
	if err != nil {
		return result, err
	}

	for _, candidate := range stale {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		err := s.transact(ctx, "expire_payment", func(tx Tx, emitter *notify.Emitter) error {
			return s.expirePayment(tx, emitter, candidate.ID, now)
		})
		switch {
		case err == nil:
			result.Expired++
			s.metrics.RecordPaymentTransition(models.PaymentStatusFailed)
		case errors.Is(err, errSkip), errors.Is(err, ErrConcurrencyConflict):
			result.Skipped++
		default:
			result.Failed++
			log.Errorf("[Reaper] Failed to expire payment %s: %v", candidate.ID, err)
		}
	}

	s.metrics.RecordSweep(SweepStalePayments, result.Expired)
	if result.Expired > 0 {
		log.Infof("[Reaper] Expired %d stale payments (%d skipped, %d failed)", result.Expired, result.Skipped, result.Failed)
	}
	return result, nil
}

func (s *Service) expirePayment(tx Tx, emitter *notify.Emitter, paymentID string, now time.Time) error {
	payment, err := tx.GetPayment(paymentID)
	if err != nil {
		return err
	}
	if !payment.IsPending() || payment.ExpiresAt.After(now) {
		return errSkip
	}

	claimed, err := tx.ClaimPayment(paymentID, models.PaymentStatusFailed, models.PaymentClaim{
		Description: expiredDescription(s.Settings().TimeoutHours),
		ProcessedAt: now,
	})
	if err != nil {
		return err
	}
	if !claimed {
		return &ConcurrencyConflict{PaymentID: paymentID}
	}

	email := ""
	if payment.Customer != nil {
		email = payment.Customer.Email
	}
	return emitter.Emit(tx, s.paymentExpiredNotification(payment.CustomerID, payment), email)
}

// ExpireLapsedSubscriptions moves ACTIVE subscriptions whose end date passed
// to EXPIRED and resets the customer to the default free plan.
func (s *Service) ExpireLapsedSubscriptions(ctx context.Context, now time.Time, batch int) (SweepResult, error) {
	if batch <= 0 {
		batch = DefaultSweepBatch
	}
	var result SweepResult

	var lapsed []models.Subscription
	err := s.read(ctx, "list_lapsed_subscriptions", func(tx Tx) error {
		var err error
		lapsed, err = tx.ListLapsedSubscriptions(now, batch)
		return err
	})
	if err != nil {
		return result, err
	}

	for _, candidate := range lapsed {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		err := s.transact(ctx, "expire_subscription", func(tx Tx, emitter *notify.Emitter) error {
			return s.expireSubscription(tx, emitter, candidate.CustomerID, candidate.ID, now)
		})
		switch {
		case err == nil:
			result.Expired++
		case errors.Is(err, errSkip):
			result.Skipped++
		default:
			result.Failed++
			log.Errorf("[Reaper] Failed to expire subscription %s: %v", candidate.ID, err)
		}
	}

	s.metrics.RecordSweep(SweepLapsedSubscriptions, result.Expired)
	if result.Expired > 0 {
		log.Infof("[Reaper] Expired %d subscriptions (%d skipped, %d failed)", result.Expired, result.Skipped, result.Failed)
	}
	return result, nil
}

func (s *Service) expireSubscription(tx Tx, emitter *notify.Emitter, customerID, subscriptionID string, now time.Time) error {
	customer, err := tx.LockCustomer(customerID)
	if err != nil {
		return err
	}
	sub, err := tx.GetSubscription(subscriptionID)
	if err != nil {
		return err
	}
	if sub.Status != models.SubscriptionStatusActive || sub.EndDate == nil || sub.EndDate.After(now) {
		return errSkip
	}

	sub.Status = models.SubscriptionStatusExpired
	if err := tx.SaveSubscription(sub); err != nil {
		return err
	}

	fallback, err := tx.DefaultFreePlan()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return policyErr(ReasonNoDefaultFreePlan)
		}
		return err
	}
	if err := tx.SetCustomerPlan(customer.ID, fallback.ID); err != nil {
		return err
	}
	return emitter.Emit(tx, s.subscriptionExpiredNotification(customer.ID, fallback), customer.Email)
}
